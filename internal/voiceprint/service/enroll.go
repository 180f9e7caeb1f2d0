package service

import (
	"context"
	"errors"
	"time"

	"voxgate/internal/sentinel"
	"voxgate/internal/voiceprint/models"
	dErrors "voxgate/pkg/domain-errors"
)

// Enroll validates the upload, extracts a voiceprint, and stores it for
// identity, overwriting any previous enrollment. Checks run cheapest first:
// declared size before decode, duration before embedding.
func (s *Service) Enroll(ctx context.Context, identity string, audio []byte, declaredSize int64) (*models.EnrollResult, error) {
	if identity == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}

	if err := s.sizer.CheckSize(declaredSize); err != nil {
		s.rejected("oversize")
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "upload exceeds maximum size")
	}

	start := time.Now()
	res, err := s.extractor.Extract(ctx, audio)
	if err != nil {
		return nil, s.translateExtractError(ctx, err, identity)
	}
	if s.metrics != nil {
		s.metrics.ObserveExtractionDuration(float64(time.Since(start).Milliseconds()))
	}

	entry, err := s.registry.Put(ctx, identity, res.Print)
	if err != nil {
		if errors.Is(err, sentinel.ErrDimensionMismatch) {
			return nil, s.dimensionMismatch(ctx, err, identity)
		}
		s.logger.ErrorContext(ctx, "registry put failed", "identity", identity, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store voiceprint")
	}

	s.logger.InfoContext(ctx, "voiceprint enrolled",
		"identity", identity,
		"dim", res.Print.Dim(),
		"duration_s", res.Duration,
	)
	if s.metrics != nil {
		s.metrics.IncrementEnrollments()
	}

	return &models.EnrollResult{Identity: identity, UpdatedAt: entry.UpdatedAt}, nil
}

// Remove deletes an identity's voiceprint. Administrative; never called by
// the enrollment or verification flows.
func (s *Service) Remove(ctx context.Context, identity string) error {
	if identity == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}
	if err := s.registry.Delete(ctx, identity); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeUnknownIdentity, "identity not enrolled")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete voiceprint")
	}
	s.logger.InfoContext(ctx, "voiceprint deleted", "identity", identity)
	return nil
}
