package service

import (
	"context"
	"errors"

	"voxgate/internal/sentinel"
	dErrors "voxgate/pkg/domain-errors"
)

// translateExtractError maps extraction failures onto the domain taxonomy.
// Caller-input problems (unparseable audio, over-duration clips) become bad
// requests; everything else is a processing fault.
func (s *Service) translateExtractError(ctx context.Context, err error, identity string) error {
	switch {
	case errors.Is(err, sentinel.ErrInvalidFormat):
		s.rejected("invalid_format")
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "audio could not be decoded")
	case errors.Is(err, sentinel.ErrTooLong):
		s.rejected("over_duration")
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "audio exceeds maximum duration")
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.ErrorContext(ctx, "extraction exceeded wall-clock budget",
			"identity", identity, "error", err)
		return dErrors.Wrap(err, dErrors.CodeTimeout, "voiceprint extraction timed out")
	default:
		s.logger.ErrorContext(ctx, "extraction failed",
			"identity", identity, "error", err)
		return dErrors.Wrap(err, dErrors.CodeProcessing, "voiceprint extraction failed")
	}
}

// dimensionMismatch records the configuration-drift alert and returns the
// caller-facing domain error.
func (s *Service) dimensionMismatch(ctx context.Context, err error, identity string) error {
	s.logger.ErrorContext(ctx, "embedding dimension mismatch; extractor configuration drift suspected",
		"identity", identity, "error", err)
	if s.metrics != nil {
		s.metrics.IncrementDimensionMismatches()
	}
	return dErrors.Wrap(err, dErrors.CodeDimensionMismatch, "voiceprint dimension mismatch")
}

func (s *Service) rejected(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementRejectedUploads(reason)
	}
}
