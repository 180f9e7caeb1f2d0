package service

import (
	"context"
	"errors"
	"time"

	"voxgate/internal/sentinel"
	"voxgate/internal/voiceprint/models"
	dErrors "voxgate/pkg/domain-errors"
)

// Verify compares a fresh voice sample against identity's enrolled
// voiceprint. Unknown identities terminate before any extraction work so
// unenrolled callers cost nothing beyond a registry read.
func (s *Service) Verify(ctx context.Context, identity string, audio []byte, declaredSize int64) (*models.VerifyResult, error) {
	if identity == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}

	entry, err := s.registry.Get(ctx, identity)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			if s.metrics != nil {
				s.metrics.IncrementVerifications("unknown_identity")
			}
			return nil, dErrors.New(dErrors.CodeUnknownIdentity, "identity not enrolled")
		}
		s.logger.ErrorContext(ctx, "registry get failed", "identity", identity, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load voiceprint")
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

	match, err := s.matcher.Compare(entry.Print, res.Print)
	if err != nil {
		if errors.Is(err, sentinel.ErrDimensionMismatch) {
			return nil, s.dimensionMismatch(ctx, err, identity)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeProcessing, "voiceprint comparison failed")
	}

	result := &models.VerifyResult{
		Identity: identity,
		Matched:  match.Matched,
		Score:    match.Score,
	}

	if match.Matched && s.tokens != nil {
		signed, err := s.tokens.Mint(identity, match.Score)
		if err != nil {
			s.logger.ErrorContext(ctx, "voice-session token mint failed", "identity", identity, "error", err)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session token")
		}
		result.Token = signed
	}

	outcome := "no_match"
	if match.Matched {
		outcome = "match"
	}
	s.logger.InfoContext(ctx, "verification completed",
		"identity", identity,
		"matched", match.Matched,
		"score", match.Score,
	)
	if s.metrics != nil {
		s.metrics.IncrementVerifications(outcome)
		s.metrics.ObserveMatchScore(match.Score)
	}

	return result, nil
}
