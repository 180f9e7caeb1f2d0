// Package service orchestrates enrollment and verification: it sequences the
// validator, extractor, registry, and match engine, and translates their
// outcomes into domain errors exactly once.
package service

import (
	"context"
	"io"
	"log/slog"

	"voxgate/internal/extractor"
	"voxgate/internal/voiceprint/metrics"
	"voxgate/internal/voiceprint/models"
)

// Registry is the persistence interface for voiceprints.
// Error contract: Get and Delete return store.ErrNotFound for unknown
// identities; Put returns store.ErrDimensionMismatch on dimension drift.
type Registry interface {
	Put(ctx context.Context, identity string, print models.Voiceprint) (*models.Entry, error)
	Get(ctx context.Context, identity string) (*models.Entry, error)
	Delete(ctx context.Context, identity string) error
	Count(ctx context.Context) (int, error)
}

// Extractor converts raw audio into a voiceprint plus decode metadata.
type Extractor interface {
	Extract(ctx context.Context, raw []byte) (extractor.Result, error)
}

// Matcher scores a candidate voiceprint against a stored one.
type Matcher interface {
	Compare(stored, candidate models.Voiceprint) (models.MatchResult, error)
}

// SizePolicy gates an upload's declared size before any decoding work.
type SizePolicy interface {
	CheckSize(declaredBytes int64) error
}

// TokenMinter issues a voice-session credential for a matched identity.
type TokenMinter interface {
	Mint(identity string, score float64) (string, error)
}

// Service implements the enrollment and verification flows. Each request is
// stateless end to end except for the registry side effect on enrollment.
type Service struct {
	registry  Registry
	extractor Extractor
	matcher   Matcher
	sizer     SizePolicy
	tokens    TokenMinter
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics installs Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTokenMinter enables voice-session tokens on successful verification.
func WithTokenMinter(t TokenMinter) Option {
	return func(s *Service) { s.tokens = t }
}

// New creates the orchestrator service.
func New(registry Registry, ext Extractor, matcher Matcher, sizer SizePolicy, opts ...Option) *Service {
	s := &Service{
		registry:  registry,
		extractor: ext,
		matcher:   matcher,
		sizer:     sizer,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
