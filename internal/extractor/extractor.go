// Package extractor wraps the external decode and embedding capabilities
// behind the core's error taxonomy.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"voxgate/internal/audio"
	"voxgate/internal/voiceprint/models"
)

// Embedder turns a decoded waveform into a fixed-dimension vector.
// Implementations may be expensive to construct (model load); the adapter
// defers construction until the first extraction.
type Embedder interface {
	Embed(ctx context.Context, wf audio.Waveform) (models.Voiceprint, error)
	Dim() int
}

// DurationPolicy gates a decoded clip's length before embedding runs.
// The adapter itself never decides pass/fail; it propagates the policy's
// rejection verbatim. MaxDurationSeconds also caps how much PCM the decoder
// may materialize from a compressed container.
type DurationPolicy interface {
	CheckDuration(seconds float64) error
	MaxDurationSeconds() float64
}

// Result carries the voiceprint plus decode metadata.
type Result struct {
	Print      models.Voiceprint
	Duration   float64
	SampleRate int
}

// Adapter sequences decode -> duration gate -> embed.
//
// It is stateless across requests and safe for concurrent use. The embedder
// is initialized exactly once, on first use, behind a sync.Once barrier so
// concurrent first callers block instead of racing to load the model. Heavy
// embedding work is bounded by a weighted semaphore and a per-extraction
// wall-clock budget; neither is held during registry access.
type Adapter struct {
	newEmbedder func() (Embedder, error)
	duration    DurationPolicy
	sem         *semaphore.Weighted
	timeout     time.Duration
	logger      *slog.Logger

	initOnce sync.Once
	embedder Embedder
	initErr  error
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithDurationPolicy installs the post-decode duration gate.
func WithDurationPolicy(p DurationPolicy) Option {
	return func(a *Adapter) { a.duration = p }
}

// WithMaxConcurrent bounds the number of in-flight embedding computations.
func WithMaxConcurrent(n int64) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.sem = semaphore.NewWeighted(n)
		}
	}
}

// WithTimeout sets the wall-clock budget for a single extraction.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the adapter's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) { a.logger = logger }
}

const (
	defaultMaxConcurrent = 4
	defaultTimeout       = 15 * time.Second
)

// New creates an Adapter. newEmbedder runs at most once, on the first
// extraction.
func New(newEmbedder func() (Embedder, error), opts ...Option) *Adapter {
	a := &Adapter{
		newEmbedder: newEmbedder,
		sem:         semaphore.NewWeighted(defaultMaxConcurrent),
		timeout:     defaultTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Extract decodes raw audio and computes its voiceprint.
//
// Failures are caller-input problems or faults needing operator attention,
// never transient: the adapter does not retry. Decode failures surface the
// audio package's invalid-format sentinel; a blown wall-clock budget surfaces
// context.DeadlineExceeded.
func (a *Adapter) Extract(ctx context.Context, raw []byte) (Result, error) {
	// The wall-clock budget covers the whole pipeline, decode included.
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var maxSeconds float64
	if a.duration != nil {
		maxSeconds = a.duration.MaxDurationSeconds()
	}

	wf, err := audio.Decode(raw, maxSeconds)
	if err != nil {
		return Result{}, fmt.Errorf("decode: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("decode: %w", err)
	}

	res := Result{Duration: wf.Duration(), SampleRate: wf.SampleRate}

	if a.duration != nil {
		if err := a.duration.CheckDuration(res.Duration); err != nil {
			return Result{}, err
		}
	}

	emb, err := a.getEmbedder()
	if err != nil {
		return Result{}, fmt.Errorf("embedder init: %w", err)
	}

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return Result{}, fmt.Errorf("embedding queue: %w", err)
	}

	print, err := a.embedWithDeadline(ctx, emb, wf)
	if err != nil {
		return Result{}, err
	}

	res.Print = print
	return res, nil
}

// getEmbedder performs the exactly-once lazy model load.
func (a *Adapter) getEmbedder() (Embedder, error) {
	a.initOnce.Do(func() {
		start := time.Now()
		a.embedder, a.initErr = a.newEmbedder()
		if a.initErr != nil {
			a.logger.Error("embedder initialization failed", "error", a.initErr)
			return
		}
		a.logger.Info("embedder initialized",
			"dim", a.embedder.Dim(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
	return a.embedder, a.initErr
}

// embedWithDeadline runs the embedding computation and abandons it if the
// context expires first. The computation itself is not cancelable, so an
// abandoned run finishes in the background; the caller gets a timeout
// instead of blocking unboundedly. The worker goroutine owns the semaphore
// slot, so the concurrency bound holds even while an abandoned run drains.
func (a *Adapter) embedWithDeadline(ctx context.Context, emb Embedder, wf audio.Waveform) (models.Voiceprint, error) {
	type outcome struct {
		print models.Voiceprint
		err   error
	}

	ch := make(chan outcome, 1)
	go func() {
		defer a.sem.Release(1)
		print, err := emb.Embed(ctx, wf)
		ch <- outcome{print: print, err: err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			return nil, fmt.Errorf("embed: %w", out.err)
		}
		return out.print, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("embed: %w", ctx.Err())
	}
}
