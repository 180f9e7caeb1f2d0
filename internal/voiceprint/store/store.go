// Package store defines the identity registry contract: the keyed store of
// voiceprints with one active voiceprint per identity.
package store

import (
	"context"

	"voxgate/internal/sentinel"
	"voxgate/internal/voiceprint/models"
)

// ErrNotFound is returned when no voiceprint is enrolled for an identity.
var ErrNotFound = sentinel.ErrNotFound

// ErrDimensionMismatch is returned when a voiceprint's length disagrees with
// the dimension pinned by the first successful enrollment.
var ErrDimensionMismatch = sentinel.ErrDimensionMismatch

// Registry is the persistence contract for voiceprints.
//
// Implementations must guarantee per-identity linearizability: a Get observes
// either the prior complete voiceprint or the new complete one, never a
// mixture, and concurrent Puts for the same identity resolve last-writer-wins
// with no interleaving of partial writes. Different identities must not block
// each other behind long-running work.
//
// Error contract: Get and Delete return ErrNotFound (optionally wrapped) for
// unknown identities; Put returns ErrDimensionMismatch when the voiceprint
// length disagrees with the registry's pinned dimension.
type Registry interface {
	Put(ctx context.Context, identity string, print models.Voiceprint) (*models.Entry, error)
	Get(ctx context.Context, identity string) (*models.Entry, error)
	Delete(ctx context.Context, identity string) error
	Count(ctx context.Context) (int, error)
}
