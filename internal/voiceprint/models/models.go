// Package models defines the voiceprint domain types shared by the
// registry, match engine, service, and transport layers.
package models

import "time"

// Voiceprint is a fixed-length speaker embedding. Its length is pinned by
// the extractor's output dimension and validated on every registry write.
// A stored voiceprint is immutable; re-enrollment replaces it wholesale.
type Voiceprint []float64

// Dim returns the embedding dimension.
func (v Voiceprint) Dim() int {
	return len(v)
}

// Clone returns an independent copy so callers can never alias stored state.
func (v Voiceprint) Clone() Voiceprint {
	if v == nil {
		return nil
	}
	out := make(Voiceprint, len(v))
	copy(out, v)
	return out
}

// Entry associates an identity with its single active voiceprint.
// UpdatedAt increases monotonically across overwrites of the same identity
// and exists for audit purposes only.
type Entry struct {
	Identity  string
	Print     Voiceprint
	UpdatedAt time.Time
}

// MatchResult is the outcome of comparing a candidate voiceprint against a
// stored one. It is never persisted.
type MatchResult struct {
	Identity string
	Matched  bool
	Score    float64
}

// EnrollResult reports a completed enrollment.
type EnrollResult struct {
	Identity  string
	UpdatedAt time.Time
}

// VerifyResult reports a completed verification. Token is set only when the
// candidate matched the enrolled voiceprint.
type VerifyResult struct {
	Identity string
	Matched  bool
	Score    float64
	Token    string
}
