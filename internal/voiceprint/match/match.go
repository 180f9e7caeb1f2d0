// Package match scores a candidate voiceprint against a stored one.
package match

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"voxgate/internal/sentinel"
	"voxgate/internal/voiceprint/models"
)

// Engine applies cosine similarity with a configured decision threshold.
// It is pure and deterministic: no I/O, no state beyond the threshold.
type Engine struct {
	threshold float64
}

// NewEngine creates a match engine. The threshold is a configuration value;
// a score must strictly exceed it to count as a match.
func NewEngine(threshold float64) *Engine {
	return &Engine{threshold: threshold}
}

// Threshold returns the configured decision threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Compare computes the cosine similarity of stored and candidate and applies
// the threshold. A length disagreement is a data-integrity failure (the
// extractor changed between enrollment and verification), never a score of 0.
func (e *Engine) Compare(stored, candidate models.Voiceprint) (models.MatchResult, error) {
	if stored.Dim() != candidate.Dim() {
		return models.MatchResult{}, fmt.Errorf(
			"stored dim %d vs candidate dim %d: %w",
			stored.Dim(), candidate.Dim(), sentinel.ErrDimensionMismatch)
	}

	score := cosineSimilarity(stored, candidate)
	return models.MatchResult{
		Matched: score > e.threshold,
		Score:   score,
	}, nil
}

// cosineSimilarity returns the normalized dot product in [-1, 1].
// A zero-magnitude vector yields 0.
func cosineSimilarity(a, b models.Voiceprint) float64 {
	if len(a) == 0 {
		return 0
	}
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}
