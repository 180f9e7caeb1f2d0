package sentinel

import "errors"

// Sentinel dependency errors. Dependencies should return these (optionally wrapped)
// so services can translate them into domain errors exactly once.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidFormat     = errors.New("invalid audio format")
	ErrTooLarge          = errors.New("upload too large")
	ErrTooLong           = errors.New("audio too long")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrUnavailable       = errors.New("unavailable")
)
