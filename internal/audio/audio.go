// Package audio validates and decodes uploaded voice samples.
//
// Decoding yields a mono float32 waveform in [-1, 1] plus the source sample
// rate. WAV (PCM 16-bit) and MP3 containers are supported; anything else is
// rejected as an invalid format before the embedding model ever runs.
package audio

import (
	"bytes"
	"fmt"

	"voxgate/internal/sentinel"
)

// Waveform is a decoded audio clip.
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the clip length in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Validator enforces size and duration caps on uploads. It is a pure gate:
// no side effects, no decoding.
type Validator struct {
	maxBytes           int64
	maxDurationSeconds float64
}

// NewValidator creates a validator with the given caps.
func NewValidator(maxBytes int64, maxDurationSeconds float64) *Validator {
	return &Validator{maxBytes: maxBytes, maxDurationSeconds: maxDurationSeconds}
}

// CheckSize rejects uploads whose declared size exceeds the configured cap.
// It runs before any decoding so oversized payloads cost nothing.
func (v *Validator) CheckSize(declaredBytes int64) error {
	if declaredBytes > v.maxBytes {
		return fmt.Errorf("upload of %d bytes exceeds cap of %d: %w",
			declaredBytes, v.maxBytes, sentinel.ErrTooLarge)
	}
	return nil
}

// MaxDurationSeconds returns the configured duration cap.
func (v *Validator) MaxDurationSeconds() float64 {
	return v.maxDurationSeconds
}

// CheckDuration rejects decoded clips longer than the configured cap.
// Duration is unknowable before decode, so this gate runs after decoding
// but before the expensive embedding step.
func (v *Validator) CheckDuration(seconds float64) error {
	if seconds > v.maxDurationSeconds {
		return fmt.Errorf("clip of %.1fs exceeds cap of %.1fs: %w",
			seconds, v.maxDurationSeconds, sentinel.ErrTooLong)
	}
	return nil
}

var (
	riffMagic = []byte("RIFF")
	id3Magic  = []byte("ID3")
)

// Decode sniffs the container from magic bytes and decodes to a mono waveform.
// Unrecognized or corrupt payloads return sentinel.ErrInvalidFormat.
//
// maxSeconds bounds how much PCM a compressed container may decode to; clips
// past the cap return sentinel.ErrTooLong without being fully materialized.
// Zero means no cap.
func Decode(raw []byte, maxSeconds float64) (Waveform, error) {
	switch {
	case len(raw) >= 12 && bytes.HasPrefix(raw, riffMagic):
		return decodeWAV(raw)
	case len(raw) >= 3 && (bytes.HasPrefix(raw, id3Magic) || isMP3FrameSync(raw)):
		return decodeMP3(raw, maxSeconds)
	default:
		return Waveform{}, fmt.Errorf("unrecognized container: %w", sentinel.ErrInvalidFormat)
	}
}

// isMP3FrameSync reports whether raw starts with an MPEG audio frame sync
// (11 set bits), the layout of header-less MP3 streams.
func isMP3FrameSync(raw []byte) bool {
	return len(raw) >= 2 && raw[0] == 0xFF && raw[1]&0xE0 == 0xE0
}
