package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"

	"voxgate/internal/sentinel"
)

// mp3FrameSlack is a few Layer III frames (1152 samples, 4 bytes each in the
// decoder's stereo output) of tolerance past the duration cap, so a clip
// sitting exactly on the cap is not rejected on frame-boundary rounding.
const mp3FrameSlack = 4 * 1152 * 4

// decodeMP3 decodes an MP3 payload to a mono waveform.
// go-mp3 always emits 16-bit stereo PCM; the two channels are averaged.
//
// A compressed payload can pass the upload size gate yet decode to hours of
// PCM, so when maxSeconds > 0 decoding stops a little past the cap and the
// clip is rejected as too long instead of being materialized in full.
func decodeMP3(raw []byte, maxSeconds float64) (Waveform, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(raw))
	if err != nil {
		return Waveform{}, fmt.Errorf("mp3 decode: %w", sentinel.ErrInvalidFormat)
	}

	var pcm []byte
	if maxSeconds > 0 {
		limit := int64(maxSeconds*float64(dec.SampleRate()))*4 + mp3FrameSlack
		pcm, err = io.ReadAll(io.LimitReader(dec, limit+1))
		if err == nil && int64(len(pcm)) > limit {
			return Waveform{}, fmt.Errorf("clip decodes past the %.1fs cap: %w",
				maxSeconds, sentinel.ErrTooLong)
		}
	} else {
		pcm, err = io.ReadAll(dec)
	}
	if err != nil {
		return Waveform{}, fmt.Errorf("mp3 decode: %w", sentinel.ErrInvalidFormat)
	}

	// 4 bytes per frame: left int16 + right int16.
	frames := len(pcm) / 4
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		l := int16(binary.LittleEndian.Uint16(pcm[i*4 : i*4+2]))
		r := int16(binary.LittleEndian.Uint16(pcm[i*4+2 : i*4+4]))
		samples[i] = (float32(l) + float32(r)) / 2 / 32768.0
	}

	return Waveform{Samples: samples, SampleRate: dec.SampleRate()}, nil
}
