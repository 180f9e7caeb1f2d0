package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"voxgate/internal/sentinel"
)

// decodeWAV parses a RIFF/WAVE container with 16-bit PCM samples.
// Multi-channel audio is downmixed to mono by averaging channels.
func decodeWAV(raw []byte) (Waveform, error) {
	r := bytes.NewReader(raw)

	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return Waveform{}, fmt.Errorf("truncated RIFF header: %w", sentinel.ErrInvalidFormat)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return Waveform{}, fmt.Errorf("not a WAVE file: %w", sentinel.ErrInvalidFormat)
	}

	var (
		channels      uint16
		sampleRate    uint32
		bitsPerSample uint16
		haveFmt       bool
	)

	// Walk chunks; fmt must precede data.
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return Waveform{}, fmt.Errorf("no data chunk: %w", sentinel.ErrInvalidFormat)
		}
		chunkID := string(hdr[0:4])
		chunkSize := binary.LittleEndian.Uint32(hdr[4:8])

		switch chunkID {
		case "fmt ":
			var f struct {
				AudioFormat   uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if chunkSize < 16 {
				return Waveform{}, fmt.Errorf("fmt chunk too small: %w", sentinel.ErrInvalidFormat)
			}
			if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
				return Waveform{}, fmt.Errorf("truncated fmt chunk: %w", sentinel.ErrInvalidFormat)
			}
			if f.AudioFormat != 1 {
				return Waveform{}, fmt.Errorf("unsupported WAV encoding %d: %w", f.AudioFormat, sentinel.ErrInvalidFormat)
			}
			if f.BitsPerSample != 16 || f.Channels == 0 || f.SampleRate == 0 {
				return Waveform{}, fmt.Errorf("unsupported WAV layout: %w", sentinel.ErrInvalidFormat)
			}
			channels, sampleRate, bitsPerSample = f.Channels, f.SampleRate, f.BitsPerSample
			haveFmt = true
			if skip := int64(chunkSize) - 16; skip > 0 {
				if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
					return Waveform{}, fmt.Errorf("truncated fmt chunk: %w", sentinel.ErrInvalidFormat)
				}
			}

		case "data":
			if !haveFmt {
				return Waveform{}, fmt.Errorf("data chunk before fmt: %w", sentinel.ErrInvalidFormat)
			}
			// The declared chunk size is untrusted input; allocating it
			// blindly would let a tiny payload demand gigabytes.
			if int64(chunkSize) > int64(r.Len()) {
				return Waveform{}, fmt.Errorf("data chunk claims %d bytes, %d remain: %w",
					chunkSize, r.Len(), sentinel.ErrInvalidFormat)
			}
			data := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, data); err != nil {
				return Waveform{}, fmt.Errorf("truncated data chunk: %w", sentinel.ErrInvalidFormat)
			}
			return pcm16ToMono(data, int(channels), int(sampleRate), int(bitsPerSample))

		default:
			// Skip unknown chunks (LIST, fact, ...). Chunks are word-aligned.
			skip := int64(chunkSize)
			if chunkSize%2 == 1 {
				skip++
			}
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return Waveform{}, fmt.Errorf("truncated chunk %q: %w", chunkID, sentinel.ErrInvalidFormat)
			}
		}
	}
}

// pcm16ToMono converts interleaved 16-bit PCM to a mono float32 waveform.
func pcm16ToMono(data []byte, channels, sampleRate, bitsPerSample int) (Waveform, error) {
	bytesPerSample := bitsPerSample / 8
	frameSize := bytesPerSample * channels
	if frameSize == 0 || len(data)%frameSize != 0 {
		return Waveform{}, fmt.Errorf("PCM data not frame-aligned: %w", sentinel.ErrInvalidFormat)
	}

	frames := len(data) / frameSize
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			off := i*frameSize + c*bytesPerSample
			s := int16(binary.LittleEndian.Uint16(data[off : off+2]))
			sum += float32(s) / 32768.0
		}
		samples[i] = sum / float32(channels)
	}

	return Waveform{Samples: samples, SampleRate: sampleRate}, nil
}
