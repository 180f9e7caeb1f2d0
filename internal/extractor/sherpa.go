package extractor

import (
	"context"
	"fmt"
	"os"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"voxgate/internal/audio"
	"voxgate/internal/voiceprint/models"
)

// SherpaEmbedder computes speaker embeddings with a sherpa-onnx model
// (WeSpeaker or 3D-Speaker ONNX exports).
type SherpaEmbedder struct {
	mu sync.Mutex // sherpa streams are not safe for concurrent compute
	ex *sherpa.SpeakerEmbeddingExtractor
}

// NewSherpaEmbedder loads the speaker embedding model at modelPath.
func NewSherpaEmbedder(modelPath string, numThreads int) (*SherpaEmbedder, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("embedding model not found: %s", modelPath)
	}
	if numThreads <= 0 {
		numThreads = 1
	}

	config := sherpa.SpeakerEmbeddingExtractorConfig{
		Model:      modelPath,
		NumThreads: numThreads,
		Provider:   "cpu",
	}

	ex := sherpa.NewSpeakerEmbeddingExtractor(&config)
	if ex == nil {
		return nil, fmt.Errorf("failed to create sherpa-onnx embedding extractor from %s", modelPath)
	}

	return &SherpaEmbedder{ex: ex}, nil
}

// Dim returns the model's embedding dimension.
func (e *SherpaEmbedder) Dim() int {
	return e.ex.Dim()
}

// Embed computes the speaker embedding for a decoded clip.
func (e *SherpaEmbedder) Embed(_ context.Context, wf audio.Waveform) (models.Voiceprint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stream := e.ex.CreateStream()
	defer sherpa.DeleteOnlineStream(stream)

	stream.AcceptWaveform(wf.SampleRate, wf.Samples)
	stream.InputFinished()

	if !e.ex.IsReady(stream) {
		return nil, fmt.Errorf("clip too short for embedding model")
	}

	emb := e.ex.Compute(stream)
	if len(emb) == 0 {
		return nil, fmt.Errorf("embedding computation returned no output")
	}

	print := make(models.Voiceprint, len(emb))
	for i, v := range emb {
		print[i] = float64(v)
	}
	return print, nil
}

// Close releases the underlying sherpa-onnx extractor.
func (e *SherpaEmbedder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ex != nil {
		sherpa.DeleteSpeakerEmbeddingExtractor(e.ex)
		e.ex = nil
	}
}
