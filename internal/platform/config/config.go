package config

import (
	"os"
	"strconv"
	"time"
)

// Defaults for the voiceprint pipeline. Upload and duration caps bound
// resource use before the expensive embedding step runs.
const (
	DefaultMaxUploadBytes     = 5_000_000
	DefaultMaxDurationSeconds = 10.0
	DefaultMatchThreshold     = 0.85
	DefaultExtractTimeout     = 15 * time.Second
	DefaultTokenTTL           = 5 * time.Minute
)

// Server captures process-level configuration for the voice gateway.
type Server struct {
	Addr               string
	MaxUploadBytes     int64
	MaxDurationSeconds float64
	MatchThreshold     float64
	ExtractTimeout     time.Duration
	EmbeddingModelPath string
	DatabaseURL        string
	JWTSigningKey      string
	TokenTTL           time.Duration
	Environment        string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:               getString("VOXGATE_ADDR", ":8080"),
		MaxUploadBytes:     getInt64("VOXGATE_MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		MaxDurationSeconds: getFloat("VOXGATE_MAX_DURATION_SECONDS", DefaultMaxDurationSeconds),
		MatchThreshold:     getFloat("VOXGATE_MATCH_THRESHOLD", DefaultMatchThreshold),
		ExtractTimeout:     getDuration("VOXGATE_EXTRACT_TIMEOUT", DefaultExtractTimeout),
		EmbeddingModelPath: os.Getenv("VOXGATE_EMBEDDING_MODEL"),
		DatabaseURL:        os.Getenv("VOXGATE_DATABASE_URL"),
		JWTSigningKey:      getString("VOXGATE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:           getDuration("VOXGATE_TOKEN_TTL", DefaultTokenTTL),
		Environment:        getString("VOXGATE_ENV", "dev"),
	}
	return cfg
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
