package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voxgate/internal/audio"
	"voxgate/internal/extractor"
	"voxgate/internal/platform/config"
	"voxgate/internal/platform/database"
	"voxgate/internal/platform/health"
	"voxgate/internal/platform/logger"
	"voxgate/internal/platform/middleware"
	"voxgate/internal/token"
	"voxgate/internal/voiceprint/handler"
	"voxgate/internal/voiceprint/match"
	"voxgate/internal/voiceprint/metrics"
	"voxgate/internal/voiceprint/service"
	"voxgate/internal/voiceprint/store"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing voxgate",
		"addr", cfg.Addr,
		"match_threshold", cfg.MatchThreshold,
		"environment", cfg.Environment,
	)

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	var registry service.Registry
	if pool != nil {
		registry = store.NewPostgres(pool.DB())
		log.Info("using postgres voiceprint store")
	} else {
		registry = store.NewInMemory()
		log.Info("using in-memory voiceprint store")
	}

	validator := audio.NewValidator(cfg.MaxUploadBytes, cfg.MaxDurationSeconds)

	ext := extractor.New(
		func() (extractor.Embedder, error) {
			return extractor.NewSherpaEmbedder(cfg.EmbeddingModelPath, runtime.NumCPU())
		},
		extractor.WithDurationPolicy(validator),
		extractor.WithTimeout(cfg.ExtractTimeout),
		extractor.WithLogger(log),
	)

	tokens := token.New(cfg.JWTSigningKey, "voxgate", cfg.TokenTTL)

	svc := service.New(
		registry,
		ext,
		match.NewEngine(cfg.MatchThreshold),
		validator,
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
		service.WithTokenMinter(tokens),
	)

	h := handler.New(svc, log, cfg.MaxUploadBytes)

	healthHandler := health.New(cfg.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("database", pool.Health)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(cfg.ExtractTimeout + 15*time.Second))
	// Slack over the upload cap covers multipart framing overhead; the exact
	// limit is enforced by the service against the audio part itself.
	r.Use(middleware.MaxBytes(cfg.MaxUploadBytes + 1<<20))

	h.Register(r)
	h.RegisterAdmin(r)
	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	if pool != nil {
		if err := pool.Close(); err != nil {
			log.Error("closing database pool", "error", err)
		}
	}

	log.Info("server stopped")
}
