package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"privacy-chat/internal/config"
	"privacy-chat/internal/detector"
	"privacy-chat/internal/facematch"
	"privacy-chat/internal/hub"
	"privacy-chat/internal/repository"
	"privacy-chat/internal/server"
	"privacy-chat/internal/validator"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Load configuration
	cfgPath := "configs/config.yml"
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Capability provider clients
	detectorClient := detector.NewClient(cfg.Detector.URL)
	faceClient := facematch.NewClient(cfg.FaceMatcher.URL, logger)

	// Frames judged before the sidecar is up come back as error
	// verdicts, so an unreachable service is only worth a warning.
	if health, err := detectorClient.HealthCheck(ctx); err != nil {
		logger.Warn("Detection service not reachable", zap.Error(err))
	} else if !health.ModelLoaded {
		logger.Warn("Detection service model not loaded", zap.String("status", health.Status))
	}

	// The authorized face set is loaded once and read-only afterwards.
	faceSet, err := facematch.LoadAuthorizedSet(ctx, cfg.FaceMatcher.FacesDir, faceClient, logger)
	if err != nil {
		logger.Fatal("Failed to load authorized faces", zap.Error(err))
	}
	logger.Info("Authorized faces loaded", zap.Int("count", faceSet.Size()))

	// Frame validator and its worker pool
	v := validator.NewValidator(detectorClient, faceClient, faceSet, validator.Options{
		ConfidenceThreshold: cfg.Validation.ConfidenceThreshold,
		FaceTolerance:       cfg.Validation.FaceTolerance,
		ViolatingObjects:    cfg.Validation.ViolatingObjects,
	}, logger)

	pool := validator.NewPool(v, cfg.Validation.Workers, logger)
	pool.Start(ctx)

	// Session/broadcast coordinator
	h := hub.NewHub(logger)

	// Run the server until the shutdown signal arrives, then let the
	// workers finish their in-flight frames.
	srv := server.NewServer(db, h, pool, cfg.Validation.RequireSingleDefault, logger)
	srv.Run(ctx, cfg.Server.Port)

	pool.Wait()
	logger.Info("Application stopped.")
}
