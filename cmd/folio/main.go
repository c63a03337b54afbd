package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/statementworks/folio/internal/artifact"
	"github.com/statementworks/folio/internal/config"
	"github.com/statementworks/folio/internal/database"
	"github.com/statementworks/folio/internal/domain"
	"github.com/statementworks/folio/internal/modules/classifier"
	"github.com/statementworks/folio/internal/modules/enrichment"
	"github.com/statementworks/folio/internal/pipeline"
	"github.com/statementworks/folio/internal/scheduler"
	"github.com/statementworks/folio/pkg/logger"
)

func main() {
	// Load configuration first so the logger gets the configured level
	cfg, err := config.Load()
	if err != nil {
		bootstrap := logger.New(logger.Config{Level: "info", Pretty: true})
		bootstrap.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting folio")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	cache, err := enrichment.NewCache(db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load enrichment cache")
	}

	enricher, err := buildEnricher(cfg, cache, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize enrichment")
	}

	job := &runJob{
		cfg:    cfg,
		pipe:   pipeline.New(classifier.DefaultRules(), enricher, log),
		writer: artifact.NewWriter(cfg.ArtifactDir, log),
		cache:  cache,
		log:    log,
	}

	if cfg.S3Bucket != "" {
		uploader, err := artifact.NewS3Uploader(context.Background(), cfg.S3Bucket, cfg.S3Region, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 uploader")
		}
		job.uploader = uploader
	}

	// No schedule: one pass and exit
	if cfg.Schedule == "" {
		if err := job.Run(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Run failed")
		}
		return
	}

	sched := scheduler.New(30*time.Minute, log)
	if err := sched.AddJob(cfg.Schedule, job); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Schedule).Msg("Failed to register job")
	}
	sched.Start()
	defer sched.Stop()

	log.Info().Str("schedule", cfg.Schedule).Msg("Running on schedule")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	if err := cache.Flush(); err != nil {
		log.Error().Err(err).Msg("Failed to flush enrichment cache")
	}
}

// buildEnricher assembles the source chain. Without a Gemini key the
// chain is quote-only; with enrichment disabled it is nil and the
// pipeline skips the stage.
func buildEnricher(cfg *config.Config, cache *enrichment.Cache, log zerolog.Logger) (pipeline.Enricher, error) {
	if !cfg.EnrichmentEnabled {
		log.Info().Msg("Enrichment disabled")
		return nil, nil
	}

	sources := []enrichment.Source{
		enrichment.NewQuoteSource(cfg.QuoteBaseURL, log),
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := enrichment.NewGeminiSource(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini source: %w", err)
		}
		sources = append(sources, gemini)
	}

	return enrichment.NewService(cache, log, sources,
		enrichment.WithWorkers(cfg.EnrichWorkers),
		enrichment.WithRateLimit(cfg.EnrichRateLimit),
		enrichment.WithTimeout(time.Duration(cfg.EnrichTimeoutSecs)*time.Second),
		enrichment.WithThreshold(cfg.EnrichThreshold),
	), nil
}

// runJob reads the input document, runs one pipeline pass and persists
// the artifact.
type runJob struct {
	cfg      *config.Config
	pipe     *pipeline.Pipeline
	writer   *artifact.Writer
	uploader *artifact.S3Uploader
	cache    *enrichment.Cache
	log      zerolog.Logger
}

func (j *runJob) Name() string { return "portfolio_run" }

func (j *runJob) Run(ctx context.Context) error {
	data, err := os.ReadFile(j.cfg.InputPath)
	if err != nil {
		return fmt.Errorf("failed to read input %s: %w", j.cfg.InputPath, err)
	}

	var input domain.Input
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to parse input %s: %w", j.cfg.InputPath, err)
	}

	result, err := j.pipe.Run(ctx, input)
	if err != nil {
		return err
	}

	path, err := j.writer.Write(result)
	if err != nil {
		return err
	}

	if j.uploader != nil {
		if _, err := j.uploader.Upload(ctx, path); err != nil {
			// The local artifact exists; a failed mirror is not fatal
			j.log.Error().Err(err).Str("path", path).Msg("S3 upload failed")
		}
	}

	return j.cache.Flush()
}
