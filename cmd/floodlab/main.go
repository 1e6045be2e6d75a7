package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/lyon-flood-lab/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/lyon-flood-lab/internal/adapter/kafka"
	"github.com/couchcryptid/lyon-flood-lab/internal/adapter/roi"
	"github.com/couchcryptid/lyon-flood-lab/internal/config"
	"github.com/couchcryptid/lyon-flood-lab/internal/domain"
	"github.com/couchcryptid/lyon-flood-lab/internal/lab"
	"github.com/couchcryptid/lyon-flood-lab/internal/observability"
	"github.com/couchcryptid/lyon-flood-lab/internal/pipeline"
	"github.com/couchcryptid/lyon-flood-lab/internal/presets"
	"github.com/joho/godotenv"
)

func main() {
	// Local overrides are optional.
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	set, err := presets.Load(cfg.PresetsFile)
	if err != nil {
		logger.Error("failed to load presets", "error", err)
		os.Exit(1)
	}

	// Remote ROI estimates are feature-flagged via ROI_ENABLED / ROI_URL.
	var estimator domain.ROIEstimator
	if cfg.ROIEnabled {
		client := roi.NewClient(cfg.ROIURL, cfg.ROITimeout, cfg.ROIRateLimit, metrics, logger)
		estimator = roi.NewCachedEstimator(client, cfg.ROICacheSize, metrics)
		logger.Info("remote roi estimation enabled",
			"url", cfg.ROIURL,
			"cache_size", cfg.ROICacheSize,
			"timeout", cfg.ROITimeout,
			"rate_limit", cfg.ROIRateLimit,
		)
	} else {
		logger.Info("remote roi estimation disabled, using local estimates")
	}

	l := lab.New(lab.Options{
		DefaultSeed:      cfg.DefaultSeed,
		DatasetCacheSize: cfg.DatasetCacheSize,
		PlaybackInterval: cfg.PlaybackInterval,
		PlaybackStepCm:   cfg.PlaybackStepCm,
		Estimator:        estimator,
	}, logger, metrics)
	l.Warm()

	srv := httpadapter.NewServer(cfg.HTTPAddr, l, set, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		done   = make(chan struct{})
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p := pipeline.New(reader, pipeline.NewTransformer(l, logger), writer, logger, metrics, cfg.BatchSize)

		go func() {
			defer close(done)
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		close(done)
		logger.Info("kafka batch evaluation disabled")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
