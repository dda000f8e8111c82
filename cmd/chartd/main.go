package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/station-bubble-chart/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/station-bubble-chart/internal/adapter/kafka"
	"github.com/couchcryptid/station-bubble-chart/internal/chart"
	"github.com/couchcryptid/station-bubble-chart/internal/config"
	"github.com/couchcryptid/station-bubble-chart/internal/observability"
	"github.com/couchcryptid/station-bubble-chart/internal/pipeline"
	"github.com/couchcryptid/station-bubble-chart/internal/session"
	"github.com/couchcryptid/station-bubble-chart/internal/source"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	defaults, err := cfg.Selection()
	if err != nil {
		logger.Error("invalid default selection", "error", err)
		os.Exit(1)
	}

	src, path, closeSrc, err := openSource(cfg, logger)
	if err != nil {
		logger.Error("failed to open data source", "source", cfg.DataSource, "error", err)
		os.Exit(1)
	}
	defer closeSrc()

	// Frame publishing is feature-flagged via KAFKA_ENABLED.
	var publisher session.Publisher
	var framePublisher *kafkaadapter.FramePublisher
	if cfg.KafkaEnabled {
		framePublisher = kafkaadapter.NewFramePublisher(cfg, clock, logger, metrics)
		publisher = framePublisher
		logger.Info("frame publishing enabled", "topic", cfg.KafkaFramesTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("frame publishing disabled")
	}

	opts := chart.Options{
		Canvas:         chart.Canvas{Width: cfg.ChartWidth, Height: cfg.ChartHeight},
		SizeKind:       chart.ScaleKind(cfg.SizeScale),
		Duration:       cfg.TransitionDuration,
		PreferredState: chart.DefaultOptions().PreferredState,
	}
	factory := session.NewFactory(defaults, opts, clock, publisher, logger, metrics)
	manager := session.NewManager(factory, cfg.MaxSessions, logger, metrics)

	loader := pipeline.New(src, path, factory, clock, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.NewHandler(manager, logger), loader, httpadapter.Options{
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server. /readyz reports 503 until the dataset is loaded.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Load the dataset, retrying until the source answers.
	go func() {
		if err := loader.Run(ctx); err != nil {
			logger.Error("dataset pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if framePublisher != nil {
		if err := framePublisher.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// openSource returns the configured table source and the path to fetch.
func openSource(cfg *config.Config, logger *slog.Logger) (chart.TableSource, string, func(), error) {
	noop := func() {}
	switch cfg.DataSource {
	case config.SourceFile:
		return source.File{}, cfg.DataPath, noop, nil
	case config.SourceHTTP:
		return source.NewHTTP(cfg.DataBaseURL, cfg.FetchTimeout, logger), cfg.DataPath, noop, nil
	case config.SourceSQLite:
		db, err := source.OpenSQLite(cfg.SQLitePath, cfg.SQLiteTable)
		if err != nil {
			return nil, "", noop, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				logger.Error("sqlite close error", "error", err)
			}
		}
		return db, "", closeDB, nil
	default:
		return nil, "", noop, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}
}
