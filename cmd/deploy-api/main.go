package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/labdeploy/internal/api"
	"github.com/edvin/labdeploy/internal/config"
	"github.com/edvin/labdeploy/internal/core"
	"github.com/edvin/labdeploy/internal/db"
	"github.com/edvin/labdeploy/internal/eventbus"
	"github.com/edvin/labdeploy/internal/logging"
	"github.com/edvin/labdeploy/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.EnsureSchema(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure database schema")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(prometheus.DefaultRegisterer, pool)

	publisher, closePublisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.EventBusBackend).Msg("failed to set up event bus")
	}
	defer closePublisher()

	services := core.NewServices(pool, publisher, core.DeploymentServiceConfig{
		Source:         cfg.EventSource,
		DetailType:     cfg.EventDetailType,
		PublishTimeout: cfg.PublishTimeout,
		StoreTimeout:   cfg.StoreTimeout,
	}, logger)

	srv := api.NewServer(logger, services.Deployment, pool, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting deploy API server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

// newPublisher builds the event bus publisher for the configured backend. The
// returned close func releases the backend's connection.
func newPublisher(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (eventbus.Publisher, func(), error) {
	switch cfg.EventBusBackend {
	case config.BusEventBridge:
		client, err := eventbus.NewEventBridgeClient(ctx, eventbus.EventBridgeOptions{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.EventBridgeEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("bus", cfg.EventBusName).Str("region", cfg.AWSRegion).Msg("publishing to EventBridge")
		return eventbus.NewEventBridgePublisher(client, cfg.EventBusName), func() {}, nil

	case config.BusRedis:
		client, err := eventbus.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("stream", cfg.RedisStream).Msg("publishing to Redis stream")
		return eventbus.NewRedisStreamPublisher(client, cfg.RedisStream, cfg.RedisStreamMaxLen), func() { client.Close() }, nil

	case config.BusTemporal:
		tc, err := temporalclient.Dial(temporalclient.Options{HostPort: cfg.TemporalAddress})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to temporal: %w", err)
		}
		logger.Info().Str("task_queue", cfg.TemporalTaskQueue).Msg("publishing to Temporal")
		return eventbus.NewTemporalPublisher(tc, cfg.TemporalTaskQueue), tc.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown event bus backend %q", cfg.EventBusBackend)
}
