package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/clinic-portal/cmd/mainconfig"
	"github.com/wolfman30/clinic-portal/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-portal/internal/config"
	"github.com/wolfman30/clinic-portal/internal/events"
	"github.com/wolfman30/clinic-portal/internal/gateway"
	"github.com/wolfman30/clinic-portal/internal/observability/metrics"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// outbox-worker delivers appointment events written by the API to email and SQS.
func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting outbox worker",
		"env", cfg.Env,
		"batch_size", cfg.OutboxBatchSize,
		"poll_interval", cfg.OutboxPollInterval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		logger.Error("outbox worker requires DATABASE_URL")
		os.Exit(1)
	}
	defer pool.Close()

	clients, err := mainconfig.BuildClients(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, false)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	settings := bootstrap.BuildSettingsStore(redisClient, cfg)

	reg := prometheus.NewRegistry()
	observer := metrics.NewScheduleMetrics(reg)

	gw := gateway.NewPostgresGateway(pool)
	outbox := events.NewOutboxStore(pool)
	processed := events.NewProcessedStore(pool)
	handler := bootstrap.BuildDeliveryHandler(cfg, gw, settings, clients, processed, logger)
	deliverer := events.NewDeliverer(outbox, handler, logger).
		WithBatchSize(int32(cfg.OutboxBatchSize)).
		WithInterval(cfg.OutboxPollInterval).
		WithObserver(observer)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           workerMux(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	retention := events.NewRetention(cfg.EventRetention, logger).
		Add("outbox", outbox).
		Add("processed_events", processed)
	go retention.Start(ctx)

	deliverer.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("outbox worker stopped")
}

func workerMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}
