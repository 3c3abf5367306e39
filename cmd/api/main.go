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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/clinic-portal/cmd/mainconfig"
	"github.com/wolfman30/clinic-portal/internal/api/router"
	"github.com/wolfman30/clinic-portal/internal/app/bootstrap"
	"github.com/wolfman30/clinic-portal/internal/auth"
	"github.com/wolfman30/clinic-portal/internal/clinic"
	"github.com/wolfman30/clinic-portal/internal/compliance"
	appconfig "github.com/wolfman30/clinic-portal/internal/config"
	"github.com/wolfman30/clinic-portal/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinic-portal/internal/http/middleware"
	"github.com/wolfman30/clinic-portal/internal/observability/metrics"
	"github.com/wolfman30/clinic-portal/internal/schedule"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-portal API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	clients, err := mainconfig.BuildClients(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	reg, metricsHandler := setupMetrics()
	portal, err := bootstrap.BuildPortal(ctx, cfg, clients, reg, logger)
	if err != nil {
		logger.Error("failed to build portal", "error", err)
		os.Exit(1)
	}
	defer portal.Close()

	r := buildRouter(cfg, portal, reg, metricsHandler, logger)

	// Create HTTP server. No WriteTimeout: the schedule feed is long-lived
	// and sets its own deadlines.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics builds the registry served on /metrics.
func setupMetrics() (*prometheus.Registry, http.Handler) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func buildRouter(cfg *appconfig.Config, portal *bootstrap.Portal, reg *prometheus.Registry, metricsHandler http.Handler, logger *logging.Logger) http.Handler {
	routerCfg := &router.Config{
		Logger:             logger,
		HTTPMetrics:        metrics.NewHTTPMetrics(reg),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Tokens:             portal.Issuer,
		Auth:               auth.NewHandler(portal.Gateway, portal.Issuer, logger),
		DevRoleSwitch:      cfg.DevRoleSwitch && !cfg.IsProduction(),
		Schedule:           schedule.NewHandler(portal.Schedule, portal.Hub, logger),
		ScheduleFeed:       portal.Hub,
		Patients:           handlers.NewPatientsHandler(portal.Gateway, portal.Audit, portal.Schedule, logger),
		Charts:             handlers.NewChartsHandler(portal.Gateway, portal.Files, portal.Audit, portal.Schedule, logger),
		Dashboard:          handlers.NewDashboardHandler(portal.Gateway, portal.Settings, cfg.ClinicID, reg, logger),
		Navigation:         handlers.NewNavigationHandler(logger),
		Clinic:             clinic.NewHandler(portal.Settings, cfg.ClinicID, logger),
	}
	if portal.Audit != nil {
		routerCfg.Audit = compliance.NewHandler(portal.Audit, logger)
	}
	return router.New(routerCfg)
}
