package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-portal/internal/archive"
	"github.com/wolfman30/clinic-portal/internal/auth"
	"github.com/wolfman30/clinic-portal/internal/clinic"
	"github.com/wolfman30/clinic-portal/internal/compliance"
	appconfig "github.com/wolfman30/clinic-portal/internal/config"
	"github.com/wolfman30/clinic-portal/internal/events"
	"github.com/wolfman30/clinic-portal/internal/gateway"
	"github.com/wolfman30/clinic-portal/internal/notify"
	"github.com/wolfman30/clinic-portal/internal/observability/metrics"
	"github.com/wolfman30/clinic-portal/internal/schedule"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

const (
	devJWTSecret     = "clinic-portal-dev-secret"
	localRecordsRoot = "local-records"
)

// Clients are the AWS service clients the portal may use. Nil fields disable the feature.
type Clients struct {
	S3  archive.S3API
	SQS events.SQSAPI
	SES notify.SESAPI
}

// Portal holds the wired components shared by the API server.
type Portal struct {
	Gateway  gateway.Gateway
	Settings clinic.SettingsStore
	Outbox   *events.OutboxStore
	Files    *archive.Store
	Audit    *compliance.AuditService
	Issuer   *auth.Issuer
	Metrics  *metrics.ScheduleMetrics
	Hub      *schedule.Hub
	Schedule *schedule.Service

	pool  *pgxpool.Pool
	sqlDB *sql.DB
	redis *redis.Client
}

// BuildPortal wires storage, events and the schedule service. Memory mode
// (USE_MEMORY_STORE or no DATABASE_URL) seeds the development personas and
// delivers events inline.
func BuildPortal(ctx context.Context, cfg *appconfig.Config, clients Clients, reg prometheus.Registerer, logger *logging.Logger) (*Portal, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	issuer, err := buildIssuer(cfg, logger)
	if err != nil {
		return nil, err
	}

	p := &Portal{Issuer: issuer, Metrics: metrics.NewScheduleMetrics(reg)}
	p.redis = BuildRedisClient(ctx, cfg, logger, true)
	p.Settings = BuildSettingsStore(p.redis, cfg)

	var publisher events.Publisher
	if cfg.UseMemoryStore || strings.TrimSpace(cfg.DatabaseURL) == "" {
		gw := gateway.NewMemoryGateway()
		if err := SeedMemoryGateway(ctx, gw); err != nil {
			p.Close()
			return nil, fmt.Errorf("bootstrap: seed memory gateway: %w", err)
		}
		p.Gateway = gw
		if clients.S3 == nil || cfg.RecordsBucket == "" {
			p.Files = archive.NewStore(archive.NewMemoryObjects(), localRecordsRoot, logger)
		} else {
			p.Files = archive.NewStore(clients.S3, cfg.RecordsBucket, logger)
		}
		publisher = events.NewInlinePublisher(BuildDeliveryHandler(cfg, gw, p.Settings, clients, nil, logger))
		logger.Info("portal running on in-memory storage", "dev_password", DevPassword)
	} else {
		p.pool = ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
		if p.pool == nil {
			p.Close()
			return nil, errors.New("bootstrap: postgres unavailable")
		}
		p.sqlDB = OpenSQL(cfg.DatabaseURL, logger)
		p.Gateway = gateway.NewPostgresGateway(p.pool)
		p.Audit = compliance.NewAuditService(p.sqlDB, cfg.ClinicID)
		p.Outbox = events.NewOutboxStore(p.pool)
		p.Files = archive.NewStore(clients.S3, cfg.RecordsBucket, logger)
		publisher = p.Outbox
	}

	p.Hub = schedule.NewHub(p.Gateway, p.Metrics, logger)
	p.Schedule = schedule.NewService(p.Gateway, cfg.Location(), logger).
		WithClinic(cfg.ClinicID, p.Settings).
		WithPublisher(publisher).
		WithBroadcaster(p.Hub).
		WithMetrics(p.Metrics)
	return p, nil
}

// BuildDeliveryHandler fans appointment events out to patient email and,
// when a queue is configured, to SQS.
func BuildDeliveryHandler(cfg *appconfig.Config, directory notify.PatientDirectory, settings notify.SettingsSource, clients Clients, dedupe notify.Deduper, logger *logging.Logger) events.Handlers {
	email := notify.SelectEmailSender(notify.ProviderOptions{
		Provider: cfg.EmailProvider,
		SendGrid: notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		},
		SESClient: clients.SES,
		SES: notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		},
	}, logger)

	notifier := notify.NewAppointmentNotifier(email, directory, settings, logger)
	if dedupe != nil {
		notifier.WithDeduper(dedupe)
	}
	handlers := events.Handlers{notifier}
	if clients.SQS != nil && strings.TrimSpace(cfg.EventsQueueURL) != "" {
		handlers = append(handlers, events.NewSQSPublisher(clients.SQS, cfg.EventsQueueURL))
	}
	return handlers
}

func buildIssuer(cfg *appconfig.Config, logger *logging.Logger) (*auth.Issuer, error) {
	secret := cfg.JWTSecret
	if strings.TrimSpace(secret) == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("bootstrap: %w", auth.ErrSecretRequired)
		}
		logger.Warn("JWT_SECRET not set; using the development secret")
		secret = devJWTSecret
	}
	return auth.NewIssuer(secret, cfg.TokenTTL)
}

// Close releases the database and redis connections.
func (p *Portal) Close() {
	if p == nil {
		return
	}
	if p.pool != nil {
		p.pool.Close()
	}
	if p.sqlDB != nil {
		_ = p.sqlDB.Close()
	}
	if p.redis != nil {
		_ = p.redis.Close()
	}
}
