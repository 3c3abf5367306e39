package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/clinic-portal/internal/auth"
	"github.com/wolfman30/clinic-portal/internal/clinic"
	"github.com/wolfman30/clinic-portal/internal/compliance"
	"github.com/wolfman30/clinic-portal/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinic-portal/internal/http/middleware"
	"github.com/wolfman30/clinic-portal/internal/http/respond"
	"github.com/wolfman30/clinic-portal/internal/observability/metrics"
	"github.com/wolfman30/clinic-portal/internal/schedule"
	"github.com/wolfman30/clinic-portal/internal/session"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	HTTPMetrics        *metrics.HTTPMetrics
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter

	Tokens        httpmiddleware.TokenParser
	Auth          *auth.Handler
	DevRoleSwitch bool

	Schedule     *schedule.Handler
	ScheduleFeed *schedule.Hub
	Patients     *handlers.PatientsHandler
	Charts       *handlers.ChartsHandler
	Dashboard    *handlers.DashboardHandler
	Navigation   *handlers.NavigationHandler
	Clinic       *clinic.Handler
	Audit        *compliance.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestID)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger, cfg.HTTPMetrics))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Auth != nil {
			public.Post("/auth/login", cfg.Auth.Login)
			if cfg.DevRoleSwitch {
				public.Post("/dev/session", cfg.Auth.DevSession)
			}
		}
	})

	// Signed-in endpoints
	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Authenticate(cfg.Tokens))
		if cfg.RateLimiter != nil {
			private.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}

		if cfg.Auth != nil {
			private.Get("/api/me", cfg.Auth.Me)
		}
		if cfg.Navigation != nil {
			private.Get("/api/navigation", cfg.Navigation.GetNavigation)
			private.Get("/api/navigation/resolve", cfg.Navigation.Resolve)
		}
		if cfg.Schedule != nil {
			private.Mount("/api/schedule", cfg.Schedule.Routes())
		}
		if cfg.ScheduleFeed != nil {
			private.Get("/ws/schedule", cfg.ScheduleFeed.HandleWebSocket)
		}
		if cfg.Clinic != nil {
			private.Mount("/api/clinic/settings", cfg.Clinic.Routes(httpmiddleware.RequireRole(session.RoleAdmin)))
		}
		if cfg.Charts != nil {
			private.Get("/api/records/{recordID}/files", cfg.Charts.ListFiles)
			private.Get("/api/records/{recordID}/files/{fileID}", cfg.Charts.DownloadFile)
		}

		// Staff pages
		private.Group(func(staff chi.Router) {
			staff.Use(httpmiddleware.RequireStaff())
			if cfg.Patients != nil {
				staff.Get("/api/patients", cfg.Patients.ListPatients)
				staff.Post("/api/patients", cfg.Patients.CreatePatient)
				staff.Get("/api/patients/{patientID}", cfg.Patients.GetPatient)
			}
			if cfg.Charts != nil {
				staff.Get("/api/patients/{patientID}/records", cfg.Charts.ListRecords)
				staff.Get("/api/patients/{patientID}/records/new", cfg.Charts.NewRecordDraft)
				staff.Post("/api/patients/{patientID}/records", cfg.Charts.CreateRecord)
				staff.Post("/api/records/{recordID}/files", cfg.Charts.UploadFile)
			}
			if cfg.Dashboard != nil {
				staff.Get("/api/dashboard", cfg.Dashboard.GetStaffHome)
			}
			staff.Get("/api/billing", handlers.Billing)
			staff.Get("/api/telehealth", handlers.Telehealth)
		})

		// Patient pages
		private.Group(func(patient chi.Router) {
			patient.Use(httpmiddleware.RequireRole(session.RolePatient))
			if cfg.Patients != nil {
				patient.Get("/api/me/profile", cfg.Patients.GetOwnProfile)
			}
			if cfg.Charts != nil {
				patient.Get("/api/me/records", cfg.Charts.ListOwnRecords)
			}
			if cfg.Dashboard != nil {
				patient.Get("/api/me/dashboard", cfg.Dashboard.GetPatientHome)
				patient.Get("/api/me/appointments", cfg.Dashboard.ListOwnAppointments)
			}
		})

		// Admin
		if cfg.Audit != nil {
			private.With(httpmiddleware.RequireRole(session.RoleAdmin)).Get("/api/audit", cfg.Audit.ListEvents)
		}
	})

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
