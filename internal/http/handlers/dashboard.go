package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/clinic-portal/internal/appointments"
	"github.com/wolfman30/clinic-portal/internal/charts"
	"github.com/wolfman30/clinic-portal/internal/clinic"
	"github.com/wolfman30/clinic-portal/internal/gateway"
	"github.com/wolfman30/clinic-portal/internal/http/respond"
	"github.com/wolfman30/clinic-portal/internal/observability/metrics"
	"github.com/wolfman30/clinic-portal/internal/session"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

const dashboardListLimit = 3

// SettingsSource supplies the clinic settings.
type SettingsSource interface {
	Get(ctx context.Context, clinicID string) (*clinic.Settings, error)
}

// DashboardHandler serves the home pages.
type DashboardHandler struct {
	gw       gateway.Gateway
	settings SettingsSource
	clinicID string
	gatherer prometheus.Gatherer
	logger   *logging.Logger
	now      func() time.Time
}

// NewDashboardHandler creates the dashboard handler. gatherer defaults to the process registry.
func NewDashboardHandler(gw gateway.Gateway, settings SettingsSource, clinicID string, gatherer prometheus.Gatherer, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{
		gw:       gw,
		settings: settings,
		clinicID: clinicID,
		gatherer: gatherer,
		logger:   logger,
		now:      time.Now,
	}
}

// StaffHome summarizes the clinic day.
type StaffHome struct {
	Date               string                     `json:"date"`
	ClinicName         string                     `json:"clinicName"`
	OpenNow            bool                       `json:"openNow"`
	TodaysAppointments []appointments.Appointment `json:"todaysAppointments"`
	PatientCount       int                        `json:"patientCount"`
	Activity           metrics.Activity           `json:"activity"`
}

// PatientHome is the patient landing page.
type PatientHome struct {
	Upcoming      []appointments.Appointment `json:"upcomingAppointments"`
	RecentRecords []charts.Record            `json:"recentRecords"`
}

// AppointmentSplit lists a patient's appointments around now, ordered by start time.
type AppointmentSplit struct {
	Upcoming []appointments.Appointment `json:"upcoming"`
	Past     []appointments.Appointment `json:"past"`
}

// GetStaffHome returns today's role-scoped appointments and clinic counters.
// GET /api/dashboard
func (h *DashboardHandler) GetStaffHome(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	settings := h.clinicSettings(r.Context())
	loc := settings.Location()
	now := h.now().In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	filter, err := gateway.ScopeAppointments(r.Context(), h.gw, user, appointments.Filter{From: start, To: start.AddDate(0, 0, 1)})
	if err != nil {
		writeGatewayError(w, h.logger, "appointments", err)
		return
	}
	today, err := h.gw.ListAppointments(r.Context(), filter)
	if err != nil {
		writeGatewayError(w, h.logger, "appointments", err)
		return
	}
	count, err := h.gw.CountPatients(r.Context())
	if err != nil {
		writeGatewayError(w, h.logger, "patients", err)
		return
	}
	activity, err := metrics.ReadActivity(h.gatherer)
	if err != nil {
		h.logger.Warn("failed to read schedule activity", "error", err)
	}

	respond.JSON(w, http.StatusOK, StaffHome{
		Date:               start.Format("2006-01-02"),
		ClinicName:         settings.Name,
		OpenNow:            settings.IsOpenAt(now),
		TodaysAppointments: today,
		PatientCount:       count,
		Activity:           activity,
	})
}

// GetPatientHome returns the next appointments and latest records.
// GET /api/me/dashboard
func (h *DashboardHandler) GetPatientHome(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	profile, ok := ownProfile(w, r, h.gw, h.contactSource(), h.logger, user)
	if !ok {
		return
	}
	upcoming, err := h.gw.ListAppointments(r.Context(), appointments.Filter{
		From:      h.now(),
		PatientID: profile.ID,
		Limit:     dashboardListLimit,
	})
	if err != nil {
		writeGatewayError(w, h.logger, "appointments", err)
		return
	}
	records, err := h.gw.ListRecords(r.Context(), profile.ID, dashboardListLimit)
	if err != nil {
		writeGatewayError(w, h.logger, "records", err)
		return
	}
	respond.JSON(w, http.StatusOK, PatientHome{Upcoming: upcoming, RecentRecords: records})
}

// ListOwnAppointments splits the patient's appointments into upcoming and past.
// GET /api/me/appointments
func (h *DashboardHandler) ListOwnAppointments(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if user.Role != session.RolePatient {
		respond.Error(w, http.StatusForbidden, "patients only")
		return
	}
	profile, ok := ownProfile(w, r, h.gw, h.contactSource(), h.logger, user)
	if !ok {
		return
	}
	list, err := h.gw.ListAppointments(r.Context(), appointments.Filter{PatientID: profile.ID})
	if err != nil {
		writeGatewayError(w, h.logger, "appointments", err)
		return
	}
	upcoming, past := appointments.SplitUpcoming(list, h.now())
	respond.JSON(w, http.StatusOK, AppointmentSplit{Upcoming: upcoming, Past: past})
}

// clinicSettings falls back to defaults so the dashboard renders without redis.
func (h *DashboardHandler) clinicSettings(ctx context.Context) *clinic.Settings {
	if h.settings != nil {
		s, err := h.settings.Get(ctx, h.clinicID)
		if err == nil {
			return s
		}
		h.logger.Warn("clinic settings unavailable", "error", err)
	}
	return clinic.DefaultSettings(h.clinicID, "")
}

type settingsContact struct {
	h *DashboardHandler
}

func (c settingsContact) SupportContact(ctx context.Context) string {
	return c.h.clinicSettings(ctx).SupportContact()
}

func (h *DashboardHandler) contactSource() ContactSource {
	return settingsContact{h: h}
}
