// Package schedule serves the appointment calendar and its editor.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/clinic-portal/internal/appointments"
	"github.com/wolfman30/clinic-portal/internal/calendar"
	"github.com/wolfman30/clinic-portal/internal/clinic"
	"github.com/wolfman30/clinic-portal/internal/events"
	"github.com/wolfman30/clinic-portal/internal/gateway"
	"github.com/wolfman30/clinic-portal/internal/observability/metrics"
	"github.com/wolfman30/clinic-portal/internal/session"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

var scheduleTracer = otel.Tracer("clinic.internal.schedule")

// SettingsSource supplies the clinic display timezone.
type SettingsSource interface {
	Get(ctx context.Context, clinicID string) (*clinic.Settings, error)
}

// Broadcaster fans change notices out to live schedule viewers.
type Broadcaster interface {
	Broadcast(n Notice)
}

// ViewRequest identifies the calendar a mutation should refresh.
type ViewRequest struct {
	Mode calendar.ViewMode
	Date time.Time
}

// View is the calendar payload returned to the portal.
type View struct {
	Schedule *calendar.Grid `json:"schedule"`
	Previous string         `json:"previous"`
	Next     string         `json:"next"`
	Today    string         `json:"today"`
	Timezone string         `json:"timezone"`
}

// MutationResult is the stored appointment plus the refreshed calendar.
type MutationResult struct {
	Appointment *appointments.Appointment `json:"appointment,omitempty"`
	View
}

// Service loads role-scoped calendars and runs editor submissions.
type Service struct {
	gw        gateway.Gateway
	loc       *time.Location
	clinicID  string
	settings  SettingsSource
	publisher events.Publisher
	hub       Broadcaster
	metrics   *metrics.ScheduleMetrics
	logger    *logging.Logger
	now       func() time.Time
}

func NewService(gw gateway.Gateway, loc *time.Location, logger *logging.Logger) *Service {
	if gw == nil {
		panic("schedule: gateway required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{gw: gw, loc: loc, clinicID: "default", logger: logger, now: time.Now}
}

func (s *Service) WithClinic(clinicID string, settings SettingsSource) *Service {
	if clinicID != "" {
		s.clinicID = clinicID
	}
	s.settings = settings
	return s
}

func (s *Service) WithPublisher(p events.Publisher) *Service {
	s.publisher = p
	return s
}

func (s *Service) WithBroadcaster(b Broadcaster) *Service {
	s.hub = b
	return s
}

func (s *Service) WithMetrics(m *metrics.ScheduleMetrics) *Service {
	s.metrics = m
	return s
}

// Location is the zone calendars are rendered in.
func (s *Service) Location(ctx context.Context) *time.Location {
	if s.settings == nil {
		return s.loc
	}
	settings, err := s.settings.Get(ctx, s.clinicID)
	if err != nil {
		s.logger.Warn("schedule: clinic settings unavailable, using default timezone", "error", err)
		return s.loc
	}
	if _, err := time.LoadLocation(settings.Timezone); err != nil {
		return s.loc
	}
	return settings.Location()
}

// Today is the current instant.
func (s *Service) Today() time.Time {
	return s.now()
}

// Load renders the calendar for req, holding only appointments actor may see.
func (s *Service) Load(ctx context.Context, actor session.User, req ViewRequest) (View, error) {
	ctx, span := scheduleTracer.Start(ctx, "schedule.load")
	defer span.End()
	span.SetAttributes(
		attribute.String("schedule.view", string(req.Mode)),
		attribute.String("session.role", string(actor.Role)),
	)

	loc := s.Location(ctx)
	ref := req.Date
	if ref.IsZero() {
		ref = s.now()
	}
	from, to := calendar.VisibleRange(ref, req.Mode, loc)
	filter, err := gateway.ScopeAppointments(ctx, s.gw, actor, appointments.Filter{From: from, To: to})
	if err != nil {
		span.RecordError(err)
		return View{}, err
	}
	list, err := s.gw.ListAppointments(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return View{}, fmt.Errorf("schedule: list appointments: %w", err)
	}

	grid := calendar.Build(ref, req.Mode, loc).Place(list)
	s.metrics.ObserveGrid(string(grid.Mode), len(list))
	span.SetAttributes(attribute.Int("schedule.appointments", len(list)))

	return View{
		Schedule: grid,
		Previous: dateParam(calendar.Previous(grid.Reference, grid.Mode)),
		Next:     dateParam(calendar.Next(grid.Reference, grid.Mode)),
		Today:    dateParam(s.now().In(loc)),
		Timezone: loc.String(),
	}, nil
}

// Create submits a new appointment anchored at anchor and returns the refreshed view.
func (s *Service) Create(ctx context.Context, actor session.User, anchor time.Time, form appointments.Form, view ViewRequest) (MutationResult, error) {
	ctx, span := scheduleTracer.Start(ctx, "schedule.create")
	defer span.End()

	scope, err := gateway.ScopeAppointments(ctx, s.gw, actor, appointments.Filter{})
	if err != nil {
		return MutationResult{}, s.fail(span, "create", err)
	}
	if actor.Role == session.RolePatient {
		form.PatientID = scope.PatientID
	}

	payload, err := appointments.NewCreateEditor(actor, anchor).Submit(form)
	if err != nil {
		return MutationResult{}, s.fail(span, "create", err)
	}
	created, err := s.gw.CreateAppointment(ctx, payload)
	if err != nil {
		return MutationResult{}, s.fail(span, "create", err)
	}
	span.SetAttributes(attribute.String("appointment.id", created.ID))
	s.metrics.ObserveMutation("create", nil)
	s.announce(ctx, actor, events.AppointmentCreated, created)

	return s.refreshed(ctx, actor, view, &created)
}

// Update applies an edit-mode submission to appointment id.
func (s *Service) Update(ctx context.Context, actor session.User, id string, anchor time.Time, form appointments.Form, view ViewRequest) (MutationResult, error) {
	ctx, span := scheduleTracer.Start(ctx, "schedule.update")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", id))

	current, err := s.visibleAppointment(ctx, actor, id)
	if err != nil {
		return MutationResult{}, s.fail(span, "update", err)
	}
	if actor.Role == session.RolePatient {
		form.PatientID = current.PatientID
	}

	payload, err := appointments.NewEditEditor(actor, current).WithAnchor(anchor).Submit(form)
	if err != nil {
		return MutationResult{}, s.fail(span, "update", err)
	}
	updated, err := s.gw.UpdateAppointment(ctx, id, payload)
	if err != nil {
		return MutationResult{}, s.fail(span, "update", err)
	}
	s.metrics.ObserveMutation("update", nil)
	s.announce(ctx, actor, events.AppointmentUpdated, updated)

	return s.refreshed(ctx, actor, view, &updated)
}

// Delete removes appointment id and returns the refreshed view without it.
func (s *Service) Delete(ctx context.Context, actor session.User, id string, view ViewRequest) (MutationResult, error) {
	ctx, span := scheduleTracer.Start(ctx, "schedule.delete")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", id))

	current, err := s.visibleAppointment(ctx, actor, id)
	if err != nil {
		return MutationResult{}, s.fail(span, "delete", err)
	}
	target, err := appointments.NewEditEditor(actor, current).DeleteTarget()
	if err != nil {
		return MutationResult{}, s.fail(span, "delete", err)
	}
	if err := s.gw.DeleteAppointment(ctx, target); err != nil {
		return MutationResult{}, s.fail(span, "delete", err)
	}
	s.metrics.ObserveMutation("delete", nil)
	s.announce(ctx, actor, events.AppointmentDeleted, current)

	return s.refreshed(ctx, actor, view, nil)
}

// visibleAppointment loads id and hides it from actors outside its scope.
func (s *Service) visibleAppointment(ctx context.Context, actor session.User, id string) (appointments.Appointment, error) {
	scope, err := gateway.ScopeAppointments(ctx, s.gw, actor, appointments.Filter{})
	if err != nil {
		return appointments.Appointment{}, err
	}
	appt, err := s.gw.GetAppointment(ctx, id)
	if err != nil {
		return appointments.Appointment{}, err
	}
	if !inScope(scope, appt) {
		return appointments.Appointment{}, gateway.ErrNotFound
	}
	return appt, nil
}

func inScope(scope appointments.Filter, appt appointments.Appointment) bool {
	if scope.PatientID != "" && scope.PatientID != appt.PatientID {
		return false
	}
	if scope.ProviderID != "" && scope.ProviderID != appt.ProviderID {
		return false
	}
	return true
}

// refreshed re-queries the visible range after a mutation has completed.
func (s *Service) refreshed(ctx context.Context, actor session.User, view ViewRequest, appt *appointments.Appointment) (MutationResult, error) {
	if view.Date.IsZero() && appt != nil {
		view.Date = appt.StartTime
	}
	v, err := s.Load(ctx, actor, view)
	if err != nil {
		return MutationResult{Appointment: appt}, err
	}
	return MutationResult{Appointment: appt, View: v}, nil
}

// announce records the change in the outbox and pushes a live notice.
// The mutation is already committed, so failures are logged only.
func (s *Service) announce(ctx context.Context, actor session.User, eventType string, appt appointments.Appointment) {
	now := s.now()
	if s.publisher != nil {
		evt := events.NewAppointmentChanged(s.clinicID, actor, appt, now)
		if _, err := s.publisher.Publish(ctx, s.clinicID, eventType, evt); err != nil {
			s.logger.Error("schedule: failed to publish appointment event", "error", err, "type", eventType, "appointment_id", appt.ID)
		}
	}
	if s.hub != nil {
		s.hub.Broadcast(noticeFor(eventType, appt, now))
	}
}

func (s *Service) fail(span trace.Span, action string, err error) error {
	span.RecordError(err)
	s.metrics.ObserveMutation(action, err)
	if !isClientError(err) {
		s.logger.Error("schedule: mutation failed", "action", action, "error", err)
	}
	return err
}

func isClientError(err error) bool {
	return appointments.IsValidation(err) ||
		errors.Is(err, gateway.ErrInvalid) ||
		errors.Is(err, gateway.ErrNotFound)
}

func dateParam(t time.Time) string {
	return t.Format("2006-01-02")
}

// SupportContact is the clinic contact shown when a patient profile is missing.
func (s *Service) SupportContact(ctx context.Context) string {
	if s.settings == nil {
		return ""
	}
	settings, err := s.settings.Get(ctx, s.clinicID)
	if err != nil {
		return ""
	}
	return settings.SupportContact()
}
