package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/wolfman30/clinic-portal/internal/clinic"
	"github.com/wolfman30/clinic-portal/internal/events"
	"github.com/wolfman30/clinic-portal/internal/patients"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

const appointmentEmailConsumer = "appointment-email"

// PatientDirectory resolves the patient's account for the recipient address.
type PatientDirectory interface {
	GetPatient(ctx context.Context, id string) (patients.Profile, error)
}

// SettingsSource reads clinic settings.
type SettingsSource interface {
	Get(ctx context.Context, clinicID string) (*clinic.Settings, error)
}

// Deduper remembers which events were already emailed.
type Deduper interface {
	AlreadyProcessed(ctx context.Context, consumer, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
}

// AppointmentNotifier emails patients when their appointments change.
type AppointmentNotifier struct {
	email    EmailSender
	patients PatientDirectory
	settings SettingsSource
	dedupe   Deduper
	logger   *logging.Logger
}

func NewAppointmentNotifier(email EmailSender, directory PatientDirectory, settings SettingsSource, logger *logging.Logger) *AppointmentNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentNotifier{email: email, patients: directory, settings: settings, logger: logger}
}

// WithDeduper skips events a previous delivery attempt already emailed.
func (n *AppointmentNotifier) WithDeduper(d Deduper) *AppointmentNotifier {
	n.dedupe = d
	return n
}

// Handle implements events.DeliveryHandler.
func (n *AppointmentNotifier) Handle(ctx context.Context, entry events.OutboxEntry) error {
	switch entry.Type {
	case events.AppointmentCreated, events.AppointmentUpdated, events.AppointmentDeleted:
	default:
		return nil
	}
	if n.email == nil || n.patients == nil {
		return nil
	}

	var evt events.AppointmentChangedV1
	if err := json.Unmarshal(entry.Payload, &evt); err != nil {
		// A payload that never decodes would block the outbox forever.
		n.logger.Error("notify: dropping malformed appointment event", "error", err, "event_id", entry.ID)
		return nil
	}

	settings := clinic.DefaultSettings(entry.ClinicID, "")
	if n.settings != nil {
		s, err := n.settings.Get(ctx, entry.ClinicID)
		if err != nil {
			return fmt.Errorf("notify: get clinic settings: %w", err)
		}
		settings = s
	}
	if !wants(settings.Notifications, entry.Type) {
		n.logger.Debug("notify: appointment email disabled", "type", entry.Type, "clinic_id", entry.ClinicID)
		return nil
	}

	if n.dedupe != nil {
		seen, err := n.dedupe.AlreadyProcessed(ctx, appointmentEmailConsumer, evt.EventID)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}

	profile, err := n.patients.GetPatient(ctx, evt.PatientID)
	if err != nil {
		return fmt.Errorf("notify: lookup patient: %w", err)
	}
	if profile.User == nil || profile.User.Email == "" {
		n.logger.Warn("notify: patient has no email, skipping", "patient_id", evt.PatientID)
		return nil
	}

	msg := composeAppointmentEmail(entry.Type, evt, settings)
	msg.To = profile.User.Email
	msg.ToName = profile.DisplayName()
	if err := n.email.Send(ctx, msg); err != nil {
		return err
	}
	n.logger.Info("notify: appointment email sent", "type", entry.Type, "appointment_id", evt.AppointmentID)

	if n.dedupe != nil {
		if _, err := n.dedupe.MarkProcessed(ctx, appointmentEmailConsumer, evt.EventID); err != nil {
			n.logger.Error("notify: failed to mark event processed", "error", err, "event_id", evt.EventID)
		}
	}
	return nil
}

func wants(prefs clinic.NotificationPrefs, eventType string) bool {
	if !prefs.EmailEnabled {
		return false
	}
	switch eventType {
	case events.AppointmentCreated:
		return prefs.NotifyOnBooked
	case events.AppointmentUpdated:
		return prefs.NotifyOnChanged
	case events.AppointmentDeleted:
		return prefs.NotifyOnDeleted
	}
	return false
}

var errUnknownEvent = errors.New("notify: unknown appointment event")

func headline(eventType string) (string, error) {
	switch eventType {
	case events.AppointmentCreated:
		return "Appointment booked", nil
	case events.AppointmentUpdated:
		return "Appointment updated", nil
	case events.AppointmentDeleted:
		return "Appointment cancelled", nil
	}
	return "", errUnknownEvent
}

func composeAppointmentEmail(eventType string, evt events.AppointmentChangedV1, settings *clinic.Settings) EmailMessage {
	title, _ := headline(eventType)
	when := evt.StartTime.In(settings.Location()).Format("Mon, Jan 2 at 3:04 PM MST")
	visit := "in-person visit"
	if evt.Type == "telehealth" {
		visit = "telehealth visit"
	}
	provider := evt.ProviderName
	if provider == "" {
		provider = "your provider"
	}

	lines := []string{
		fmt.Sprintf("%s: your %s with %s on %s.", title, visit, provider, when),
	}
	if eventType != events.AppointmentDeleted {
		lines = append(lines, fmt.Sprintf("Status: %s", evt.Status))
	}
	if contact := settings.SupportContact(); contact != "" {
		lines = append(lines, fmt.Sprintf("Questions? Contact %s.", contact))
	}
	lines = append(lines, "", "- "+settings.Name)

	var b strings.Builder
	b.WriteString(`<div style="font-family: sans-serif; max-width: 600px;">`)
	fmt.Fprintf(&b, `<h2>%s</h2>`, html.EscapeString(title))
	for _, line := range lines {
		if line == "" {
			continue
		}
		fmt.Fprintf(&b, `<p>%s</p>`, html.EscapeString(line))
	}
	b.WriteString(`</div>`)

	return EmailMessage{
		ReplyTo: settings.SupportEmail,
		Tag:     eventType,
		Subject: fmt.Sprintf("%s - %s", title, when),
		Body:    strings.Join(lines, "\n"),
		HTML:    b.String(),
	}
}
