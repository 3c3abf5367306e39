package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/internal/appointments"
	"github.com/wolfman30/clinic-portal/internal/session"
)

const (
	AppointmentCreated = "appointment.created.v1"
	AppointmentUpdated = "appointment.updated.v1"
	AppointmentDeleted = "appointment.deleted.v1"
)

// AppointmentChangedV1 is the payload of every appointment event.
type AppointmentChangedV1 struct {
	EventID       string    `json:"event_id"`
	ClinicID      string    `json:"clinic_id"`
	AppointmentID string    `json:"appointment_id"`
	PatientID     string    `json:"patient_id"`
	ProviderID    string    `json:"provider_id"`
	PatientName   string    `json:"patient_name,omitempty"`
	ProviderName  string    `json:"provider_name,omitempty"`
	ActorID       string    `json:"actor_id"`
	ActorRole     string    `json:"actor_role"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewAppointmentChanged builds an event payload from the stored appointment.
func NewAppointmentChanged(clinicID string, actor session.User, appt appointments.Appointment, now time.Time) AppointmentChangedV1 {
	evt := AppointmentChangedV1{
		EventID:       uuid.NewString(),
		ClinicID:      clinicID,
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		ProviderID:    appt.ProviderID,
		ActorID:       actor.ID,
		ActorRole:     string(actor.Role),
		StartTime:     appt.StartTime.UTC(),
		EndTime:       appt.EndTime.UTC(),
		Type:          string(appt.Type),
		Status:        string(appt.Status),
		OccurredAt:    now.UTC(),
	}
	if appt.Patient != nil {
		evt.PatientName = appt.Patient.Name()
	}
	if appt.Provider != nil {
		evt.ProviderName = appt.Provider.Name()
	}
	return evt
}
