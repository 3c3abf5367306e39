package appointments

import (
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/clinic-portal/internal/session"
)

// Mode is the editor's operating mode.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// DefaultDuration is the preselected duration for new appointments.
const DefaultDuration = "30"

// DurationOptions are the only durations, in minutes, the editor offers.
var DurationOptions = []int{15, 30, 45, 60}

// Form holds the editable fields bound to the editor inputs.
type Form struct {
	PatientID  string `json:"patientId"`
	ProviderID string `json:"providerId"`
	Type       Type   `json:"type"`
	Duration   string `json:"duration"`
	Notes      string `json:"notes"`
	Status     Status `json:"status,omitempty"`
}

// Editor is the create/edit/delete form for a single appointment.
type Editor struct {
	Mode            Mode      `json:"mode"`
	AppointmentID   string    `json:"appointmentId,omitempty"`
	Anchor          time.Time `json:"anchor"`
	Form            Form      `json:"form"`
	ProviderPinned  bool      `json:"providerPinned"`
	ShowStatus      bool      `json:"showStatus"`
	CanDelete       bool      `json:"canDelete"`
	DurationOptions []int     `json:"durationOptions"`
	StatusOptions   []Status  `json:"statusOptions,omitempty"`

	actor session.User
}

// NewCreateEditor opens the editor for a new appointment anchored at the clicked slot.
func NewCreateEditor(actor session.User, anchor time.Time) *Editor {
	e := &Editor{
		Mode:            ModeCreate,
		Anchor:          anchor,
		DurationOptions: DurationOptions,
		actor:           actor,
		Form: Form{
			Type:     TypeInPerson,
			Duration: DefaultDuration,
		},
	}
	if actor.Role == session.RoleDoctor {
		e.ProviderPinned = true
		e.Form.ProviderID = actor.ID
	}
	return e
}

// NewEditEditor opens the editor prefilled from an existing appointment.
// The anchor is the appointment's current start time.
func NewEditEditor(actor session.User, appt Appointment) *Editor {
	return &Editor{
		Mode:            ModeEdit,
		AppointmentID:   appt.ID,
		Anchor:          appt.StartTime,
		ProviderPinned:  actor.Role == session.RoleDoctor,
		ShowStatus:      true,
		CanDelete:       true,
		DurationOptions: DurationOptions,
		StatusOptions:   Statuses,
		actor:           actor,
		Form: Form{
			PatientID:  appt.PatientID,
			ProviderID: appt.ProviderID,
			Type:       appt.Type,
			Duration:   strconv.Itoa(appt.DurationMinutes()),
			Notes:      appt.Notes,
			Status:     appt.Status,
		},
	}
}

// WithAnchor moves the appointment start, as when an edited visit is dragged to another slot.
func (e *Editor) WithAnchor(anchor time.Time) *Editor {
	if !anchor.IsZero() {
		e.Anchor = anchor
	}
	return e
}

// Submit merges the submitted form into the editor and produces the write payload.
// Empty selections keep the editor's current values; notes are taken as submitted.
func (e *Editor) Submit(in Form) (Payload, error) {
	form := e.merge(in)

	if e.Anchor.IsZero() {
		return Payload{}, ErrMissingAnchor
	}
	if strings.TrimSpace(form.PatientID) == "" {
		return Payload{}, ErrPatientRequired
	}
	if strings.TrimSpace(form.ProviderID) == "" {
		return Payload{}, ErrProviderRequired
	}
	if !form.Type.Valid() {
		return Payload{}, ErrInvalidType
	}
	minutes, err := ParseDuration(form.Duration)
	if err != nil {
		return Payload{}, err
	}

	status := StatusScheduled
	if e.Mode == ModeEdit {
		if !form.Status.Valid() {
			return Payload{}, ErrInvalidStatus
		}
		status = form.Status
	} else if in.Status != "" && in.Status != StatusScheduled {
		return Payload{}, ErrStatusRequiresEdit
	}

	e.Form = form
	return Payload{
		StartTime:  e.Anchor,
		EndTime:    e.Anchor.Add(time.Duration(minutes) * time.Minute),
		Type:       form.Type,
		Notes:      form.Notes,
		PatientID:  strings.TrimSpace(form.PatientID),
		ProviderID: strings.TrimSpace(form.ProviderID),
		Status:     status,
	}, nil
}

// DeleteTarget returns the id to delete. Only edit mode can delete.
func (e *Editor) DeleteTarget() (string, error) {
	if e.Mode != ModeEdit || e.AppointmentID == "" {
		return "", ErrDeleteRequiresEdit
	}
	return e.AppointmentID, nil
}

func (e *Editor) merge(in Form) Form {
	form := e.Form
	if in.PatientID != "" {
		form.PatientID = in.PatientID
	}
	if in.ProviderID != "" && !e.ProviderPinned {
		form.ProviderID = in.ProviderID
	}
	if e.ProviderPinned && e.Mode == ModeCreate {
		form.ProviderID = e.actor.ID
	}
	if in.Type != "" {
		form.Type = in.Type
	}
	if in.Duration != "" {
		form.Duration = in.Duration
	}
	form.Notes = in.Notes
	if in.Status != "" && e.Mode == ModeEdit {
		form.Status = in.Status
	}
	return form
}

// ParseDuration accepts only the offered duration options.
func ParseDuration(raw string) (int, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidDuration
	}
	for _, allowed := range DurationOptions {
		if minutes == allowed {
			return minutes, nil
		}
	}
	return 0, ErrInvalidDuration
}
