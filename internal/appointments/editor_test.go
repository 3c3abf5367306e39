package appointments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/clinic-portal/internal/session"
)

var (
	nurse  = session.User{ID: "nurse-1", Role: session.RoleNurse}
	doctor = session.User{ID: "doc-1", Role: session.RoleDoctor}
)

func TestCreateEditorDefaults(t *testing.T) {
	anchor := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	e := NewCreateEditor(nurse, anchor)

	assert.Equal(t, ModeCreate, e.Mode)
	assert.Equal(t, "30", e.Form.Duration)
	assert.Equal(t, TypeInPerson, e.Form.Type)
	assert.Equal(t, []int{15, 30, 45, 60}, e.DurationOptions)
	assert.False(t, e.ShowStatus)
	assert.False(t, e.CanDelete)
	assert.False(t, e.ProviderPinned)
	assert.Empty(t, e.Form.ProviderID)
}

func TestCreateEditorPinsDoctor(t *testing.T) {
	e := NewCreateEditor(doctor, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	require.True(t, e.ProviderPinned)
	assert.Equal(t, "doc-1", e.Form.ProviderID)

	payload, err := e.Submit(Form{PatientID: "pat-1", ProviderID: "someone-else"})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", payload.ProviderID)
}

func TestSubmitComputesEndFromDuration(t *testing.T) {
	anchor := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	e := NewCreateEditor(nurse, anchor)

	payload, err := e.Submit(Form{PatientID: "pat-1", ProviderID: "doc-1", Duration: "30", Notes: "follow up"})
	require.NoError(t, err)
	assert.Equal(t, anchor, payload.StartTime)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC), payload.EndTime)
	assert.Equal(t, StatusScheduled, payload.Status)
	assert.Equal(t, TypeInPerson, payload.Type)
	assert.Equal(t, "follow up", payload.Notes)
}

func TestSubmitRejectsArbitraryDurations(t *testing.T) {
	e := NewCreateEditor(nurse, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	for _, d := range []string{"20", "90", "0", "abc", "-15"} {
		_, err := e.Submit(Form{PatientID: "pat-1", ProviderID: "doc-1", Duration: d})
		assert.ErrorIs(t, err, ErrInvalidDuration, "duration %q", d)
	}
	for _, d := range []string{"15", "45", "60"} {
		_, err := e.Submit(Form{PatientID: "pat-1", ProviderID: "doc-1", Duration: d})
		assert.NoError(t, err, "duration %q", d)
	}
}

func TestSubmitRequiresPatientAndProvider(t *testing.T) {
	e := NewCreateEditor(nurse, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))

	_, err := e.Submit(Form{ProviderID: "doc-1"})
	assert.ErrorIs(t, err, ErrPatientRequired)

	_, err = e.Submit(Form{PatientID: "pat-1"})
	assert.ErrorIs(t, err, ErrProviderRequired)
	assert.True(t, IsValidation(err))
}

func TestCreateModeRejectsStatus(t *testing.T) {
	e := NewCreateEditor(nurse, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	_, err := e.Submit(Form{PatientID: "pat-1", ProviderID: "doc-1", Status: StatusCompleted})
	assert.ErrorIs(t, err, ErrStatusRequiresEdit)
}

func TestEditEditorPrefill(t *testing.T) {
	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	appt := Appointment{
		ID:         "appt-1",
		PatientID:  "pat-1",
		ProviderID: "doc-2",
		StartTime:  start,
		EndTime:    start.Add(45 * time.Minute),
		Type:       TypeTelehealth,
		Status:     StatusConfirmed,
		Notes:      "bring labs",
	}
	e := NewEditEditor(nurse, appt)

	assert.Equal(t, "45", e.Form.Duration)
	assert.Equal(t, start, e.Anchor)
	assert.True(t, e.ShowStatus)
	assert.True(t, e.CanDelete)
	assert.Equal(t, StatusConfirmed, e.Form.Status)

	id, err := e.DeleteTarget()
	require.NoError(t, err)
	assert.Equal(t, "appt-1", id)

	payload, err := e.Submit(Form{Status: StatusCompleted, Notes: "bring labs"})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, payload.Status)
	assert.Equal(t, start.Add(45*time.Minute), payload.EndTime)
	assert.Equal(t, "doc-2", payload.ProviderID)
	assert.Equal(t, TypeTelehealth, payload.Type)
}

func TestEditEditorRoundsDuration(t *testing.T) {
	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	appt := Appointment{ID: "a", StartTime: start, EndTime: start.Add(29*time.Minute + 40*time.Second)}
	assert.Equal(t, "30", NewEditEditor(nurse, appt).Form.Duration)
}

func TestEditRejectsUnknownStatus(t *testing.T) {
	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	appt := Appointment{ID: "a", PatientID: "p", ProviderID: "d", StartTime: start, EndTime: start.Add(time.Hour), Type: TypeInPerson, Status: StatusScheduled}
	_, err := NewEditEditor(nurse, appt).Submit(Form{Status: "no-show"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDeleteRequiresEditMode(t *testing.T) {
	_, err := NewCreateEditor(nurse, time.Now()).DeleteTarget()
	assert.ErrorIs(t, err, ErrDeleteRequiresEdit)
}

func TestWithAnchorMovesStart(t *testing.T) {
	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	appt := Appointment{ID: "a", PatientID: "p", ProviderID: "d", StartTime: start, EndTime: start.Add(15 * time.Minute), Type: TypeInPerson, Status: StatusScheduled}
	moved := time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)

	payload, err := NewEditEditor(nurse, appt).WithAnchor(moved).Submit(Form{})
	require.NoError(t, err)
	assert.Equal(t, moved, payload.StartTime)
	assert.Equal(t, moved.Add(15*time.Minute), payload.EndTime)
}
