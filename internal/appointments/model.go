package appointments

import (
	"math"
	"strings"
	"time"
)

// Type distinguishes in-clinic visits from video visits.
type Type string

const (
	TypeInPerson   Type = "in-person"
	TypeTelehealth Type = "telehealth"
)

// Valid reports whether t is a known appointment type.
func (t Type) Valid() bool {
	return t == TypeInPerson || t == TypeTelehealth
}

// Status tracks where an appointment is in its lifecycle.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Party is the joined name of a patient or provider.
type Party struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (p Party) Name() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Appointment is a booked visit between a patient and a provider.
type Appointment struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patientId"`
	ProviderID string    `json:"providerId"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Type       Type      `json:"type"`
	Status     Status    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	Patient    *Party    `json:"patient,omitempty"`
	Provider   *Party    `json:"provider,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// DurationMinutes is round((end-start)/1m).
func (a Appointment) DurationMinutes() int {
	return int(math.Round(float64(a.EndTime.Sub(a.StartTime)) / float64(time.Minute)))
}

// Payload is the write shape produced by the editor.
type Payload struct {
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Type       Type      `json:"type"`
	Notes      string    `json:"notes"`
	PatientID  string    `json:"patientId"`
	ProviderID string    `json:"providerId"`
	Status     Status    `json:"status"`
}

// Filter narrows appointment list queries. Zero values are unbounded.
type Filter struct {
	From       time.Time
	To         time.Time
	PatientID  string
	ProviderID string
	Limit      int
}

// SplitUpcoming separates appointments starting after now from those at or before it,
// keeping input order in both lists.
func SplitUpcoming(list []Appointment, now time.Time) (upcoming, past []Appointment) {
	upcoming, past = []Appointment{}, []Appointment{}
	for _, a := range list {
		if a.StartTime.After(now) {
			upcoming = append(upcoming, a)
		} else {
			past = append(past, a)
		}
	}
	return upcoming, past
}
