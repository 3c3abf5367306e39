// Package clinic holds the per-clinic settings the portal renders with.
package clinic

import (
	"fmt"
	"strings"
	"time"
)

// DayHours represents the opening hours for a single day.
// Nil means the clinic is closed that day.
type DayHours struct {
	Open  string `json:"open"`  // "08:00"
	Close string `json:"close"` // "18:00"
}

// BusinessHours maps day names to their hours.
type BusinessHours struct {
	Monday    *DayHours `json:"monday,omitempty"`
	Tuesday   *DayHours `json:"tuesday,omitempty"`
	Wednesday *DayHours `json:"wednesday,omitempty"`
	Thursday  *DayHours `json:"thursday,omitempty"`
	Friday    *DayHours `json:"friday,omitempty"`
	Saturday  *DayHours `json:"saturday,omitempty"`
	Sunday    *DayHours `json:"sunday,omitempty"`
}

// NotificationPrefs controls appointment emails to patients.
type NotificationPrefs struct {
	EmailEnabled    bool `json:"email_enabled"`
	NotifyOnBooked  bool `json:"notify_on_booked"`
	NotifyOnChanged bool `json:"notify_on_changed"`
	NotifyOnDeleted bool `json:"notify_on_deleted"`
}

// Settings is the clinic-wide configuration.
type Settings struct {
	ClinicID      string            `json:"clinic_id"`
	Name          string            `json:"name"`
	Timezone      string            `json:"timezone"`
	SupportEmail  string            `json:"support_email,omitempty"`
	SupportPhone  string            `json:"support_phone,omitempty"`
	Address       string            `json:"address,omitempty"`
	BusinessHours BusinessHours     `json:"business_hours"`
	Notifications NotificationPrefs `json:"notifications"`
	UpdatedAt     time.Time         `json:"updated_at,omitempty"`
}

// DefaultSettings returns weekday 08:00-18:00 hours in timezone.
func DefaultSettings(clinicID, timezone string) *Settings {
	weekday := &DayHours{Open: "08:00", Close: "18:00"}
	if strings.TrimSpace(timezone) == "" {
		timezone = "America/New_York"
	}
	return &Settings{
		ClinicID: clinicID,
		Name:     "Clinic Portal",
		Timezone: timezone,
		BusinessHours: BusinessHours{
			Monday:    weekday,
			Tuesday:   weekday,
			Wednesday: weekday,
			Thursday:  weekday,
			Friday:    weekday,
		},
		Notifications: NotificationPrefs{
			EmailEnabled:    true,
			NotifyOnBooked:  true,
			NotifyOnChanged: true,
			NotifyOnDeleted: true,
		},
	}
}

// Location loads Timezone, falling back to UTC.
func (s *Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SupportContact is appended to "contact support" messages.
func (s *Settings) SupportContact() string {
	switch {
	case s.SupportEmail != "" && s.SupportPhone != "":
		return fmt.Sprintf("%s or %s", s.SupportEmail, s.SupportPhone)
	case s.SupportEmail != "":
		return s.SupportEmail
	default:
		return s.SupportPhone
	}
}

// Validate checks the timezone and hour strings.
func (s *Settings) Validate() error {
	if _, err := time.LoadLocation(s.Timezone); err != nil || s.Timezone == "" {
		return fmt.Errorf("clinic: unknown timezone %q", s.Timezone)
	}
	for _, day := range s.BusinessHours.days() {
		if day == nil {
			continue
		}
		open, err := time.Parse("15:04", day.Open)
		if err != nil {
			return fmt.Errorf("clinic: invalid open time %q", day.Open)
		}
		closing, err := time.Parse("15:04", day.Close)
		if err != nil {
			return fmt.Errorf("clinic: invalid close time %q", day.Close)
		}
		if !closing.After(open) {
			return fmt.Errorf("clinic: close %s must be after open %s", day.Close, day.Open)
		}
	}
	return nil
}

func (b *BusinessHours) days() []*DayHours {
	return []*DayHours{b.Sunday, b.Monday, b.Tuesday, b.Wednesday, b.Thursday, b.Friday, b.Saturday}
}

// GetHoursForDay returns the hours for weekday, or nil when closed.
func (b *BusinessHours) GetHoursForDay(weekday time.Weekday) *DayHours {
	days := b.days()
	if int(weekday) < 0 || int(weekday) >= len(days) {
		return nil
	}
	return days[weekday]
}

// HasAnyHours returns true if at least one day has business hours configured.
func (b *BusinessHours) HasAnyHours() bool {
	for _, d := range b.days() {
		if d != nil {
			return true
		}
	}
	return false
}

// IsOpenAt checks if the clinic is open at t in the clinic's timezone.
// No configured hours at all means appointment-only, treated as always open.
func (s *Settings) IsOpenAt(t time.Time) bool {
	local := t.In(s.Location())
	hours := s.BusinessHours.GetHoursForDay(local.Weekday())
	if hours == nil {
		return !s.BusinessHours.HasAnyHours()
	}
	open, err := time.Parse("15:04", hours.Open)
	if err != nil {
		return false
	}
	closing, err := time.Parse("15:04", hours.Close)
	if err != nil {
		return false
	}
	current := local.Hour()*60 + local.Minute()
	return current >= open.Hour()*60+open.Minute() && current < closing.Hour()*60+closing.Minute()
}
