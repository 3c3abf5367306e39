// Package gateway is the boundary between the portal and the clinic tables.
// Rows cross it in snake_case wire form and leave as camelCase domain models.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/clinic-portal/internal/appointments"
	"github.com/wolfman30/clinic-portal/internal/charts"
	"github.com/wolfman30/clinic-portal/internal/patients"
	"github.com/wolfman30/clinic-portal/internal/session"
)

var (
	ErrNotFound = errors.New("gateway: not found")
	ErrInvalid  = errors.New("gateway: invalid payload")
)

// UserProfile is a login account from user_profiles.
type UserProfile struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	Role         session.Role `json:"role"`
	PasswordHash string       `json:"-"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// SessionUser projects the account onto the per-request identity.
func (u UserProfile) SessionUser() session.User {
	return session.User{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// Gateway reads and writes appointments, patient profiles, medical records and accounts.
type Gateway interface {
	ListAppointments(ctx context.Context, filter appointments.Filter) ([]appointments.Appointment, error)
	GetAppointment(ctx context.Context, id string) (appointments.Appointment, error)
	CreateAppointment(ctx context.Context, payload appointments.Payload) (appointments.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, payload appointments.Payload) (appointments.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error

	ListPatients(ctx context.Context) ([]patients.Profile, error)
	GetPatient(ctx context.Context, id string) (patients.Profile, error)
	GetPatientByUser(ctx context.Context, userID string) (patients.Profile, error)
	CreatePatient(ctx context.Context, profile patients.Profile) (patients.Profile, error)
	CountPatients(ctx context.Context) (int, error)

	ListRecords(ctx context.Context, patientID string, limit int) ([]charts.Record, error)
	GetRecord(ctx context.Context, id string) (charts.Record, error)
	CreateRecord(ctx context.Context, record charts.Record) (charts.Record, error)
	ListFiles(ctx context.Context, recordID string) ([]charts.File, error)
	CreateFile(ctx context.Context, file charts.File) (charts.File, error)

	GetUser(ctx context.Context, id string) (UserProfile, error)
	GetUserByEmail(ctx context.Context, email string) (UserProfile, error)
	ListProviders(ctx context.Context) ([]UserProfile, error)
}

// ScopeAppointments applies the row-level rules for the acting user:
// patients see their own appointments, doctors see the ones they provide,
// admins and nurses see everything.
func ScopeAppointments(ctx context.Context, g Gateway, user session.User, filter appointments.Filter) (appointments.Filter, error) {
	switch user.Role {
	case session.RolePatient:
		profile, err := g.GetPatientByUser(ctx, user.ID)
		if errors.Is(err, ErrNotFound) {
			return filter, patients.ErrProfileMissing
		}
		if err != nil {
			return filter, err
		}
		filter.PatientID = profile.ID
	case session.RoleDoctor:
		filter.ProviderID = user.ID
	case session.RoleAdmin, session.RoleNurse:
	default:
		return filter, session.ErrUnknownRole
	}
	return filter, nil
}
