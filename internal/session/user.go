package session

import (
	"errors"
	"strings"
)

// Role selects which route tree and row filters apply to a user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RoleNurse   Role = "nurse"
	RolePatient Role = "patient"
)

var ErrUnknownRole = errors.New("session: unknown role")

// ParseRole normalizes a role string.
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleAdmin, RoleDoctor, RoleNurse, RolePatient:
		return r, nil
	default:
		return "", ErrUnknownRole
	}
}

// IsStaff reports whether the role uses the staff dashboard.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleDoctor || r == RoleNurse
}

// User is the authenticated actor for a single request.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// DisplayName joins first and last name.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
