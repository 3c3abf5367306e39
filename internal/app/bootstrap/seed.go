package bootstrap

import (
	"context"

	"github.com/wolfman30/clinic-portal/internal/auth"
	"github.com/wolfman30/clinic-portal/internal/gateway"
	"github.com/wolfman30/clinic-portal/internal/patients"
	"github.com/wolfman30/clinic-portal/internal/session"
)

// DevPassword signs in every seeded persona in memory mode.
const DevPassword = "clinic-dev"

// SeedMemoryGateway adds the development personas and the patient persona's profile.
func SeedMemoryGateway(ctx context.Context, gw *gateway.MemoryGateway) error {
	hash, err := auth.HashPassword(DevPassword)
	if err != nil {
		return err
	}
	for _, role := range []session.Role{session.RoleAdmin, session.RoleDoctor, session.RoleNurse, session.RolePatient} {
		persona := auth.DevPersonas[role]
		gw.PutUser(gateway.UserProfile{
			ID:           persona.ID,
			Email:        persona.Email,
			FirstName:    persona.FirstName,
			LastName:     persona.LastName,
			Role:         persona.Role,
			PasswordHash: hash,
		})
	}

	_, err = gw.CreatePatient(ctx, patients.Profile{
		UserID:            auth.DevPersonas[session.RolePatient].ID,
		DateOfBirth:       "1985-06-15",
		Gender:            "male",
		BloodType:         "O+",
		Allergies:         []string{"Penicillin"},
		Medications:       []string{"Lisinopril 10mg"},
		MedicalConditions: []string{"Hypertension"},
		EmergencyContact: patients.EmergencyContact{
			Name:         "Jane Doe",
			Relationship: "Spouse",
			Phone:        "555-0102",
		},
		InsuranceInfo: patients.InsuranceInfo{
			Provider:     "Blue Cross",
			PolicyNumber: "BC123456",
			GroupNumber:  "GRP789",
		},
	})
	return err
}
