package patients

import "time"

// EmergencyContact is the person to call on the patient's behalf.
type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

// InsuranceInfo is the patient's coverage on file.
type InsuranceInfo struct {
	Provider     string `json:"provider"`
	PolicyNumber string `json:"policyNumber"`
	GroupNumber  string `json:"groupNumber"`
}

// Account is the joined login account of a patient.
type Account struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

// Profile is a patient's demographic and clinical summary.
type Profile struct {
	ID                string           `json:"id"`
	UserID            string           `json:"userId"`
	DateOfBirth       string           `json:"dateOfBirth"`
	Gender            string           `json:"gender"`
	BloodType         string           `json:"bloodType,omitempty"`
	Allergies         []string         `json:"allergies"`
	Medications       []string         `json:"medications"`
	MedicalConditions []string         `json:"medicalConditions"`
	EmergencyContact  EmergencyContact `json:"emergencyContact"`
	InsuranceInfo     InsuranceInfo    `json:"insuranceInfo"`
	User              *Account         `json:"user,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// DisplayName is the joined account name, or the profile id when no account is joined.
func (p Profile) DisplayName() string {
	if p.User == nil {
		return p.ID
	}
	return p.User.FirstName + " " + p.User.LastName
}

// Normalize replaces nil lists with empty ones so they encode as [].
func (p *Profile) Normalize() {
	if p.Allergies == nil {
		p.Allergies = []string{}
	}
	if p.Medications == nil {
		p.Medications = []string{}
	}
	if p.MedicalConditions == nil {
		p.MedicalConditions = []string{}
	}
}
