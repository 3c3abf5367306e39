package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/clinic-portal/internal/appointments"
	"github.com/wolfman30/clinic-portal/internal/charts"
	"github.com/wolfman30/clinic-portal/internal/patients"
	"github.com/wolfman30/clinic-portal/internal/session"
)

type appointmentRow struct {
	ID                string    `db:"id" validate:"omitempty,uuid"`
	PatientID         string    `db:"patient_id" validate:"required,uuid"`
	ProviderID        string    `db:"provider_id" validate:"required,uuid"`
	StartTime         time.Time `db:"start_time" validate:"required"`
	EndTime           time.Time `db:"end_time" validate:"required,gtfield=StartTime"`
	Type              string    `db:"type" validate:"required,oneof=in-person telehealth"`
	Status            string    `db:"status" validate:"required,oneof=scheduled confirmed completed cancelled"`
	Notes             string    `db:"notes"`
	PatientFirstName  string    `db:"patient_first_name"`
	PatientLastName   string    `db:"patient_last_name"`
	ProviderFirstName string    `db:"provider_first_name"`
	ProviderLastName  string    `db:"provider_last_name"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func appointmentRowFromPayload(id string, p appointments.Payload) appointmentRow {
	return appointmentRow{
		ID:         id,
		PatientID:  strings.TrimSpace(p.PatientID),
		ProviderID: strings.TrimSpace(p.ProviderID),
		StartTime:  p.StartTime.UTC(),
		EndTime:    p.EndTime.UTC(),
		Type:       string(p.Type),
		Status:     string(p.Status),
		Notes:      p.Notes,
	}
}

func (r appointmentRow) toAppointment() appointments.Appointment {
	a := appointments.Appointment{
		ID:         r.ID,
		PatientID:  r.PatientID,
		ProviderID: r.ProviderID,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Type:       appointments.Type(r.Type),
		Status:     appointments.Status(r.Status),
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.PatientFirstName != "" || r.PatientLastName != "" {
		a.Patient = &appointments.Party{FirstName: r.PatientFirstName, LastName: r.PatientLastName}
	}
	if r.ProviderFirstName != "" || r.ProviderLastName != "" {
		a.Provider = &appointments.Party{FirstName: r.ProviderFirstName, LastName: r.ProviderLastName}
	}
	return a
}

type patientRow struct {
	ID                string    `db:"id" validate:"omitempty,uuid"`
	UserID            string    `db:"user_id" validate:"required,uuid"`
	DateOfBirth       string    `db:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender            string    `db:"gender" validate:"required"`
	BloodType         string    `db:"blood_type" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Allergies         []string  `db:"allergies" validate:"dive,required"`
	Medications       []string  `db:"medications" validate:"dive,required"`
	MedicalConditions []string  `db:"medical_conditions" validate:"dive,required"`
	EmergencyContact  []byte    `db:"emergency_contact"`
	InsuranceInfo     []byte    `db:"insurance_info"`
	FirstName         string    `db:"first_name"`
	LastName          string    `db:"last_name"`
	Email             string    `db:"email"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func patientRowFromProfile(id string, p patients.Profile) (patientRow, error) {
	p.Normalize()
	contact, err := json.Marshal(p.EmergencyContact)
	if err != nil {
		return patientRow{}, fmt.Errorf("gateway: marshal emergency contact: %w", err)
	}
	insurance, err := json.Marshal(p.InsuranceInfo)
	if err != nil {
		return patientRow{}, fmt.Errorf("gateway: marshal insurance info: %w", err)
	}
	return patientRow{
		ID:                id,
		UserID:            strings.TrimSpace(p.UserID),
		DateOfBirth:       strings.TrimSpace(p.DateOfBirth),
		Gender:            strings.TrimSpace(p.Gender),
		BloodType:         strings.TrimSpace(p.BloodType),
		Allergies:         p.Allergies,
		Medications:       p.Medications,
		MedicalConditions: p.MedicalConditions,
		EmergencyContact:  contact,
		InsuranceInfo:     insurance,
	}, nil
}

func (r patientRow) toProfile() (patients.Profile, error) {
	p := patients.Profile{
		ID:                r.ID,
		UserID:            r.UserID,
		DateOfBirth:       r.DateOfBirth,
		Gender:            r.Gender,
		BloodType:         r.BloodType,
		Allergies:         r.Allergies,
		Medications:       r.Medications,
		MedicalConditions: r.MedicalConditions,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if len(r.EmergencyContact) > 0 {
		if err := json.Unmarshal(r.EmergencyContact, &p.EmergencyContact); err != nil {
			return patients.Profile{}, fmt.Errorf("gateway: decode emergency_contact: %w", err)
		}
	}
	if len(r.InsuranceInfo) > 0 {
		if err := json.Unmarshal(r.InsuranceInfo, &p.InsuranceInfo); err != nil {
			return patients.Profile{}, fmt.Errorf("gateway: decode insurance_info: %w", err)
		}
	}
	if r.FirstName != "" || r.LastName != "" || r.Email != "" {
		p.User = &patients.Account{FirstName: r.FirstName, LastName: r.LastName, Email: r.Email}
	}
	p.Normalize()
	return p, nil
}

type vitalsWire struct {
	Temperature      float64 `json:"temperature" validate:"gte=0"`
	BloodPressure    string  `json:"blood_pressure"`
	HeartRate        int     `json:"heart_rate" validate:"gte=0"`
	RespiratoryRate  int     `json:"respiratory_rate" validate:"gte=0"`
	OxygenSaturation int     `json:"oxygen_saturation" validate:"gte=0,lte=100"`
	Weight           float64 `json:"weight" validate:"gte=0"`
	Height           float64 `json:"height" validate:"gte=0"`
}

type recordRow struct {
	ID                string     `db:"id" validate:"omitempty,uuid"`
	PatientID         string     `db:"patient_id" validate:"required,uuid"`
	ProviderID        string     `db:"provider_id" validate:"required,uuid"`
	VisitDate         time.Time  `db:"visit_date" validate:"required"`
	VisitType         string     `db:"visit_type" validate:"required,oneof=routine follow-up acute chronic telehealth"`
	ChiefComplaint    string     `db:"chief_complaint"`
	Subjective        string     `db:"subjective"`
	Objective         string     `db:"objective"`
	Assessment        string     `db:"assessment"`
	Plan              string     `db:"plan"`
	Vitals            vitalsWire `db:"-"`
	VitalSigns        []byte     `db:"vital_signs"`
	ProviderFirstName string     `db:"provider_first_name"`
	ProviderLastName  string     `db:"provider_last_name"`
	CreatedAt         time.Time  `db:"created_at"`
}

func recordRowFromRecord(id string, rec charts.Record) (recordRow, error) {
	v := vitalsWire{
		Temperature:      rec.VitalSigns.Temperature,
		BloodPressure:    rec.VitalSigns.BloodPressure,
		HeartRate:        rec.VitalSigns.HeartRate,
		RespiratoryRate:  rec.VitalSigns.RespiratoryRate,
		OxygenSaturation: rec.VitalSigns.OxygenSaturation,
		Weight:           rec.VitalSigns.Weight,
		Height:           rec.VitalSigns.Height,
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return recordRow{}, fmt.Errorf("gateway: marshal vital signs: %w", err)
	}
	return recordRow{
		ID:             id,
		PatientID:      strings.TrimSpace(rec.PatientID),
		ProviderID:     strings.TrimSpace(rec.ProviderID),
		VisitDate:      rec.VisitDate.UTC(),
		VisitType:      string(rec.VisitType),
		ChiefComplaint: rec.ChiefComplaint,
		Subjective:     rec.Subjective,
		Objective:      rec.Objective,
		Assessment:     rec.Assessment,
		Plan:           rec.Plan,
		Vitals:         v,
		VitalSigns:     raw,
	}, nil
}

func (r recordRow) toRecord() (charts.Record, error) {
	var v vitalsWire
	if len(r.VitalSigns) > 0 {
		if err := json.Unmarshal(r.VitalSigns, &v); err != nil {
			return charts.Record{}, fmt.Errorf("gateway: decode vital_signs: %w", err)
		}
	}
	rec := charts.Record{
		ID:             r.ID,
		PatientID:      r.PatientID,
		ProviderID:     r.ProviderID,
		VisitDate:      r.VisitDate,
		VisitType:      charts.VisitType(r.VisitType),
		ChiefComplaint: r.ChiefComplaint,
		Subjective:     r.Subjective,
		Objective:      r.Objective,
		Assessment:     r.Assessment,
		Plan:           r.Plan,
		VitalSigns: charts.VitalSigns{
			Temperature:      v.Temperature,
			BloodPressure:    v.BloodPressure,
			HeartRate:        v.HeartRate,
			RespiratoryRate:  v.RespiratoryRate,
			OxygenSaturation: v.OxygenSaturation,
			Weight:           v.Weight,
			Height:           v.Height,
		},
		CreatedAt: r.CreatedAt,
	}
	if name := strings.TrimSpace(r.ProviderFirstName + " " + r.ProviderLastName); name != "" {
		rec.ProviderName = name
	}
	return rec, nil
}

type fileRow struct {
	ID         string    `db:"id" validate:"omitempty,uuid"`
	RecordID   string    `db:"record_id" validate:"required,uuid"`
	FileName   string    `db:"file_name" validate:"required"`
	FileType   string    `db:"file_type" validate:"required"`
	FileURL    string    `db:"file_url" validate:"required"`
	UploadedBy string    `db:"uploaded_by" validate:"required,uuid"`
	CreatedAt  time.Time `db:"created_at"`
}

func fileRowFromFile(id string, f charts.File) fileRow {
	return fileRow{
		ID:         id,
		RecordID:   strings.TrimSpace(f.RecordID),
		FileName:   strings.TrimSpace(f.FileName),
		FileType:   strings.TrimSpace(f.FileType),
		FileURL:    strings.TrimSpace(f.FileURL),
		UploadedBy: strings.TrimSpace(f.UploadedBy),
	}
}

func (r fileRow) toFile() charts.File {
	return charts.File{
		ID:         r.ID,
		RecordID:   r.RecordID,
		FileName:   r.FileName,
		FileType:   r.FileType,
		FileURL:    r.FileURL,
		UploadedBy: r.UploadedBy,
		CreatedAt:  r.CreatedAt,
	}
}

type userRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Role         string    `db:"role"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toUser() (UserProfile, error) {
	role, err := session.ParseRole(r.Role)
	if err != nil {
		return UserProfile{}, fmt.Errorf("gateway: user %s: %w", r.ID, err)
	}
	return UserProfile{
		ID:           r.ID,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Role:         role,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}, nil
}
