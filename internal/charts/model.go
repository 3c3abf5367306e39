package charts

import (
	"errors"
	"sort"
	"time"
)

// VisitType classifies a clinical encounter.
type VisitType string

const (
	VisitRoutine    VisitType = "routine"
	VisitFollowUp   VisitType = "follow-up"
	VisitAcute      VisitType = "acute"
	VisitChronic    VisitType = "chronic"
	VisitTelehealth VisitType = "telehealth"
)

var ErrInvalidVisitType = errors.New("charts: unknown visit type")

// Valid reports whether v is a known visit type.
func (v VisitType) Valid() bool {
	switch v {
	case VisitRoutine, VisitFollowUp, VisitAcute, VisitChronic, VisitTelehealth:
		return true
	}
	return false
}

// VitalSigns are measured at the visit.
type VitalSigns struct {
	Temperature      float64 `json:"temperature"`
	BloodPressure    string  `json:"bloodPressure"`
	HeartRate        int     `json:"heartRate"`
	RespiratoryRate  int     `json:"respiratoryRate"`
	OxygenSaturation int     `json:"oxygenSaturation"`
	Weight           float64 `json:"weight"`
	Height           float64 `json:"height"`
}

// DefaultVitals prefill the new-record form.
func DefaultVitals() VitalSigns {
	return VitalSigns{
		Temperature:      98.6,
		BloodPressure:    "120/80",
		HeartRate:        72,
		RespiratoryRate:  16,
		OxygenSaturation: 98,
		Weight:           150,
		Height:           70,
	}
}

// Record is a SOAP note. Records are append-only.
type Record struct {
	ID             string     `json:"id"`
	PatientID      string     `json:"patientId"`
	ProviderID     string     `json:"providerId"`
	VisitDate      time.Time  `json:"visitDate"`
	VisitType      VisitType  `json:"visitType"`
	ChiefComplaint string     `json:"chiefComplaint"`
	Subjective     string     `json:"subjective"`
	Objective      string     `json:"objective"`
	Assessment     string     `json:"assessment"`
	Plan           string     `json:"plan"`
	VitalSigns     VitalSigns `json:"vitalSigns"`
	ProviderName   string     `json:"providerName,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// File is an attachment stored against a record.
type File struct {
	ID         string    `json:"id"`
	RecordID   string    `json:"recordId"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileURL    string    `json:"fileUrl"`
	UploadedBy string    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewRecordDraft is the blank SOAP form with default vitals.
func NewRecordDraft(patientID string, now time.Time) Record {
	return Record{
		PatientID:  patientID,
		VisitDate:  now,
		VisitType:  VisitRoutine,
		VitalSigns: DefaultVitals(),
	}
}

// SortByVisitDesc orders records newest visit first.
func SortByVisitDesc(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].VisitDate.After(records[j].VisitDate)
	})
}
