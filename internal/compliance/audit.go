// Package compliance records who touched which patient's health information.
package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/wolfman30/clinic-portal/internal/session"
)

// AuditEventType represents the kind of PHI access.
type AuditEventType string

const (
	EventProfileViewed  AuditEventType = "phi.profile_viewed"
	EventPatientCreated AuditEventType = "phi.patient_created"
	EventRecordsViewed  AuditEventType = "phi.records_viewed"
	EventRecordCreated  AuditEventType = "phi.record_created"
	EventFileUploaded   AuditEventType = "phi.file_uploaded"
	EventFileDownloaded AuditEventType = "phi.file_downloaded"
	EventScheduleViewed AuditEventType = "phi.schedule_viewed"
)

// AuditEvent represents an immutable PHI access record.
type AuditEvent struct {
	ID           string          `json:"id"`
	EventType    AuditEventType  `json:"event_type"`
	ClinicID     string          `json:"clinic_id"`
	ActorID      string          `json:"actor_id"`
	ActorRole    string          `json:"actor_role"`
	PatientID    string          `json:"patient_id,omitempty"`
	ResourceType string          `json:"resource_type"`
	ResourceIDs  []string        `json:"resource_ids"`
	Details      json.RawMessage `json:"details,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// AuditService writes and queries audit_events.
type AuditService struct {
	db       *sql.DB
	clinicID string
}

// NewAuditService returns nil for a nil db; a nil service records nothing.
func NewAuditService(db *sql.DB, clinicID string) *AuditService {
	if db == nil {
		return nil
	}
	return &AuditService{db: db, clinicID: clinicID}
}

// LogEvent records an audit event.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	if s == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.ClinicID == "" {
		event.ClinicID = s.clinicID
	}
	if event.ResourceIDs == nil {
		event.ResourceIDs = []string{}
	}
	details := []byte(event.Details)
	if len(details) == 0 {
		details = []byte("{}")
	}

	query := `
		INSERT INTO audit_events (
			id, event_type, clinic_id, actor_id, actor_role,
			patient_id, resource_type, resource_ids, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.ClinicID,
		event.ActorID,
		event.ActorRole,
		nullString(event.PatientID),
		event.ResourceType,
		pq.Array(event.ResourceIDs),
		details,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("compliance: failed to log audit event: %w", err)
	}
	return nil
}

// LogAccess records that actor touched resourceIDs of resourceType belonging to patientID.
func (s *AuditService) LogAccess(ctx context.Context, actor session.User, eventType AuditEventType, patientID, resourceType string, resourceIDs ...string) error {
	return s.LogEvent(ctx, AuditEvent{
		EventType:    eventType,
		ActorID:      actor.ID,
		ActorRole:    string(actor.Role),
		PatientID:    patientID,
		ResourceType: resourceType,
		ResourceIDs:  resourceIDs,
	})
}

// AuditFilter specifies criteria for querying audit events.
type AuditFilter struct {
	PatientID string
	ActorID   string
	EventType AuditEventType
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

// QueryEvents retrieves audit events, newest first.
func (s *AuditService) QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	if s == nil {
		return []AuditEvent{}, nil
	}
	query := `
		SELECT id, event_type, clinic_id, actor_id, actor_role,
			   patient_id, resource_type, resource_ids, details, created_at
		FROM audit_events
		WHERE clinic_id = $1
	`
	args := []any{s.clinicID}
	argIdx := 2

	if filter.PatientID != "" {
		query += fmt.Sprintf(" AND patient_id = $%d", argIdx)
		args = append(args, filter.PatientID)
		argIdx++
	}
	if filter.ActorID != "" {
		query += fmt.Sprintf(" AND actor_id = $%d", argIdx)
		args = append(args, filter.ActorID)
		argIdx++
	}
	if filter.EventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argIdx)
		args = append(args, filter.EventType)
		argIdx++
	}
	if !filter.StartTime.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.StartTime)
		argIdx++
	}
	if !filter.EndTime.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, filter.EndTime)
	}

	query += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT %d", limit)
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("compliance: failed to query audit events: %w", err)
	}
	defer rows.Close()

	events := []AuditEvent{}
	for rows.Next() {
		var e AuditEvent
		var patientID sql.NullString
		var details []byte
		if err := rows.Scan(
			&e.ID, &e.EventType, &e.ClinicID, &e.ActorID, &e.ActorRole,
			&patientID, &e.ResourceType, pq.Array(&e.ResourceIDs), &details, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("compliance: failed to scan audit event: %w", err)
		}
		e.PatientID = patientID.String
		e.Details = json.RawMessage(details)
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
