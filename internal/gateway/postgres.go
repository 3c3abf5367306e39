package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/clinic-portal/internal/appointments"
	"github.com/wolfman30/clinic-portal/internal/charts"
	"github.com/wolfman30/clinic-portal/internal/patients"
)

var gatewayTracer = otel.Tracer("clinic.internal.gateway")

// DB is the subset of pgxpool.Pool the gateway uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// PostgresGateway stores clinic data in Postgres.
type PostgresGateway struct {
	db DB
}

// NewPostgresGateway initializes a gateway backed by pgxpool.
func NewPostgresGateway(pool *pgxpool.Pool) *PostgresGateway {
	if pool == nil {
		panic("gateway: pgx pool required")
	}
	return &PostgresGateway{db: pool}
}

// NewPostgresGatewayWithDB is used by tests to inject a mock connection.
func NewPostgresGatewayWithDB(db DB) *PostgresGateway {
	if db == nil {
		panic("gateway: db required")
	}
	return &PostgresGateway{db: db}
}

const appointmentSelect = `
	SELECT a.id, a.patient_id, a.provider_id, a.start_time, a.end_time, a.type, a.status, a.notes,
		COALESCE(pu.first_name, ''), COALESCE(pu.last_name, ''),
		COALESCE(pv.first_name, ''), COALESCE(pv.last_name, ''),
		a.created_at, a.updated_at
	FROM appointments a
	LEFT JOIN patient_profiles pp ON pp.id = a.patient_id
	LEFT JOIN user_profiles pu ON pu.id = pp.user_id
	LEFT JOIN user_profiles pv ON pv.id = a.provider_id
`

func scanAppointment(s scanner) (appointmentRow, error) {
	var r appointmentRow
	err := s.Scan(
		&r.ID, &r.PatientID, &r.ProviderID, &r.StartTime, &r.EndTime, &r.Type, &r.Status, &r.Notes,
		&r.PatientFirstName, &r.PatientLastName,
		&r.ProviderFirstName, &r.ProviderLastName,
		&r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// ListAppointments returns appointments matching filter ordered by start time.
func (g *PostgresGateway) ListAppointments(ctx context.Context, filter appointments.Filter) ([]appointments.Appointment, error) {
	ctx, span := gatewayTracer.Start(ctx, "gateway.appointments.list")
	defer span.End()

	var where []string
	var args []any
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if !filter.From.IsZero() {
		add("a.start_time >= $%d", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		add("a.start_time < $%d", filter.To.UTC())
	}
	if filter.PatientID != "" {
		add("a.patient_id = $%d", filter.PatientID)
	}
	if filter.ProviderID != "" {
		add("a.provider_id = $%d", filter.ProviderID)
	}

	query := appointmentSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.start_time"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	span.SetAttributes(
		attribute.String("clinic.filter.patient_id", filter.PatientID),
		attribute.String("clinic.filter.provider_id", filter.ProviderID),
	)

	rows, err := g.db.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("gateway: list appointments: %w", err)
	}
	defer rows.Close()

	out := []appointments.Appointment{}
	for rows.Next() {
		r, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("gateway: scan appointment: %w", err)
		}
		out = append(out, r.toAppointment())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gateway: list appointments: %w", err)
	}
	span.SetAttributes(attribute.Int("clinic.appointments.count", len(out)))
	return out, nil
}

// GetAppointment loads one appointment with joined names.
func (g *PostgresGateway) GetAppointment(ctx context.Context, id string) (appointments.Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return appointments.Appointment{}, ErrNotFound
	}
	r, err := scanAppointment(g.db.QueryRow(ctx, appointmentSelect+" WHERE a.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return appointments.Appointment{}, ErrNotFound
	}
	if err != nil {
		return appointments.Appointment{}, fmt.Errorf("gateway: get appointment: %w", err)
	}
	return r.toAppointment(), nil
}

// CreateAppointment validates and inserts a new appointment.
func (g *PostgresGateway) CreateAppointment(ctx context.Context, payload appointments.Payload) (appointments.Appointment, error) {
	ctx, span := gatewayTracer.Start(ctx, "gateway.appointments.create")
	defer span.End()

	row := appointmentRowFromPayload(uuid.NewString(), payload)
	if err := validateRow(row); err != nil {
		return appointments.Appointment{}, err
	}
	query := `
		INSERT INTO appointments (id, patient_id, provider_id, start_time, end_time, type, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	if err := g.db.QueryRow(ctx, query,
		row.ID, row.PatientID, row.ProviderID, row.StartTime, row.EndTime, row.Type, row.Status, row.Notes,
	).Scan(&row.CreatedAt, &row.UpdatedAt); err != nil {
		span.RecordError(err)
		return appointments.Appointment{}, fmt.Errorf("gateway: insert appointment: %w", err)
	}
	span.SetAttributes(attribute.String("clinic.appointment_id", row.ID))
	return row.toAppointment(), nil
}

// UpdateAppointment replaces the editable fields of an appointment.
func (g *PostgresGateway) UpdateAppointment(ctx context.Context, id string, payload appointments.Payload) (appointments.Appointment, error) {
	ctx, span := gatewayTracer.Start(ctx, "gateway.appointments.update")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.appointment_id", id))

	if _, err := uuid.Parse(id); err != nil {
		return appointments.Appointment{}, ErrNotFound
	}
	row := appointmentRowFromPayload(id, payload)
	if err := validateRow(row); err != nil {
		return appointments.Appointment{}, err
	}
	query := `
		UPDATE appointments
		SET patient_id = $2, provider_id = $3, start_time = $4, end_time = $5,
			type = $6, status = $7, notes = $8, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	err := g.db.QueryRow(ctx, query,
		row.ID, row.PatientID, row.ProviderID, row.StartTime, row.EndTime, row.Type, row.Status, row.Notes,
	).Scan(&row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return appointments.Appointment{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return appointments.Appointment{}, fmt.Errorf("gateway: update appointment: %w", err)
	}
	return row.toAppointment(), nil
}

// DeleteAppointment removes an appointment by id.
func (g *PostgresGateway) DeleteAppointment(ctx context.Context, id string) error {
	ctx, span := gatewayTracer.Start(ctx, "gateway.appointments.delete")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.appointment_id", id))

	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	ct, err := g.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("gateway: delete appointment: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const patientSelect = `
	SELECT pp.id, pp.user_id, to_char(pp.date_of_birth, 'YYYY-MM-DD'), pp.gender, COALESCE(pp.blood_type, ''),
		pp.allergies, pp.medications, pp.medical_conditions, pp.emergency_contact, pp.insurance_info,
		COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), COALESCE(u.email, ''),
		pp.created_at, pp.updated_at
	FROM patient_profiles pp
	LEFT JOIN user_profiles u ON u.id = pp.user_id
`

func scanPatient(s scanner) (patients.Profile, error) {
	var r patientRow
	if err := s.Scan(
		&r.ID, &r.UserID, &r.DateOfBirth, &r.Gender, &r.BloodType,
		&r.Allergies, &r.Medications, &r.MedicalConditions, &r.EmergencyContact, &r.InsuranceInfo,
		&r.FirstName, &r.LastName, &r.Email,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return patients.Profile{}, err
	}
	return r.toProfile()
}

// ListPatients returns every profile ordered by name.
func (g *PostgresGateway) ListPatients(ctx context.Context) ([]patients.Profile, error) {
	rows, err := g.db.Query(ctx, patientSelect+" ORDER BY u.last_name, u.first_name")
	if err != nil {
		return nil, fmt.Errorf("gateway: list patients: %w", err)
	}
	defer rows.Close()

	out := []patients.Profile{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("gateway: scan patient: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPatient loads a profile by id.
func (g *PostgresGateway) GetPatient(ctx context.Context, id string) (patients.Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return patients.Profile{}, ErrNotFound
	}
	return g.getPatient(ctx, patientSelect+" WHERE pp.id = $1", id)
}

// GetPatientByUser loads the profile owned by a login account.
func (g *PostgresGateway) GetPatientByUser(ctx context.Context, userID string) (patients.Profile, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return patients.Profile{}, ErrNotFound
	}
	return g.getPatient(ctx, patientSelect+" WHERE pp.user_id = $1 LIMIT 1", userID)
}

func (g *PostgresGateway) getPatient(ctx context.Context, query string, arg string) (patients.Profile, error) {
	p, err := scanPatient(g.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return patients.Profile{}, ErrNotFound
	}
	if err != nil {
		return patients.Profile{}, fmt.Errorf("gateway: get patient: %w", err)
	}
	return p, nil
}

// CreatePatient validates and inserts a patient profile.
func (g *PostgresGateway) CreatePatient(ctx context.Context, profile patients.Profile) (patients.Profile, error) {
	row, err := patientRowFromProfile(uuid.NewString(), profile)
	if err != nil {
		return patients.Profile{}, err
	}
	if err := validateRow(row); err != nil {
		return patients.Profile{}, err
	}
	query := `
		INSERT INTO patient_profiles (id, user_id, date_of_birth, gender, blood_type,
			allergies, medications, medical_conditions, emergency_contact, insurance_info)
		VALUES ($1, $2, $3::text::date, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	if err := g.db.QueryRow(ctx, query,
		row.ID, row.UserID, row.DateOfBirth, row.Gender, row.BloodType,
		row.Allergies, row.Medications, row.MedicalConditions, row.EmergencyContact, row.InsuranceInfo,
	).Scan(&row.CreatedAt, &row.UpdatedAt); err != nil {
		return patients.Profile{}, fmt.Errorf("gateway: insert patient: %w", err)
	}
	return row.toProfile()
}

// CountPatients returns the number of patient profiles.
func (g *PostgresGateway) CountPatients(ctx context.Context) (int, error) {
	var n int
	if err := g.db.QueryRow(ctx, `SELECT COUNT(*) FROM patient_profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("gateway: count patients: %w", err)
	}
	return n, nil
}

const recordSelect = `
	SELECT r.id, r.patient_id, r.provider_id, r.visit_date, r.visit_type, r.chief_complaint,
		r.subjective, r.objective, r.assessment, r.plan, r.vital_signs,
		COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), r.created_at
	FROM medical_records r
	LEFT JOIN user_profiles u ON u.id = r.provider_id
`

func scanRecord(s scanner) (charts.Record, error) {
	var r recordRow
	if err := s.Scan(
		&r.ID, &r.PatientID, &r.ProviderID, &r.VisitDate, &r.VisitType, &r.ChiefComplaint,
		&r.Subjective, &r.Objective, &r.Assessment, &r.Plan, &r.VitalSigns,
		&r.ProviderFirstName, &r.ProviderLastName, &r.CreatedAt,
	); err != nil {
		return charts.Record{}, err
	}
	return r.toRecord()
}

// ListRecords returns a patient's records, newest visit first. A positive limit caps the result.
func (g *PostgresGateway) ListRecords(ctx context.Context, patientID string, limit int) ([]charts.Record, error) {
	if _, err := uuid.Parse(patientID); err != nil {
		return []charts.Record{}, nil
	}
	query := recordSelect + " WHERE r.patient_id = $1 ORDER BY r.visit_date DESC"
	args := []any{patientID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := g.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("gateway: list records: %w", err)
	}
	defer rows.Close()

	out := []charts.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("gateway: scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetRecord loads a single record.
func (g *PostgresGateway) GetRecord(ctx context.Context, id string) (charts.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return charts.Record{}, ErrNotFound
	}
	rec, err := scanRecord(g.db.QueryRow(ctx, recordSelect+" WHERE r.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return charts.Record{}, ErrNotFound
	}
	if err != nil {
		return charts.Record{}, fmt.Errorf("gateway: get record: %w", err)
	}
	return rec, nil
}

// CreateRecord validates and appends a SOAP note.
func (g *PostgresGateway) CreateRecord(ctx context.Context, record charts.Record) (charts.Record, error) {
	row, err := recordRowFromRecord(uuid.NewString(), record)
	if err != nil {
		return charts.Record{}, err
	}
	if err := validateRow(row); err != nil {
		return charts.Record{}, err
	}
	query := `
		INSERT INTO medical_records (id, patient_id, provider_id, visit_date, visit_type, chief_complaint,
			subjective, objective, assessment, plan, vital_signs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`
	if err := g.db.QueryRow(ctx, query,
		row.ID, row.PatientID, row.ProviderID, row.VisitDate, row.VisitType, row.ChiefComplaint,
		row.Subjective, row.Objective, row.Assessment, row.Plan, row.VitalSigns,
	).Scan(&row.CreatedAt); err != nil {
		return charts.Record{}, fmt.Errorf("gateway: insert record: %w", err)
	}
	return row.toRecord()
}

// ListFiles returns the attachments of a record in upload order.
func (g *PostgresGateway) ListFiles(ctx context.Context, recordID string) ([]charts.File, error) {
	if _, err := uuid.Parse(recordID); err != nil {
		return []charts.File{}, nil
	}
	rows, err := g.db.Query(ctx, `
		SELECT id, record_id, file_name, file_type, file_url, uploaded_by, created_at
		FROM medical_files
		WHERE record_id = $1
		ORDER BY created_at
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("gateway: list files: %w", err)
	}
	defer rows.Close()

	out := []charts.File{}
	for rows.Next() {
		var r fileRow
		if err := rows.Scan(&r.ID, &r.RecordID, &r.FileName, &r.FileType, &r.FileURL, &r.UploadedBy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("gateway: scan file: %w", err)
		}
		out = append(out, r.toFile())
	}
	return out, rows.Err()
}

// CreateFile records an uploaded attachment.
func (g *PostgresGateway) CreateFile(ctx context.Context, file charts.File) (charts.File, error) {
	row := fileRowFromFile(uuid.NewString(), file)
	if err := validateRow(row); err != nil {
		return charts.File{}, err
	}
	query := `
		INSERT INTO medical_files (id, record_id, file_name, file_type, file_url, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	if err := g.db.QueryRow(ctx, query,
		row.ID, row.RecordID, row.FileName, row.FileType, row.FileURL, row.UploadedBy,
	).Scan(&row.CreatedAt); err != nil {
		return charts.File{}, fmt.Errorf("gateway: insert file: %w", err)
	}
	return row.toFile(), nil
}

const userSelect = `
	SELECT id, email, first_name, last_name, role, COALESCE(password_hash, ''), created_at
	FROM user_profiles
`

func scanUser(s scanner) (UserProfile, error) {
	var r userRow
	if err := s.Scan(&r.ID, &r.Email, &r.FirstName, &r.LastName, &r.Role, &r.PasswordHash, &r.CreatedAt); err != nil {
		return UserProfile{}, err
	}
	return r.toUser()
}

// GetUser loads an account by id.
func (g *PostgresGateway) GetUser(ctx context.Context, id string) (UserProfile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return UserProfile{}, ErrNotFound
	}
	return g.getUser(ctx, userSelect+" WHERE id = $1", id)
}

// GetUserByEmail loads an account by case-insensitive email.
func (g *PostgresGateway) GetUserByEmail(ctx context.Context, email string) (UserProfile, error) {
	return g.getUser(ctx, userSelect+" WHERE lower(email) = lower($1)", strings.TrimSpace(email))
}

func (g *PostgresGateway) getUser(ctx context.Context, query, arg string) (UserProfile, error) {
	u, err := scanUser(g.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return UserProfile{}, ErrNotFound
	}
	if err != nil {
		return UserProfile{}, fmt.Errorf("gateway: get user: %w", err)
	}
	return u, nil
}

// ListProviders returns doctor accounts for the editor's provider picker.
func (g *PostgresGateway) ListProviders(ctx context.Context) ([]UserProfile, error) {
	rows, err := g.db.Query(ctx, userSelect+" WHERE role = 'doctor' ORDER BY last_name, first_name")
	if err != nil {
		return nil, fmt.Errorf("gateway: list providers: %w", err)
	}
	defer rows.Close()

	out := []UserProfile{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("gateway: scan provider: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

var _ Gateway = (*PostgresGateway)(nil)
