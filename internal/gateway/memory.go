package gateway

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/internal/appointments"
	"github.com/wolfman30/clinic-portal/internal/charts"
	"github.com/wolfman30/clinic-portal/internal/patients"
)

// MemoryGateway keeps clinic data in process memory. It applies the same
// validation and ordering rules as PostgresGateway.
type MemoryGateway struct {
	mu           sync.RWMutex
	appointments map[string]appointmentRow
	patients     map[string]patientRow
	records      map[string]recordRow
	files        map[string]fileRow
	users        map[string]userRow
	now          func() time.Time
}

// NewMemoryGateway creates an empty in-memory gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		appointments: make(map[string]appointmentRow),
		patients:     make(map[string]patientRow),
		records:      make(map[string]recordRow),
		files:        make(map[string]fileRow),
		users:        make(map[string]userRow),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// PutUser inserts or replaces an account.
func (g *MemoryGateway) PutUser(u UserProfile) UserProfile {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = g.now()
	}
	g.mu.Lock()
	g.users[u.ID] = userRow{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
	g.mu.Unlock()
	return u
}

func (g *MemoryGateway) joinAppointment(r appointmentRow) appointments.Appointment {
	if p, ok := g.patients[r.PatientID]; ok {
		if u, ok := g.users[p.UserID]; ok {
			r.PatientFirstName, r.PatientLastName = u.FirstName, u.LastName
		}
	}
	if u, ok := g.users[r.ProviderID]; ok {
		r.ProviderFirstName, r.ProviderLastName = u.FirstName, u.LastName
	}
	return r.toAppointment()
}

// ListAppointments returns appointments matching filter ordered by start time.
func (g *MemoryGateway) ListAppointments(ctx context.Context, filter appointments.Filter) ([]appointments.Appointment, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rows := make([]appointmentRow, 0, len(g.appointments))
	for _, r := range g.appointments {
		if !filter.From.IsZero() && r.StartTime.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !r.StartTime.Before(filter.To) {
			continue
		}
		if filter.PatientID != "" && r.PatientID != filter.PatientID {
			continue
		}
		if filter.ProviderID != "" && r.ProviderID != filter.ProviderID {
			continue
		}
		rows = append(rows, r)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StartTime.Equal(rows[j].StartTime) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].StartTime.Before(rows[j].StartTime)
	})
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}

	out := make([]appointments.Appointment, 0, len(rows))
	for _, r := range rows {
		out = append(out, g.joinAppointment(r))
	}
	return out, nil
}

// GetAppointment loads one appointment with joined names.
func (g *MemoryGateway) GetAppointment(ctx context.Context, id string) (appointments.Appointment, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.appointments[id]
	if !ok {
		return appointments.Appointment{}, ErrNotFound
	}
	return g.joinAppointment(r), nil
}

// CreateAppointment validates and stores a new appointment.
func (g *MemoryGateway) CreateAppointment(ctx context.Context, payload appointments.Payload) (appointments.Appointment, error) {
	row := appointmentRowFromPayload(uuid.NewString(), payload)
	if err := validateRow(row); err != nil {
		return appointments.Appointment{}, err
	}
	row.CreatedAt = g.now()
	row.UpdatedAt = row.CreatedAt

	g.mu.Lock()
	defer g.mu.Unlock()
	g.appointments[row.ID] = row
	return g.joinAppointment(row), nil
}

// UpdateAppointment replaces the editable fields of an appointment.
func (g *MemoryGateway) UpdateAppointment(ctx context.Context, id string, payload appointments.Payload) (appointments.Appointment, error) {
	row := appointmentRowFromPayload(id, payload)
	if err := validateRow(row); err != nil {
		return appointments.Appointment{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	existing, ok := g.appointments[id]
	if !ok {
		return appointments.Appointment{}, ErrNotFound
	}
	row.CreatedAt = existing.CreatedAt
	row.UpdatedAt = g.now()
	g.appointments[id] = row
	return g.joinAppointment(row), nil
}

// DeleteAppointment removes an appointment by id.
func (g *MemoryGateway) DeleteAppointment(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(g.appointments, id)
	return nil
}

func (g *MemoryGateway) joinPatient(r patientRow) (patients.Profile, error) {
	if u, ok := g.users[r.UserID]; ok {
		r.FirstName, r.LastName, r.Email = u.FirstName, u.LastName, u.Email
	}
	return r.toProfile()
}

// ListPatients returns every profile ordered by name.
func (g *MemoryGateway) ListPatients(ctx context.Context) ([]patients.Profile, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]patients.Profile, 0, len(g.patients))
	for _, r := range g.patients {
		p, err := g.joinPatient(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].DisplayName()) < strings.ToLower(out[j].DisplayName())
	})
	return out, nil
}

// GetPatient loads a profile by id.
func (g *MemoryGateway) GetPatient(ctx context.Context, id string) (patients.Profile, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.patients[id]
	if !ok {
		return patients.Profile{}, ErrNotFound
	}
	return g.joinPatient(r)
}

// GetPatientByUser loads the profile owned by a login account.
func (g *MemoryGateway) GetPatientByUser(ctx context.Context, userID string) (patients.Profile, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, r := range g.patients {
		if r.UserID == userID {
			return g.joinPatient(r)
		}
	}
	return patients.Profile{}, ErrNotFound
}

// CreatePatient validates and stores a patient profile.
func (g *MemoryGateway) CreatePatient(ctx context.Context, profile patients.Profile) (patients.Profile, error) {
	row, err := patientRowFromProfile(uuid.NewString(), profile)
	if err != nil {
		return patients.Profile{}, err
	}
	if err := validateRow(row); err != nil {
		return patients.Profile{}, err
	}
	row.CreatedAt = g.now()
	row.UpdatedAt = row.CreatedAt

	g.mu.Lock()
	defer g.mu.Unlock()
	g.patients[row.ID] = row
	return g.joinPatient(row)
}

// CountPatients returns the number of patient profiles.
func (g *MemoryGateway) CountPatients(ctx context.Context) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.patients), nil
}

func (g *MemoryGateway) joinRecord(r recordRow) (charts.Record, error) {
	if u, ok := g.users[r.ProviderID]; ok {
		r.ProviderFirstName, r.ProviderLastName = u.FirstName, u.LastName
	}
	return r.toRecord()
}

// ListRecords returns a patient's records, newest visit first.
func (g *MemoryGateway) ListRecords(ctx context.Context, patientID string, limit int) ([]charts.Record, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := []charts.Record{}
	for _, r := range g.records {
		if r.PatientID != patientID {
			continue
		}
		rec, err := g.joinRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	charts.SortByVisitDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetRecord loads a single record.
func (g *MemoryGateway) GetRecord(ctx context.Context, id string) (charts.Record, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.records[id]
	if !ok {
		return charts.Record{}, ErrNotFound
	}
	return g.joinRecord(r)
}

// CreateRecord validates and appends a SOAP note.
func (g *MemoryGateway) CreateRecord(ctx context.Context, record charts.Record) (charts.Record, error) {
	row, err := recordRowFromRecord(uuid.NewString(), record)
	if err != nil {
		return charts.Record{}, err
	}
	if err := validateRow(row); err != nil {
		return charts.Record{}, err
	}
	row.CreatedAt = g.now()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.records[row.ID] = row
	return g.joinRecord(row)
}

// ListFiles returns the attachments of a record in upload order.
func (g *MemoryGateway) ListFiles(ctx context.Context, recordID string) ([]charts.File, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := []charts.File{}
	for _, r := range g.files {
		if r.RecordID == recordID {
			out = append(out, r.toFile())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// CreateFile records an uploaded attachment.
func (g *MemoryGateway) CreateFile(ctx context.Context, file charts.File) (charts.File, error) {
	row := fileRowFromFile(uuid.NewString(), file)
	if err := validateRow(row); err != nil {
		return charts.File{}, err
	}
	row.CreatedAt = g.now()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.files[row.ID] = row
	return row.toFile(), nil
}

// GetUser loads an account by id.
func (g *MemoryGateway) GetUser(ctx context.Context, id string) (UserProfile, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.users[id]
	if !ok {
		return UserProfile{}, ErrNotFound
	}
	return r.toUser()
}

// GetUserByEmail loads an account by case-insensitive email.
func (g *MemoryGateway) GetUserByEmail(ctx context.Context, email string) (UserProfile, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	email = strings.TrimSpace(email)
	for _, r := range g.users {
		if strings.EqualFold(r.Email, email) {
			return r.toUser()
		}
	}
	return UserProfile{}, ErrNotFound
}

// ListProviders returns doctor accounts ordered by name.
func (g *MemoryGateway) ListProviders(ctx context.Context) ([]UserProfile, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := []UserProfile{}
	for _, r := range g.users {
		if r.Role != "doctor" {
			continue
		}
		u, err := r.toUser()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastName == out[j].LastName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].LastName < out[j].LastName
	})
	return out, nil
}

var _ Gateway = (*MemoryGateway)(nil)
