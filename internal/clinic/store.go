package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store provides persistence for clinic settings.
type Store struct {
	redis    *redis.Client
	timezone string
	now      func() time.Time
}

// NewStore creates a redis-backed settings store. timezone seeds the defaults
// returned before any settings are saved.
func NewStore(redisClient *redis.Client, timezone string) *Store {
	return &Store{redis: redisClient, timezone: timezone, now: time.Now}
}

func (s *Store) key(clinicID string) string {
	return fmt.Sprintf("clinic:settings:%s", clinicID)
}

// Get retrieves clinic settings, returning defaults if not found.
func (s *Store) Get(ctx context.Context, clinicID string) (*Settings, error) {
	data, err := s.redis.Get(ctx, s.key(clinicID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return DefaultSettings(clinicID, s.timezone), nil
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: get settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("clinic: unmarshal settings: %w", err)
	}
	return &settings, nil
}

// Set saves clinic settings.
func (s *Store) Set(ctx context.Context, settings *Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	settings.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("clinic: marshal settings: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(settings.ClinicID), data, 0).Err(); err != nil {
		return fmt.Errorf("clinic: set settings: %w", err)
	}
	return nil
}

// MemoryStore keeps settings in process when no redis is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	settings map[string]Settings
	timezone string
}

func NewMemoryStore(timezone string) *MemoryStore {
	return &MemoryStore{settings: make(map[string]Settings), timezone: timezone}
}

func (m *MemoryStore) Get(ctx context.Context, clinicID string) (*Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.settings[clinicID]; ok {
		return &s, nil
	}
	return DefaultSettings(clinicID, m.timezone), nil
}

func (m *MemoryStore) Set(ctx context.Context, settings *Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	settings.UpdatedAt = time.Now().UTC()
	m.settings[settings.ClinicID] = *settings
	return nil
}

// SettingsStore is implemented by Store and MemoryStore.
type SettingsStore interface {
	Get(ctx context.Context, clinicID string) (*Settings, error)
	Set(ctx context.Context, settings *Settings) error
}

var (
	_ SettingsStore = (*Store)(nil)
	_ SettingsStore = (*MemoryStore)(nil)
)
