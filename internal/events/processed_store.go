package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	processedLookupSQL = `SELECT 1 FROM processed_events WHERE consumer = $1 AND event_id = $2`
	processedInsertSQL = `
		INSERT INTO processed_events (consumer, event_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	processedPurgeSQL = `DELETE FROM processed_events WHERE processed_at < $1`
)

// ProcessedStore is the per-consumer ledger of handled outbox event ids.
// Redelivered entries found here are skipped.
type ProcessedStore struct {
	db rowQuerier
}

func NewProcessedStore(pool *pgxpool.Pool) *ProcessedStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &ProcessedStore{db: pool}
}

func newProcessedStoreWithExec(db rowQuerier) *ProcessedStore {
	if db == nil {
		panic("events: exec required")
	}
	return &ProcessedStore{db: db}
}

func (s *ProcessedStore) AlreadyProcessed(ctx context.Context, consumer, eventID string) (bool, error) {
	var one int
	err := s.db.QueryRow(ctx, processedLookupSQL, consumer, eventID).Scan(&one)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("events: check processed %s/%s: %w", consumer, eventID, err)
	}
	return true, nil
}

// MarkProcessed claims eventID for consumer. False means another delivery got there first.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, consumer, eventID string) (bool, error) {
	tag, err := s.db.Exec(ctx, processedInsertSQL, consumer, eventID)
	if err != nil {
		return false, fmt.Errorf("events: mark processed %s/%s: %w", consumer, eventID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// PurgeBefore drops ledger rows older than cutoff and returns how many went.
func (s *ProcessedStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, processedPurgeSQL, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("events: purge processed: %w", err)
	}
	return tag.RowsAffected(), nil
}
