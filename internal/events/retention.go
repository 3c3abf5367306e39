package events

import (
	"context"
	"time"

	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// Purger deletes rows older than a cutoff.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Retention periodically trims delivered outbox rows and the processed ledger.
type Retention struct {
	purgers  map[string]Purger
	keep     time.Duration
	interval time.Duration
	logger   *logging.Logger
	now      func() time.Time
}

func NewRetention(keep time.Duration, logger *logging.Logger) *Retention {
	if logger == nil {
		logger = logging.Default()
	}
	if keep <= 0 {
		keep = 30 * 24 * time.Hour
	}
	return &Retention{
		purgers:  map[string]Purger{},
		keep:     keep,
		interval: time.Hour,
		logger:   logger,
		now:      time.Now,
	}
}

// Add registers a table under name.
func (r *Retention) Add(name string, p Purger) *Retention {
	if p != nil {
		r.purgers[name] = p
	}
	return r
}

func (r *Retention) WithInterval(interval time.Duration) *Retention {
	if interval > 0 {
		r.interval = interval
	}
	return r
}

// Start sweeps once immediately, then every interval until ctx ends.
func (r *Retention) Start(ctx context.Context) {
	r.Sweep(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs every purger once and returns the rows removed per name.
func (r *Retention) Sweep(ctx context.Context) map[string]int64 {
	cutoff := r.now().Add(-r.keep)
	removed := make(map[string]int64, len(r.purgers))
	for name, p := range r.purgers {
		n, err := p.PurgeBefore(ctx, cutoff)
		if err != nil {
			r.logger.Error("retention sweep failed", "table", name, "error", err)
			continue
		}
		removed[name] = n
		if n > 0 {
			r.logger.Info("retention sweep", "table", name, "removed", n)
		}
	}
	return removed
}
