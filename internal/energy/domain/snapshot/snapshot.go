// Package snapshot describes the persisted copy of the daily table.
package snapshot

import (
	"context"
	"errors"
	"time"

	"eco2mix-insights/internal/energy/domain/dataset"
)

var (
	ErrEmptyRunID   = errors.New("snapshot: empty run id")
	ErrInvalidRange = errors.New("snapshot: to must not be before from")
	ErrNoStore      = errors.New("snapshot: store not configured")
)

// Run identifies one publication of the daily table.
type Run struct {
	ID          string
	PublishedAt time.Time
	Rows        int
}

// Query selects persisted daily rows. Zero From or To leave that side open.
type Query struct {
	From   time.Time
	To     time.Time
	Region dataset.RegionFilter
}

// Validate checks the date range.
func (q Query) Validate() error {
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return ErrInvalidRange
	}
	return nil
}

// Store persists daily rows keyed by (region code, region name, date).
// Saving a row that already exists replaces its values.
type Store interface {
	SaveDaily(ctx context.Context, run Run, rows []dataset.DailyObservation) error
	ListDaily(ctx context.Context, q Query) ([]dataset.DailyObservation, error)
}

// RunReader is implemented by stores that can report their latest publication.
type RunReader interface {
	LatestRun(ctx context.Context) (Run, bool, error)
}
