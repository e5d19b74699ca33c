package application

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"eco2mix-insights/internal/energy/domain/dataset"
	"eco2mix-insights/internal/observability/metrics"
)

// DatasetLoader produces a dataset and names the source that served it.
type DatasetLoader interface {
	Load(ctx context.Context) (*dataset.Dataset, string, error)
}

// Reloader loads a dataset and swaps it into the holder.
// A failed reload leaves the current dataset in place.
type Reloader struct {
	mu      sync.Mutex
	loader  DatasetLoader
	holder  *DatasetHolder
	queries *QueryService
	clock   Clock
	logger  logrus.FieldLogger
}

// NewReloader constructs a Reloader. queries may be nil.
func NewReloader(loader DatasetLoader, holder *DatasetHolder, queries *QueryService, clock Clock, logger logrus.FieldLogger) (*Reloader, error) {
	if loader == nil {
		return nil, errors.New("reloader: nil loader")
	}
	if holder == nil {
		return nil, errors.New("reloader: nil dataset holder")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Reloader{
		loader:  loader,
		holder:  holder,
		queries: queries,
		clock:   clock,
		logger:  logger,
	}, nil
}

// Reload loads the dataset and publishes it. Concurrent calls are serialized.
func (r *Reloader) Reload(ctx context.Context) (*LoadedDataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ds, source, err := r.loader.Load(ctx)
	if err != nil {
		if current, ok := r.holder.Current(); ok {
			r.logger.Printf("dataset reload error, keeping version %d: %v", current.Version, err)
		}
		return nil, err
	}

	loaded := r.holder.Swap(ds, source, r.clock.Now())
	if r.queries != nil {
		r.queries.Purge()
	}
	metrics.SetDataset(loaded.Version, ds.HourlyLen(), ds.DailyLen())
	r.logger.WithFields(logrus.Fields{
		"version": loaded.Version,
		"source":  source,
		"hourly":  ds.HourlyLen(),
		"daily":   ds.DailyLen(),
	}).Info("dataset published")
	return loaded, nil
}
