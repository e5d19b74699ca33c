package application

import (
	"errors"
	"sync/atomic"
	"time"

	"eco2mix-insights/internal/energy/domain/dataset"
)

// ErrNotReady is returned while no dataset has been loaded.
var ErrNotReady = errors.New("energy: dataset not loaded")

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// LoadedDataset is one published dataset with its provenance.
type LoadedDataset struct {
	Dataset  *dataset.Dataset
	Version  uint64
	Source   string
	LoadedAt time.Time
}

// DatasetHolder holds the dataset being served. Readers never block; a swap
// publishes a new version atomically.
type DatasetHolder struct {
	current atomic.Pointer[LoadedDataset]
	version atomic.Uint64
}

// NewDatasetHolder returns an empty holder.
func NewDatasetHolder() *DatasetHolder {
	return &DatasetHolder{}
}

// Current returns the dataset being served.
func (h *DatasetHolder) Current() (*LoadedDataset, bool) {
	if h == nil {
		return nil, false
	}
	loaded := h.current.Load()
	return loaded, loaded != nil
}

// Swap publishes ds under the next version.
func (h *DatasetHolder) Swap(ds *dataset.Dataset, source string, loadedAt time.Time) *LoadedDataset {
	loaded := &LoadedDataset{
		Dataset:  ds,
		Version:  h.version.Add(1),
		Source:   source,
		LoadedAt: loadedAt,
	}
	h.current.Store(loaded)
	return loaded
}
