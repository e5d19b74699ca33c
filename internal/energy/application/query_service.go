package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"eco2mix-insights/internal/energy/domain/aggregate"
	"eco2mix-insights/internal/energy/domain/dataset"
	"eco2mix-insights/internal/observability/metrics"
)

const defaultCacheSize = 256

// TimingRecorder receives the execution time of every query.
type TimingRecorder interface {
	Record(operation string, duration time.Duration) error
}

// Query is the common period/region/bucket selection.
type Query struct {
	Period dataset.PeriodSelector
	Region dataset.RegionFilter
	// Bucket is the resampling interval. Zero means the period default.
	Bucket aggregate.Bucket
}

func (q Query) bucket() aggregate.Bucket {
	if q.Bucket.IsZero() {
		return aggregate.DefaultBucket(q.Period.Kind)
	}
	return q.Bucket
}

func (q Query) key() string {
	return q.Period.String() + "|" + q.Region.String() + "|" + q.Bucket.String()
}

// DatasetInfo describes the dataset being served.
type DatasetInfo struct {
	First      time.Time
	Last       time.Time
	Cutoff     time.Time
	HourlyRows int
	DailyRows  int
	Regions    int
	Version    uint64
	Source     string
	LoadedAt   time.Time
}

type cacheKey struct {
	op      string
	args    string
	version uint64
}

// QueryService answers aggregation queries over the current dataset.
// Results are memoized per dataset version and must be treated as read-only.
type QueryService struct {
	holder *DatasetHolder
	cache  *lru.Cache[cacheKey, any]
	timing TimingRecorder
	logger logrus.FieldLogger
}

// QueryOption configures the QueryService.
type QueryOption func(*QueryService)

// WithTimingRecorder records every query duration.
func WithTimingRecorder(rec TimingRecorder) QueryOption {
	return func(s *QueryService) {
		s.timing = rec
	}
}

// WithQueryLogger sets the logger.
func WithQueryLogger(logger logrus.FieldLogger) QueryOption {
	return func(s *QueryService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewQueryService constructs a QueryService with an LRU of cacheSize entries.
func NewQueryService(holder *DatasetHolder, cacheSize int, opts ...QueryOption) (*QueryService, error) {
	if holder == nil {
		return nil, errors.New("query service: nil dataset holder")
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[cacheKey, any](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("query service: %w", err)
	}
	s := &QueryService{
		holder: holder,
		cache:  cache,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Purge drops every memoized result.
func (s *QueryService) Purge() {
	s.cache.Purge()
}

// Regions returns "All Region" followed by the distinct region names.
func (s *QueryService) Regions(ctx context.Context) ([]string, error) {
	return cached(ctx, s, "regions", "", func(loaded *LoadedDataset) ([]string, error) {
		return append([]string{dataset.AllRegionsLabel}, loaded.Dataset.Regions()...), nil
	})
}

// Info describes the dataset being served.
func (s *QueryService) Info(ctx context.Context) (DatasetInfo, error) {
	return timed(ctx, s, "dataset_info", func(loaded *LoadedDataset) (DatasetInfo, error) {
		ds := loaded.Dataset
		first, last, _ := ds.DateRange()
		return DatasetInfo{
			First:      first,
			Last:       last,
			Cutoff:     ds.Cutoff(),
			HourlyRows: ds.HourlyLen(),
			DailyRows:  ds.DailyLen(),
			Regions:    len(ds.Regions()),
			Version:    loaded.Version,
			Source:     loaded.Source,
			LoadedAt:   loaded.LoadedAt,
		}, nil
	})
}

// Summary returns the headline consumption and exchange metrics.
func (s *QueryService) Summary(ctx context.Context) (aggregate.Summary, error) {
	return cached(ctx, s, "summary", "", func(loaded *LoadedDataset) (aggregate.Summary, error) {
		return aggregate.Summarize(loaded.Dataset.Hourly(), loaded.Dataset.Cutoff()), nil
	})
}

// Consumption sums consumption by instant.
func (s *QueryService) Consumption(ctx context.Context, q Query) ([]aggregate.Point, error) {
	return cachedSlice(ctx, s, "consumption", q, aggregate.ConsumptionByDate)
}

// ProductionTimeline sums production of every source by instant.
func (s *QueryService) ProductionTimeline(ctx context.Context, q Query) ([]aggregate.Point, error) {
	return cachedSlice(ctx, s, "production_timeline", q, aggregate.ProductionByDate)
}

// ProductionSources sums production per source.
func (s *QueryService) ProductionSources(ctx context.Context, q Query) ([]aggregate.SourceTotal, error) {
	return cachedSlice(ctx, s, "production_sources", q, aggregate.ProductionBySource)
}

// ProductionBuckets resamples production per source.
func (s *QueryService) ProductionBuckets(ctx context.Context, q Query) ([]aggregate.SourcePoint, error) {
	bucket := q.bucket()
	q.Bucket = bucket
	return cachedSlice(ctx, s, "production_buckets", q, func(slice dataset.Slice) []aggregate.SourcePoint {
		return aggregate.ProductionByBucket(slice, bucket)
	})
}

// Mix groups production per source into clean, dirty and nuclear.
func (s *QueryService) Mix(ctx context.Context, q Query) ([]aggregate.CategoryTotal, error) {
	return cachedSlice(ctx, s, "production_mix", q, func(slice dataset.Slice) []aggregate.CategoryTotal {
		return aggregate.Mix(aggregate.ProductionBySource(slice))
	})
}

// Heatmap lays out production per region and source.
func (s *QueryService) Heatmap(ctx context.Context, q Query, exclude []dataset.Source, digits int) (aggregate.Heatmap, error) {
	args := fmt.Sprintf("%s|%v|%d", q.key(), exclude, digits)
	return cached(ctx, s, "production_regions", args, func(loaded *LoadedDataset) (aggregate.Heatmap, error) {
		slice, err := loaded.Dataset.Select(q.Period, q.Region)
		if err != nil {
			return aggregate.Heatmap{}, err
		}
		return aggregate.NewHeatmap(aggregate.ProductionByRegion(slice), exclude, digits), nil
	})
}

// Exchanges resamples the exchange balance.
func (s *QueryService) Exchanges(ctx context.Context, q Query) ([]aggregate.Point, error) {
	bucket := q.bucket()
	q.Bucket = bucket
	return cachedSlice(ctx, s, "exchanges", q, func(slice dataset.Slice) []aggregate.Point {
		return aggregate.ExchangeByBucket(slice, bucket)
	})
}

// Map returns per-region map columns over every region of the period.
func (s *QueryService) Map(ctx context.Context, period dataset.PeriodSelector, dynamic bool) (aggregate.MapView, error) {
	args := fmt.Sprintf("%s|%t", period, dynamic)
	return cached(ctx, s, "map", args, func(loaded *LoadedDataset) (aggregate.MapView, error) {
		slice, err := loaded.Dataset.Select(period, dataset.AllRegions())
		if err != nil {
			return aggregate.MapView{}, err
		}
		return aggregate.NewMapView(aggregate.ProductionByRegion(slice), period.Kind, dynamic), nil
	})
}

// Records returns the filtered rows. Results are not memoized.
func (s *QueryService) Records(ctx context.Context, q Query) (dataset.Slice, error) {
	return timed(ctx, s, "records", func(loaded *LoadedDataset) (dataset.Slice, error) {
		return loaded.Dataset.Select(q.Period, q.Region)
	})
}

// Daily returns the whole daily table.
func (s *QueryService) Daily(ctx context.Context) ([]dataset.DailyObservation, *LoadedDataset, error) {
	var source *LoadedDataset
	rows, err := timed(ctx, s, "daily", func(loaded *LoadedDataset) ([]dataset.DailyObservation, error) {
		source = loaded
		rows := make([]dataset.DailyObservation, 0, loaded.Dataset.DailyLen())
		for d := range loaded.Dataset.Daily() {
			rows = append(rows, d)
		}
		return rows, nil
	})
	return rows, source, err
}

func cachedSlice[T any](ctx context.Context, s *QueryService, op string, q Query, fn func(dataset.Slice) T) (T, error) {
	return cached(ctx, s, op, q.key(), func(loaded *LoadedDataset) (T, error) {
		slice, err := loaded.Dataset.Select(q.Period, q.Region)
		if err != nil {
			var zero T
			return zero, err
		}
		return fn(slice), nil
	})
}

func cached[T any](ctx context.Context, s *QueryService, op, args string, compute func(*LoadedDataset) (T, error)) (T, error) {
	return timed(ctx, s, op, func(loaded *LoadedDataset) (T, error) {
		key := cacheKey{op: op, args: args, version: loaded.Version}
		if v, ok := s.cache.Get(key); ok {
			metrics.IncCacheLookup(true)
			return v.(T), nil
		}
		metrics.IncCacheLookup(false)
		v, err := compute(loaded)
		if err != nil {
			return v, err
		}
		s.cache.Add(key, v)
		return v, nil
	})
}

func timed[T any](ctx context.Context, s *QueryService, op string, compute func(*LoadedDataset) (T, error)) (T, error) {
	start := time.Now()
	var (
		result T
		err    error
	)
	defer func() {
		duration := time.Since(start)
		metrics.ObserveQuery(op, metrics.Result(err), duration)
		if s.timing != nil {
			if recErr := s.timing.Record(op, duration); recErr != nil {
				s.logger.Printf("query timing record error: %v", recErr)
			}
		}
	}()

	if err = ctx.Err(); err != nil {
		return result, err
	}
	loaded, ok := s.holder.Current()
	if !ok {
		err = ErrNotReady
		return result, err
	}
	result, err = compute(loaded)
	return result, err
}
