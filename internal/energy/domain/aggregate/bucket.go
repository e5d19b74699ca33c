package aggregate

import (
	"errors"
	"strings"
	"time"

	"eco2mix-insights/internal/energy/domain/dataset"
)

// ErrInvalidBucket is returned when a bucket name is unknown.
var ErrInvalidBucket = errors.New("aggregate: invalid bucket")

// Bucket is a resampling interval. Fixed-width buckets are anchored at
// midnight UTC of the first instant of a series; month buckets follow the
// calendar and are labelled by their first day.
type Bucket struct {
	name   string
	step   time.Duration
	months int
}

var (
	Bucket15Minutes = Bucket{name: "15m", step: 15 * time.Minute}
	Bucket6Hours    = Bucket{name: "6h", step: 6 * time.Hour}
	BucketDay       = Bucket{name: "1d", step: 24 * time.Hour}
	Bucket3Days     = Bucket{name: "3d", step: 3 * 24 * time.Hour}
	Bucket15Days    = Bucket{name: "15d", step: 15 * 24 * time.Hour}
	BucketMonth     = Bucket{name: "1mo", months: 1}
)

var bucketsByName = map[string]Bucket{
	"15m": Bucket15Minutes,
	"6h":  Bucket6Hours,
	"1d":  BucketDay,
	"d":   BucketDay,
	"3d":  Bucket3Days,
	"15d": Bucket15Days,
	"1mo": BucketMonth,
	"m":   BucketMonth,
}

// ParseBucket resolves a bucket name such as "6h" or "1mo".
func ParseBucket(value string) (Bucket, error) {
	b, ok := bucketsByName[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return Bucket{}, ErrInvalidBucket
	}
	return b, nil
}

// DefaultBucket is the chart resolution used for a period when none is asked.
func DefaultBucket(kind dataset.PeriodKind) Bucket {
	switch kind {
	case dataset.PeriodWeek:
		return Bucket6Hours
	case dataset.PeriodMonth:
		return BucketDay
	case dataset.PeriodYear:
		return Bucket3Days
	default:
		return BucketMonth
	}
}

// String returns the bucket name.
func (b Bucket) String() string { return b.name }

// IsZero tells if the bucket is unset.
func (b Bucket) IsZero() bool { return b.step == 0 && b.months == 0 }

// Start returns the start of the bucket holding t for a series starting at origin.
func (b Bucket) Start(origin, t time.Time) time.Time {
	t = t.UTC()
	if b.months > 0 {
		month := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		offset := (int(month.Month()) - 1) % b.months
		return month.AddDate(0, -offset, 0)
	}
	if b.step <= 0 {
		return t
	}
	anchor := dataset.Day(origin)
	elapsed := t.Sub(anchor)
	n := elapsed / b.step
	if elapsed < 0 && elapsed%b.step != 0 {
		n--
	}
	return anchor.Add(n * b.step)
}
