package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eco2mix-insights/internal/energy/application"
	"eco2mix-insights/internal/energy/domain/aggregate"
	"eco2mix-insights/internal/energy/domain/dataset"
	"eco2mix-insights/internal/energy/domain/snapshot"
)

// The dashboard heatmap rounds totals to tens of thousands.
const (
	defaultHeatmapDigits = -4
	maxHeatmapDigits     = 15
)

var errBadRequest = errors.New("bad request")

func parseQuery(r *http.Request) (application.Query, error) {
	values := r.URL.Query()

	year := 0
	if raw := values.Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return application.Query{}, fmt.Errorf("%w: year must be an integer", errBadRequest)
		}
		year = parsed
	}
	period, err := dataset.ParsePeriod(values.Get("period"), year)
	if err != nil {
		return application.Query{}, err
	}

	q := application.Query{
		Period: period,
		Region: dataset.ParseRegion(values.Get("region")),
	}
	if raw := values.Get("bucket"); raw != "" {
		bucket, err := aggregate.ParseBucket(raw)
		if err != nil {
			return application.Query{}, err
		}
		q.Bucket = bucket
	}
	return q, nil
}

func parseExclude(r *http.Request) ([]dataset.Source, error) {
	raw := r.URL.Query().Get("exclude")
	if raw == "" {
		return nil, nil
	}
	var sources []dataset.Source
	for _, part := range strings.Split(raw, ",") {
		src, err := dataset.ParseSource(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func parseIntQuery(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, key)
	}
	return value, nil
}

// parseRoundQuery bounds the heatmap rounding to digits a float64 can carry.
func parseRoundQuery(r *http.Request) (int, error) {
	digits, err := parseIntQuery(r, "round", defaultHeatmapDigits)
	if err != nil {
		return 0, err
	}
	if digits < -maxHeatmapDigits || digits > maxHeatmapDigits {
		return 0, fmt.Errorf("%w: round must be between %d and %d", errBadRequest, -maxHeatmapDigits, maxHeatmapDigits)
	}
	return digits, nil
}

func parseBoolQuery(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", errBadRequest, key)
	}
	return value, nil
}

// parseDateQuery accepts a calendar date or an RFC3339 timestamp. Empty is zero.
func parseDateQuery(r *http.Request, key string) (time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.DateOnly, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a date or RFC3339", errBadRequest, key)
	}
	return parsed.UTC(), nil
}

func parseSnapshotQuery(r *http.Request) (snapshot.Query, error) {
	from, err := parseDateQuery(r, "from")
	if err != nil {
		return snapshot.Query{}, err
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		return snapshot.Query{}, err
	}
	q := snapshot.Query{From: from, To: to, Region: dataset.ParseRegion(r.URL.Query().Get("region"))}
	return q, q.Validate()
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, dataset.ErrInvalidPeriod),
		errors.Is(err, dataset.ErrInvalidYear),
		errors.Is(err, dataset.ErrUnknownSource),
		errors.Is(err, aggregate.ErrInvalidBucket),
		errors.Is(err, snapshot.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrNotReady),
		errors.Is(err, snapshot.ErrNoStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
