package dataset

import (
	"fmt"
	"strings"
	"time"
)

// PeriodKind is the logical time window of a selection.
type PeriodKind string

const (
	PeriodWeek    PeriodKind = "week"
	PeriodMonth   PeriodKind = "month"
	PeriodYear    PeriodKind = "year"
	PeriodAllTime PeriodKind = "all"
)

const (
	weekDays  = 7
	monthDays = 30
)

// PeriodSelector picks a time window. Year is only meaningful for PeriodYear.
type PeriodSelector struct {
	Kind PeriodKind
	Year int
}

// LastWeek selects the 7 days ending at the cutoff.
func LastWeek() PeriodSelector { return PeriodSelector{Kind: PeriodWeek} }

// LastMonth selects the 30 days ending at the cutoff.
func LastMonth() PeriodSelector { return PeriodSelector{Kind: PeriodMonth} }

// Year selects a calendar year.
func Year(year int) PeriodSelector { return PeriodSelector{Kind: PeriodYear, Year: year} }

// AllTime selects the whole dataset.
func AllTime() PeriodSelector { return PeriodSelector{Kind: PeriodAllTime} }

// ParsePeriod builds a selector from its kind name and an optional year.
// The dashboard labels ("Last Week", "A Given Year"...) are accepted too.
func ParsePeriod(kind string, year int) (PeriodSelector, error) {
	var p PeriodSelector
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "week", "last week":
		p = LastWeek()
	case "month", "last month":
		p = LastMonth()
	case "year", "a given year":
		p = Year(year)
	case "all", "all time", "all_time":
		p = AllTime()
	default:
		return PeriodSelector{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, kind)
	}
	if err := p.Validate(); err != nil {
		return PeriodSelector{}, err
	}
	return p, nil
}

// Validate checks the selector invariants.
func (p PeriodSelector) Validate() error {
	switch p.Kind {
	case PeriodWeek, PeriodMonth, PeriodAllTime:
		return nil
	case PeriodYear:
		if p.Year <= 0 || p.Year > 9999 {
			return ErrInvalidYear
		}
		return nil
	default:
		return ErrInvalidPeriod
	}
}

// UsesHourly tells if the selection reads the hourly table.
func (p PeriodSelector) UsesHourly() bool {
	return p.Kind == PeriodWeek || p.Kind == PeriodMonth
}

// Bounds returns the inclusive first and last day covered by the selector,
// given the dataset cutoff day. ok is false for the unbounded all-time window.
func (p PeriodSelector) Bounds(cutoff time.Time) (first, last time.Time, ok bool) {
	cutoff = Day(cutoff)
	switch p.Kind {
	case PeriodWeek:
		return cutoff.AddDate(0, 0, -weekDays), cutoff, true
	case PeriodMonth:
		return cutoff.AddDate(0, 0, -monthDays), cutoff, true
	case PeriodYear:
		first = time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		last = time.Date(p.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
		return first, last, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// Label is the human readable name shown by dashboards.
func (p PeriodSelector) Label() string {
	switch p.Kind {
	case PeriodWeek:
		return "Last Week"
	case PeriodMonth:
		return "Last Month"
	case PeriodYear:
		return fmt.Sprintf("Year %d", p.Year)
	case PeriodAllTime:
		return "All Time"
	default:
		return string(p.Kind)
	}
}

// String returns a stable key for the selector.
func (p PeriodSelector) String() string {
	if p.Kind == PeriodYear {
		return fmt.Sprintf("%s:%d", p.Kind, p.Year)
	}
	return string(p.Kind)
}
