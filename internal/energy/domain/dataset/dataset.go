package dataset

import (
	"cmp"
	"iter"
	"slices"
	"sort"
	"time"
)

// Dataset is the immutable pair of hourly and daily tables.
// Invariants:
// 1) Both tables only hold rows dated on or before the cutoff day.
// 2) Daily rows are derived once from the hourly rows and never change.
// 3) Hourly rows are ordered by timestamp, daily rows by date.
type Dataset struct {
	hourly  []Observation
	daily   []DailyObservation
	cutoff  time.Time
	regions []string
}

// New builds a dataset from hourly rows. The daily table is derived from all
// rows, then both tables are truncated to the cutoff day. A zero cutoff keeps
// everything up to the latest timestamp.
func New(rows []Observation, cutoff time.Time) (*Dataset, error) {
	hourly := make([]Observation, 0, len(rows))
	var latest time.Time
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, err
		}
		row.Timestamp = row.Timestamp.UTC()
		if row.Date.IsZero() {
			row.Date = Day(row.Timestamp)
		} else {
			row.Date = Day(row.Date)
		}
		if row.Timestamp.After(latest) {
			latest = row.Timestamp
		}
		hourly = append(hourly, row)
	}

	if cutoff.IsZero() {
		cutoff = latest
	}
	cutoff = Day(cutoff)

	daily := buildDaily(hourly)

	hourly = slices.DeleteFunc(hourly, func(o Observation) bool {
		return Day(o.Timestamp).After(cutoff)
	})
	daily = slices.DeleteFunc(daily, func(d DailyObservation) bool {
		return d.Date.After(cutoff)
	})

	slices.SortStableFunc(hourly, func(a, b Observation) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.RegionName, b.RegionName)
	})

	return &Dataset{
		hourly:  slices.Clip(hourly),
		daily:   slices.Clip(daily),
		cutoff:  cutoff,
		regions: distinctRegions(hourly),
	}, nil
}

type dayKey struct {
	code string
	name string
	date time.Time
}

func buildDaily(hourly []Observation) []DailyObservation {
	index := make(map[dayKey]int)
	daily := make([]DailyObservation, 0, len(hourly)/24+1)
	for _, o := range hourly {
		key := dayKey{code: o.RegionCode, name: o.RegionName, date: o.Date}
		i, ok := index[key]
		if !ok {
			i = len(daily)
			index[key] = i
			daily = append(daily, DailyObservation{
				RegionCode: o.RegionCode,
				RegionName: o.RegionName,
				Date:       o.Date,
			})
		}
		d := &daily[i]
		d.Consumption += o.Consumption
		d.Production = d.Production.Add(o.Production)
		d.Exchange += o.Exchange
		d.Samples++
	}

	slices.SortFunc(daily, func(a, b DailyObservation) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(a.RegionName, b.RegionName); c != 0 {
			return c
		}
		return cmp.Compare(a.RegionCode, b.RegionCode)
	})
	return daily
}

func distinctRegions(hourly []Observation) []string {
	seen := make(map[string]struct{})
	var regions []string
	for _, o := range hourly {
		if _, ok := seen[o.RegionName]; ok {
			continue
		}
		seen[o.RegionName] = struct{}{}
		regions = append(regions, o.RegionName)
	}
	slices.Sort(regions)
	return regions
}

// Cutoff returns the last day kept in the dataset.
func (d *Dataset) Cutoff() time.Time { return d.cutoff }

// HourlyLen returns the number of hourly rows.
func (d *Dataset) HourlyLen() int { return len(d.hourly) }

// DailyLen returns the number of daily rows.
func (d *Dataset) DailyLen() int { return len(d.daily) }

// Hourly iterates the hourly table in timestamp order.
func (d *Dataset) Hourly() iter.Seq[Observation] {
	return func(yield func(Observation) bool) {
		for _, o := range d.hourly {
			if !yield(o) {
				return
			}
		}
	}
}

// Daily iterates the daily table in date order.
func (d *Dataset) Daily() iter.Seq[DailyObservation] {
	return func(yield func(DailyObservation) bool) {
		for _, o := range d.daily {
			if !yield(o) {
				return
			}
		}
	}
}

// Regions returns the distinct region names, sorted.
func (d *Dataset) Regions() []string {
	return slices.Clone(d.regions)
}

// DateRange returns the first and last hourly timestamps.
func (d *Dataset) DateRange() (first, last time.Time, ok bool) {
	if len(d.hourly) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return d.hourly[0].Timestamp, d.hourly[len(d.hourly)-1].Timestamp, true
}

// Select returns the rows matching the period and region.
// Week and month windows read the hourly table; a year or all time read the
// daily table. The region filter is applied after the period filter.
func (d *Dataset) Select(period PeriodSelector, region RegionFilter) (Slice, error) {
	if err := period.Validate(); err != nil {
		return Slice{}, err
	}
	first, last, bounded := period.Bounds(d.cutoff)

	if period.UsesHourly() {
		start := sort.Search(len(d.hourly), func(i int) bool {
			return !Day(d.hourly[i].Timestamp).Before(first)
		})
		records := make([]Record, 0)
		for _, o := range d.hourly[start:] {
			day := Day(o.Timestamp)
			if day.After(last) {
				break
			}
			if !region.Matches(o.RegionName) {
				continue
			}
			records = append(records, o.Record())
		}
		return Slice{Resolution: ResolutionHourly, Records: records}, nil
	}

	records := make([]Record, 0)
	for _, o := range d.daily {
		if bounded && (o.Date.Before(first) || o.Date.After(last)) {
			continue
		}
		if !region.Matches(o.RegionName) {
			continue
		}
		records = append(records, o.Record())
	}
	return Slice{Resolution: ResolutionDaily, Records: records}, nil
}
