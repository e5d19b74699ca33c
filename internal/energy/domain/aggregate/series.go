package aggregate

import (
	"cmp"
	"slices"
	"time"

	"eco2mix-insights/internal/energy/domain/dataset"
)

// Point is one value of a time series.
type Point struct {
	At    time.Time
	Value float64
}

// SourcePoint is one long-form production value.
type SourcePoint struct {
	At     time.Time
	Source dataset.Source
	Value  float64
}

// SourceTotal is the production summed for one source.
type SourceTotal struct {
	Source dataset.Source
	Value  float64
}

// RegionTotals is the production summed for one region.
type RegionTotals struct {
	RegionName string
	Production dataset.Production
}

// ConsumptionByDate sums consumption for each instant of the slice.
func ConsumptionByDate(s dataset.Slice) []Point {
	return sumByInstant(s, func(r dataset.Record) float64 { return r.Consumption })
}

// ProductionByDate sums the six production sources for each instant.
func ProductionByDate(s dataset.Slice) []Point {
	return sumByInstant(s, func(r dataset.Record) float64 { return r.Production.Total() })
}

// ExchangeByBucket sums the exchange balance per bucket.
func ExchangeByBucket(s dataset.Slice, b Bucket) []Point {
	origin, ok := firstInstant(s)
	if !ok {
		return []Point{}
	}
	sums := make(map[time.Time]float64)
	for _, r := range s.Records {
		sums[b.Start(origin, r.At)] += r.Exchange
	}
	return sortedPoints(sums)
}

// Melt reshapes the wide per-source columns into one value per (record, source).
func Melt(s dataset.Slice) []SourcePoint {
	sources := dataset.Sources()
	out := make([]SourcePoint, 0, len(s.Records)*len(sources))
	for _, r := range s.Records {
		for _, src := range sources {
			out = append(out, SourcePoint{At: r.At, Source: src, Value: r.Production.Value(src)})
		}
	}
	return out
}

// ProductionBySource sums each source over the slice, in canonical source order.
func ProductionBySource(s dataset.Slice) []SourceTotal {
	if len(s.Records) == 0 {
		return []SourceTotal{}
	}
	var total dataset.Production
	for _, r := range s.Records {
		total = total.Add(r.Production)
	}
	sources := dataset.Sources()
	out := make([]SourceTotal, 0, len(sources))
	for _, src := range sources {
		out = append(out, SourceTotal{Source: src, Value: total.Value(src)})
	}
	return out
}

// ProductionByBucket sums long-form production per (bucket, source), ordered
// by bucket then canonical source order.
func ProductionByBucket(s dataset.Slice, b Bucket) []SourcePoint {
	origin, ok := firstInstant(s)
	if !ok {
		return []SourcePoint{}
	}
	sums := make(map[time.Time]dataset.Production)
	for _, r := range s.Records {
		start := b.Start(origin, r.At)
		sums[start] = sums[start].Add(r.Production)
	}
	starts := make([]time.Time, 0, len(sums))
	for start := range sums {
		starts = append(starts, start)
	}
	slices.SortFunc(starts, func(a, b time.Time) int { return a.Compare(b) })

	sources := dataset.Sources()
	out := make([]SourcePoint, 0, len(starts)*len(sources))
	for _, start := range starts {
		p := sums[start]
		for _, src := range sources {
			out = append(out, SourcePoint{At: start, Source: src, Value: p.Value(src)})
		}
	}
	return out
}

// ProductionByRegion sums production per region, ordered by region name.
func ProductionByRegion(s dataset.Slice) []RegionTotals {
	sums := make(map[string]dataset.Production)
	for _, r := range s.Records {
		sums[r.RegionName] = sums[r.RegionName].Add(r.Production)
	}
	out := make([]RegionTotals, 0, len(sums))
	for name, p := range sums {
		out = append(out, RegionTotals{RegionName: name, Production: p})
	}
	slices.SortFunc(out, func(a, b RegionTotals) int { return cmp.Compare(a.RegionName, b.RegionName) })
	return out
}

func sumByInstant(s dataset.Slice, value func(dataset.Record) float64) []Point {
	sums := make(map[time.Time]float64)
	for _, r := range s.Records {
		sums[r.At] += value(r)
	}
	return sortedPoints(sums)
}

func sortedPoints(sums map[time.Time]float64) []Point {
	out := make([]Point, 0, len(sums))
	for at, v := range sums {
		out = append(out, Point{At: at, Value: v})
	}
	slices.SortFunc(out, func(a, b Point) int { return a.At.Compare(b.At) })
	return out
}

func firstInstant(s dataset.Slice) (time.Time, bool) {
	if len(s.Records) == 0 {
		return time.Time{}, false
	}
	first := s.Records[0].At
	for _, r := range s.Records[1:] {
		if r.At.Before(first) {
			first = r.At
		}
	}
	return first, true
}
