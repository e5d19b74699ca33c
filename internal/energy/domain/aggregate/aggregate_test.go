package aggregate

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"eco2mix-insights/internal/energy/domain/dataset"
)

func at(day, hour int) time.Time {
	return time.Date(2023, time.October, day, hour, 0, 0, 0, time.UTC)
}

func record(region string, when time.Time, consumption float64, p dataset.Production, exchange float64) dataset.Record {
	return dataset.Record{RegionName: region, At: when, Consumption: consumption, Production: p, Exchange: exchange}
}

func sampleSlice() dataset.Slice {
	return dataset.Slice{
		Resolution: dataset.ResolutionHourly,
		Records: []dataset.Record{
			record("Bretagne", at(4, 0), 10, dataset.Production{Thermal: 1, Nuclear: 2, Wind: 3, Solar: 0, Hydraulic: 4, Bioenergy: 5}, -3),
			record("Normandie", at(4, 0), 20, dataset.Production{Thermal: 2, Nuclear: 40, Wind: 1, Solar: 0, Hydraulic: 1, Bioenergy: 1}, 5),
			record("Bretagne", at(4, 7), 11, dataset.Production{Thermal: 1, Nuclear: 2, Wind: 3, Solar: 6, Hydraulic: 4, Bioenergy: 5}, -1),
			record("Bretagne", at(5, 1), 12, dataset.Production{Thermal: 3, Nuclear: 2, Wind: 1, Solar: 0, Hydraulic: 4, Bioenergy: 5}, 2),
		},
	}
}

func assertPoints(t *testing.T, got, want []Point) {
	t.Helper()
	if !slices.EqualFunc(got, want, func(a, b Point) bool { return a.At.Equal(b.At) && a.Value == b.Value }) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestConsumptionByDate(t *testing.T) {
	assertPoints(t, ConsumptionByDate(sampleSlice()), []Point{
		{At: at(4, 0), Value: 30},
		{At: at(4, 7), Value: 11},
		{At: at(5, 1), Value: 12},
	})
}

func TestEmptySliceYieldsEmptySeries(t *testing.T) {
	empty := dataset.Slice{Resolution: dataset.ResolutionDaily, Records: []dataset.Record{}}

	if points := ConsumptionByDate(empty); points == nil || len(points) != 0 {
		t.Fatalf("expected a non-nil empty series, got %#v", points)
	}
	lengths := map[string]int{
		"sources":    len(ProductionBySource(empty)),
		"production": len(ProductionByBucket(empty, BucketDay)),
		"exchanges":  len(ExchangeByBucket(empty, BucketDay)),
		"regions":    len(ProductionByRegion(empty)),
		"mix":        len(Mix(ProductionBySource(empty))),
		"melted":     len(Melt(empty)),
	}
	for name, n := range lengths {
		if n != 0 {
			t.Fatalf("%s: expected empty, got %d entries", name, n)
		}
	}
}

func TestMeltSumsMatchWideTotals(t *testing.T) {
	slice := sampleSlice()
	long := Melt(slice)
	if len(long) != len(slice.Records)*6 {
		t.Fatalf("expected %d long rows, got %d", len(slice.Records)*6, len(long))
	}

	longByDate := make(map[time.Time]float64)
	for _, p := range long {
		longByDate[p.At] += p.Value
	}
	for _, p := range ProductionByDate(slice) {
		if math.Abs(p.Value-longByDate[p.At]) > 1e-9 {
			t.Fatalf("date %s: wide %v, long %v", p.At, p.Value, longByDate[p.At])
		}
	}
}

func TestProductionBySource(t *testing.T) {
	totals := ProductionBySource(sampleSlice())
	if len(totals) != 6 {
		t.Fatalf("expected 6 sources, got %d", len(totals))
	}
	want := map[int]SourceTotal{
		0: {Source: dataset.SourceThermal, Value: 7},
		1: {Source: dataset.SourceNuclear, Value: 46},
		3: {Source: dataset.SourceSolar, Value: 6},
	}
	for i, w := range want {
		if totals[i] != w {
			t.Fatalf("index %d: expected %+v, got %+v", i, w, totals[i])
		}
	}
}

func TestProductionByBucket(t *testing.T) {
	points := ProductionByBucket(sampleSlice(), Bucket6Hours)

	var starts []time.Time
	for _, p := range points {
		if !slices.ContainsFunc(starts, p.At.Equal) {
			starts = append(starts, p.At)
		}
	}
	want := []time.Time{at(4, 0), at(4, 6), at(5, 0)}
	if !slices.EqualFunc(starts, want, time.Time.Equal) {
		t.Fatalf("expected bucket starts %v, got %v", want, starts)
	}
	if len(points) != 3*6 {
		t.Fatalf("expected 18 points, got %d", len(points))
	}

	// Two regions fall in the first bucket.
	if points[1].Source != dataset.SourceNuclear || points[1].Value != 42 {
		t.Fatalf("unexpected first nuclear bucket %+v", points[1])
	}
}

func TestExchangeByBucket(t *testing.T) {
	assertPoints(t, ExchangeByBucket(sampleSlice(), BucketDay), []Point{
		{At: at(4, 0), Value: 1},
		{At: at(5, 0), Value: 2},
	})
}

func TestBucketStart(t *testing.T) {
	origin := time.Date(2023, 1, 1, 5, 0, 0, 0, time.UTC)
	cases := []struct {
		bucket Bucket
		t      time.Time
		want   time.Time
	}{
		{Bucket15Minutes, time.Date(2023, 1, 1, 5, 44, 0, 0, time.UTC), time.Date(2023, 1, 1, 5, 30, 0, 0, time.UTC)},
		{Bucket6Hours, time.Date(2023, 1, 2, 13, 0, 0, 0, time.UTC), time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)},
		{Bucket3Days, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC)},
		{Bucket15Days, time.Date(2023, 1, 16, 0, 0, 0, 0, time.UTC), time.Date(2023, 1, 16, 0, 0, 0, 0, time.UTC)},
		{BucketMonth, time.Date(2023, 3, 17, 8, 0, 0, 0, time.UTC), time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := tc.bucket.Start(origin, tc.t); !got.Equal(tc.want) {
			t.Fatalf("bucket %s: expected %v, got %v", tc.bucket, tc.want, got)
		}
	}
}

func TestParseBucket(t *testing.T) {
	b, err := ParseBucket("6H")
	if err != nil || b != Bucket6Hours {
		t.Fatalf("expected 6h bucket, got %v %v", b, err)
	}
	if _, err := ParseBucket("2w"); !errors.Is(err, ErrInvalidBucket) {
		t.Fatalf("expected ErrInvalidBucket, got %v", err)
	}

	defaults := map[dataset.PeriodKind]Bucket{
		dataset.PeriodWeek:    Bucket6Hours,
		dataset.PeriodMonth:   BucketDay,
		dataset.PeriodYear:    Bucket3Days,
		dataset.PeriodAllTime: BucketMonth,
	}
	for kind, want := range defaults {
		if got := DefaultBucket(kind); got != want {
			t.Fatalf("period %v: expected %s, got %s", kind, want, got)
		}
	}
}

func TestMix(t *testing.T) {
	mix := Mix(ProductionBySource(sampleSlice()))
	want := []CategoryTotal{
		{Category: CategoryClean, Value: 8 + 6 + 13 + 16},
		{Category: CategoryDirty, Value: 7},
		{Category: CategoryNuclear, Value: 46},
	}
	if !slices.Equal(mix, want) {
		t.Fatalf("expected %+v, got %+v", want, mix)
	}
}

func TestHeatmap(t *testing.T) {
	totals := []RegionTotals{
		{RegionName: "Bretagne", Production: dataset.Production{Nuclear: 0, Wind: 123456, Hydraulic: 4999}},
		{RegionName: "Normandie", Production: dataset.Production{Nuclear: 987654}},
	}
	h := NewHeatmap(totals, []dataset.Source{dataset.SourceNuclear}, -4)
	if !slices.Equal(h.Regions, []string{"Bretagne", "Normandie"}) {
		t.Fatalf("unexpected regions %v", h.Regions)
	}
	if slices.Contains(h.Sources, dataset.SourceNuclear) || len(h.Sources) != 5 {
		t.Fatalf("nuclear should be excluded, got %v", h.Sources)
	}

	windIdx := slices.Index(h.Sources, dataset.SourceWind)
	hydroIdx := slices.Index(h.Sources, dataset.SourceHydraulic)
	if h.Values[0][windIdx] != 120000 || h.Values[0][hydroIdx] != 0 {
		t.Fatalf("unexpected rounded values %v", h.Values[0])
	}
}

func TestProductionByRegion(t *testing.T) {
	totals := ProductionByRegion(sampleSlice())
	if len(totals) != 2 || totals[0].RegionName != "Bretagne" || totals[1].RegionName != "Normandie" {
		t.Fatalf("unexpected regions %+v", totals)
	}
	if totals[0].Production.Nuclear != 6 {
		t.Fatalf("expected Bretagne nuclear 6, got %v", totals[0].Production.Nuclear)
	}
}

func TestSummarize(t *testing.T) {
	cutoff := time.Date(2023, time.October, 5, 0, 0, 0, 0, time.UTC)
	rows := []dataset.Observation{
		{RegionName: "A", Timestamp: time.Date(2023, 10, 5, 3, 0, 0, 0, time.UTC), Consumption: 10, Exchange: -8},
		{RegionName: "B", Timestamp: time.Date(2023, 10, 5, 4, 0, 0, 0, time.UTC), Consumption: 5, Exchange: 2},
		{RegionName: "A", Timestamp: time.Date(2023, 10, 4, 3, 0, 0, 0, time.UTC), Consumption: 7, Exchange: 4},
		{RegionName: "A", Timestamp: time.Date(2023, 2, 1, 3, 0, 0, 0, time.UTC), Consumption: 100},
		{RegionName: "A", Timestamp: time.Date(2022, 10, 5, 3, 0, 0, 0, time.UTC), Consumption: 50},
		// After cutoff - 365 days: not part of last year's comparable span.
		{RegionName: "A", Timestamp: time.Date(2022, 10, 6, 3, 0, 0, 0, time.UTC), Consumption: 1000},
	}
	s := Summarize(slices.Values(rows), cutoff)

	checks := []struct {
		name      string
		got, want float64
	}{
		{"consumption today", s.ConsumptionToday, 15},
		{"consumption yesterday", s.ConsumptionYesterday, 7},
		{"consumption this year", s.ConsumptionThisYear, 122},
		{"consumption last year", s.ConsumptionLastYear, 50},
		{"year delta", s.ConsumptionYearDelta(), 72},
		{"exchange today", s.ExchangeToday, -6},
		{"export today", s.ExportToday(), 6},
		{"import today", s.ImportToday(), 0},
		{"export delta", s.ExportDelta(), 10},
		{"import delta", s.ImportDelta(), 0},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestNewMapView(t *testing.T) {
	totals := []RegionTotals{
		{RegionName: "Bretagne", Production: dataset.Production{Wind: 10}},
		{RegionName: "Atlantis", Production: dataset.Production{Wind: 99}},
	}
	view := NewMapView(totals, dataset.PeriodWeek, true)
	if view.Scale != 0.1 || len(view.Columns) != 6 {
		t.Fatalf("unexpected view scale %v with %d columns", view.Scale, len(view.Columns))
	}
	for _, c := range view.Columns {
		if c.RegionName != "Bretagne" {
			t.Fatalf("unknown region leaked into the map: %s", c.RegionName)
		}
	}
	if len(view.Plants) == 0 {
		t.Fatalf("expected plant markers")
	}
	if scale := NewMapView(totals, dataset.PeriodYear, false).Scale; scale != 0.01 {
		t.Fatalf("expected fixed scale 0.01, got %v", scale)
	}
}
