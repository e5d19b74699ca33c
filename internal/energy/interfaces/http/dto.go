package http

import (
	"time"

	"eco2mix-insights/internal/energy/application"
	"eco2mix-insights/internal/energy/domain/aggregate"
	"eco2mix-insights/internal/energy/domain/dataset"
	"eco2mix-insights/internal/energy/domain/geo"
	"eco2mix-insights/internal/energy/domain/snapshot"
	"eco2mix-insights/internal/energy/interfaces/export"
)

type datasetResponse struct {
	First      *time.Time `json:"first"`
	Last       *time.Time `json:"last"`
	Cutoff     string     `json:"cutoff"`
	HourlyRows int        `json:"hourly_rows"`
	DailyRows  int        `json:"daily_rows"`
	Regions    int        `json:"regions"`
	Version    uint64     `json:"version"`
	Source     string     `json:"source"`
	LoadedAt   time.Time  `json:"loaded_at"`
	// LastSnapshot is the latest publication of the daily table, when a store is configured.
	LastSnapshot *runDTO `json:"last_snapshot,omitempty"`
}

func newDatasetResponse(info application.DatasetInfo) datasetResponse {
	resp := datasetResponse{
		Cutoff:     info.Cutoff.Format(time.DateOnly),
		HourlyRows: info.HourlyRows,
		DailyRows:  info.DailyRows,
		Regions:    info.Regions,
		Version:    info.Version,
		Source:     info.Source,
		LoadedAt:   info.LoadedAt,
	}
	if !info.First.IsZero() {
		resp.First = &info.First
		resp.Last = &info.Last
	}
	return resp
}

type metricValue struct {
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
}

func newMetricValue(v float64) metricValue {
	return metricValue{Value: v, Formatted: export.FormatWatts(v)}
}

type summaryResponse struct {
	Cutoff      string `json:"cutoff"`
	Consumption struct {
		Today     metricValue `json:"today"`
		Yesterday metricValue `json:"yesterday"`
		DayDelta  metricValue `json:"day_delta"`
		ThisYear  metricValue `json:"this_year"`
		LastYear  metricValue `json:"last_year"`
		YearDelta metricValue `json:"year_delta"`
	} `json:"consumption"`
	Exchange struct {
		Today       metricValue `json:"today"`
		Yesterday   metricValue `json:"yesterday"`
		ExportToday metricValue `json:"export_today"`
		ImportToday metricValue `json:"import_today"`
		ExportDelta metricValue `json:"export_delta"`
		ImportDelta metricValue `json:"import_delta"`
	} `json:"exchange"`
}

func newSummaryResponse(s aggregate.Summary) summaryResponse {
	var resp summaryResponse
	resp.Cutoff = s.Cutoff.Format(time.DateOnly)
	resp.Consumption.Today = newMetricValue(s.ConsumptionToday)
	resp.Consumption.Yesterday = newMetricValue(s.ConsumptionYesterday)
	resp.Consumption.DayDelta = newMetricValue(s.ConsumptionDayDelta())
	resp.Consumption.ThisYear = newMetricValue(s.ConsumptionThisYear)
	resp.Consumption.LastYear = newMetricValue(s.ConsumptionLastYear)
	resp.Consumption.YearDelta = newMetricValue(s.ConsumptionYearDelta())
	resp.Exchange.Today = newMetricValue(s.ExchangeToday)
	resp.Exchange.Yesterday = newMetricValue(s.ExchangeYesterday)
	resp.Exchange.ExportToday = newMetricValue(s.ExportToday())
	resp.Exchange.ImportToday = newMetricValue(s.ImportToday())
	resp.Exchange.ExportDelta = newMetricValue(s.ExportDelta())
	resp.Exchange.ImportDelta = newMetricValue(s.ImportDelta())
	return resp
}

type pointDTO struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
}

func newPoints(points []aggregate.Point) []pointDTO {
	out := make([]pointDTO, 0, len(points))
	for _, p := range points {
		out = append(out, pointDTO{At: p.At, Value: p.Value})
	}
	return out
}

type sourcePointDTO struct {
	At     time.Time `json:"at"`
	Source string    `json:"source"`
	Value  float64   `json:"value"`
}

func newSourcePoints(points []aggregate.SourcePoint) []sourcePointDTO {
	out := make([]sourcePointDTO, 0, len(points))
	for _, p := range points {
		out = append(out, sourcePointDTO{At: p.At, Source: string(p.Source), Value: p.Value})
	}
	return out
}

type sourceTotalDTO struct {
	Source string  `json:"source"`
	Value  float64 `json:"value"`
	Color  string  `json:"color"`
}

func newSourceTotals(totals []aggregate.SourceTotal) []sourceTotalDTO {
	out := make([]sourceTotalDTO, 0, len(totals))
	for _, t := range totals {
		out = append(out, sourceTotalDTO{Source: string(t.Source), Value: t.Value, Color: geo.SourceColor(t.Source).Hex()})
	}
	return out
}

type categoryDTO struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

func newCategories(totals []aggregate.CategoryTotal) []categoryDTO {
	out := make([]categoryDTO, 0, len(totals))
	for _, t := range totals {
		out = append(out, categoryDTO{Category: string(t.Category), Value: t.Value})
	}
	return out
}

type heatmapDTO struct {
	Regions []string    `json:"regions"`
	Sources []string    `json:"sources"`
	Values  [][]float64 `json:"values"`
}

func newHeatmap(h aggregate.Heatmap) heatmapDTO {
	sources := make([]string, 0, len(h.Sources))
	for _, s := range h.Sources {
		sources = append(sources, string(s))
	}
	return heatmapDTO{Regions: h.Regions, Sources: sources, Values: h.Values}
}

type mapColumnDTO struct {
	Region string  `json:"region"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Source string  `json:"source"`
	Value  float64 `json:"value"`
	Color  string  `json:"color"`
}

type plantDTO struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type mapDTO struct {
	Scale   float64        `json:"scale"`
	Columns []mapColumnDTO `json:"columns"`
	Plants  []plantDTO     `json:"plants"`
}

func newMap(view aggregate.MapView) mapDTO {
	out := mapDTO{
		Scale:   view.Scale,
		Columns: make([]mapColumnDTO, 0, len(view.Columns)),
		Plants:  make([]plantDTO, 0, len(view.Plants)),
	}
	for _, c := range view.Columns {
		out.Columns = append(out.Columns, mapColumnDTO{
			Region: c.RegionName,
			Lat:    c.Position.Lat,
			Lon:    c.Position.Lon,
			Source: string(c.Source),
			Value:  c.Value,
			Color:  c.Color.Hex(),
		})
	}
	for _, p := range view.Plants {
		out.Plants = append(out.Plants, plantDTO{Name: p.Name, Lat: p.Position.Lat, Lon: p.Position.Lon})
	}
	return out
}

type dailyDTO struct {
	RegionCode  string             `json:"code_insee_region"`
	RegionName  string             `json:"libelle_region"`
	Date        string             `json:"date"`
	Consumption float64            `json:"consommation"`
	Production  map[string]float64 `json:"production"`
	Exchange    float64            `json:"ech_physiques"`
	Samples     int                `json:"samples"`
}

func newDailyRows(rows []dataset.DailyObservation) []dailyDTO {
	out := make([]dailyDTO, 0, len(rows))
	for _, r := range rows {
		production := make(map[string]float64, len(dataset.Sources()))
		for _, src := range dataset.Sources() {
			production[string(src)] = r.Production.Value(src)
		}
		out = append(out, dailyDTO{
			RegionCode:  r.RegionCode,
			RegionName:  r.RegionName,
			Date:        r.Date.Format(time.DateOnly),
			Consumption: r.Consumption,
			Production:  production,
			Exchange:    r.Exchange,
			Samples:     r.Samples,
		})
	}
	return out
}

type runDTO struct {
	RunID       string    `json:"run_id"`
	Rows        int       `json:"rows"`
	PublishedAt time.Time `json:"published_at"`
}

func newRun(run snapshot.Run) runDTO {
	return runDTO{RunID: run.ID, Rows: run.Rows, PublishedAt: run.PublishedAt}
}

type reloadDTO struct {
	Version    uint64    `json:"version"`
	Source     string    `json:"source"`
	HourlyRows int       `json:"hourly_rows"`
	DailyRows  int       `json:"daily_rows"`
	LoadedAt   time.Time `json:"loaded_at"`
}

func newReload(loaded *application.LoadedDataset) reloadDTO {
	return reloadDTO{
		Version:    loaded.Version,
		Source:     loaded.Source,
		HourlyRows: loaded.Dataset.HourlyLen(),
		DailyRows:  loaded.Dataset.DailyLen(),
		LoadedAt:   loaded.LoadedAt,
	}
}
