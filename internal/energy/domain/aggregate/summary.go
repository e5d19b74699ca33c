package aggregate

import (
	"iter"
	"math"
	"time"

	"eco2mix-insights/internal/energy/domain/dataset"
)

// Summary holds the headline metrics computed from the hourly table.
type Summary struct {
	Cutoff               time.Time
	ConsumptionToday     float64
	ConsumptionYesterday float64
	ConsumptionThisYear  float64
	// ConsumptionLastYear covers the previous year up to the cutoff minus 365 days.
	ConsumptionLastYear float64
	ExchangeToday       float64
	ExchangeYesterday   float64
}

// Summarize computes the headline metrics for the cutoff day.
func Summarize(rows iter.Seq[dataset.Observation], cutoff time.Time) Summary {
	today := dataset.Day(cutoff)
	yesterday := today.AddDate(0, 0, -1)
	lastYearLimit := today.AddDate(0, 0, -365)

	s := Summary{Cutoff: today}
	for o := range rows {
		day := dataset.Day(o.Timestamp)
		switch {
		case day.Equal(today):
			s.ConsumptionToday += o.Consumption
			s.ExchangeToday += o.Exchange
		case day.Equal(yesterday):
			s.ConsumptionYesterday += o.Consumption
			s.ExchangeYesterday += o.Exchange
		}
		switch day.Year() {
		case today.Year():
			s.ConsumptionThisYear += o.Consumption
		case today.Year() - 1:
			if !day.After(lastYearLimit) {
				s.ConsumptionLastYear += o.Consumption
			}
		}
	}
	return s
}

// ConsumptionDayDelta is today's consumption minus yesterday's.
func (s Summary) ConsumptionDayDelta() float64 {
	return s.ConsumptionToday - s.ConsumptionYesterday
}

// ConsumptionYearDelta is this year's consumption minus the same span last year.
func (s Summary) ConsumptionYearDelta() float64 {
	return s.ConsumptionThisYear - s.ConsumptionLastYear
}

// ExportToday is the exported volume of the cutoff day, as a positive value.
func (s Summary) ExportToday() float64 { return math.Abs(math.Min(s.ExchangeToday, 0)) }

// ImportToday is the imported volume of the cutoff day.
func (s Summary) ImportToday() float64 { return math.Max(s.ExchangeToday, 0) }

// ExportDelta is the export part of the day-over-day exchange change.
func (s Summary) ExportDelta() float64 {
	return math.Abs(math.Min(s.ExchangeToday-s.ExchangeYesterday, 0))
}

// ImportDelta is the import part of the day-over-day exchange change.
func (s Summary) ImportDelta() float64 {
	return math.Max(s.ExchangeToday-s.ExchangeYesterday, 0)
}
