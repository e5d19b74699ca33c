package dataset

import "time"

// Observation is one hourly row of regional energy data.
// Timestamp is normalised to UTC. Date is the calendar day the row belongs to,
// as midnight UTC.
type Observation struct {
	RegionCode  string
	RegionName  string
	Timestamp   time.Time
	Date        time.Time
	Consumption float64
	Production  Production
	// Exchange is the physical exchange balance: negative exports, positive imports.
	Exchange float64
}

// Validate ensures the row can be placed in the tables.
func (o Observation) Validate() error {
	if o.RegionName == "" {
		return ErrEmptyRegion
	}
	if o.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	return nil
}

// Record returns the row in the common filtered shape.
func (o Observation) Record() Record {
	return Record{
		RegionCode:  o.RegionCode,
		RegionName:  o.RegionName,
		At:          o.Timestamp,
		Consumption: o.Consumption,
		Production:  o.Production,
		Exchange:    o.Exchange,
	}
}

// DailyObservation is the sum of all hourly rows of one (region, date).
type DailyObservation struct {
	RegionCode  string
	RegionName  string
	Date        time.Time
	Consumption float64
	Production  Production
	Exchange    float64
	Samples     int
}

// Record returns the row in the common filtered shape.
func (d DailyObservation) Record() Record {
	return Record{
		RegionCode:  d.RegionCode,
		RegionName:  d.RegionName,
		At:          d.Date,
		Consumption: d.Consumption,
		Production:  d.Production,
		Exchange:    d.Exchange,
	}
}

// Resolution tells which table a slice was taken from.
type Resolution string

const (
	ResolutionHourly Resolution = "hourly"
	ResolutionDaily  Resolution = "daily"
)

// Record is a filtered row, hourly or daily depending on the slice resolution.
type Record struct {
	RegionCode  string
	RegionName  string
	At          time.Time
	Consumption float64
	Production  Production
	Exchange    float64
}

// Slice is the result of a period/region selection.
type Slice struct {
	Resolution Resolution
	Records    []Record
}

// Len returns the number of rows.
func (s Slice) Len() int { return len(s.Records) }

// Day truncates t to midnight UTC of its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
