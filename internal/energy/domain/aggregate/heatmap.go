package aggregate

import (
	"math"
	"slices"

	"eco2mix-insights/internal/energy/domain/dataset"
)

// Heatmap is a region x source matrix of production totals.
// Values[i][j] is the total of Sources[j] in Regions[i].
type Heatmap struct {
	Regions []string
	Sources []dataset.Source
	Values  [][]float64
}

// NewHeatmap lays out region totals as a matrix. Sources listed in exclude are
// dropped; a negative digits rounds to that power of ten (-4 rounds to 10 000),
// zero keeps raw values.
func NewHeatmap(totals []RegionTotals, exclude []dataset.Source, digits int) Heatmap {
	var sources []dataset.Source
	for _, src := range dataset.Sources() {
		if !slices.Contains(exclude, src) {
			sources = append(sources, src)
		}
	}
	h := Heatmap{
		Regions: make([]string, 0, len(totals)),
		Sources: sources,
		Values:  make([][]float64, 0, len(totals)),
	}
	for _, t := range totals {
		row := make([]float64, 0, len(sources))
		for _, src := range sources {
			row = append(row, Round(t.Production.Value(src), digits))
		}
		h.Regions = append(h.Regions, t.RegionName)
		h.Values = append(h.Values, row)
	}
	return h
}

// Round rounds value to the given number of decimal digits; negative digits
// round to the left of the decimal point.
func Round(value float64, digits int) float64 {
	switch {
	case digits == 0:
		return value
	case digits < 0:
		scale := math.Pow10(-digits)
		return math.Round(value/scale) * scale
	default:
		scale := math.Pow10(digits)
		return math.Round(value*scale) / scale
	}
}
