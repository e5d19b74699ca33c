package aggregate

import "eco2mix-insights/internal/energy/domain/dataset"

// Category groups production sources for the energy mix view.
type Category string

const (
	CategoryClean   Category = "propre"
	CategoryDirty   Category = "sale"
	CategoryNuclear Category = "nucleaire"
)

var categories = [...]Category{CategoryClean, CategoryDirty, CategoryNuclear}

// CategoryTotal is the production summed for one category.
type CategoryTotal struct {
	Category Category
	Value    float64
}

// CategoryOf maps a source to its mix category. Nuclear stays on its own.
func CategoryOf(s dataset.Source) Category {
	switch s {
	case dataset.SourceThermal:
		return CategoryDirty
	case dataset.SourceNuclear:
		return CategoryNuclear
	default:
		return CategoryClean
	}
}

// Mix folds per-source totals into clean, dirty and nuclear totals.
func Mix(totals []SourceTotal) []CategoryTotal {
	if len(totals) == 0 {
		return []CategoryTotal{}
	}
	sums := make(map[Category]float64, len(categories))
	for _, t := range totals {
		sums[CategoryOf(t.Source)] += t.Value
	}
	out := make([]CategoryTotal, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryTotal{Category: c, Value: sums[c]})
	}
	return out
}
