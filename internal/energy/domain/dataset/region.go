package dataset

import "strings"

// AllRegionsLabel is the region list entry standing for no region filter.
const AllRegionsLabel = "All Region"

// RegionFilter matches rows by exact region name. The zero value matches all regions.
type RegionFilter struct {
	name string
}

// AllRegions disables region filtering.
func AllRegions() RegionFilter { return RegionFilter{} }

// Region matches one region name exactly.
func Region(name string) RegionFilter { return RegionFilter{name: name} }

// ParseRegion maps a query value to a filter; empty, "all" and the
// "All Region" label all mean no filtering.
func ParseRegion(value string) RegionFilter {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, "all") || trimmed == AllRegionsLabel {
		return AllRegions()
	}
	return Region(trimmed)
}

// IsAll tells if the filter is disabled.
func (f RegionFilter) IsAll() bool { return f.name == "" }

// Name returns the region name, empty for all regions.
func (f RegionFilter) Name() string { return f.name }

// Matches checks a region name against the filter.
func (f RegionFilter) Matches(regionName string) bool {
	return f.name == "" || f.name == regionName
}

// String returns a stable key for the filter.
func (f RegionFilter) String() string {
	if f.IsAll() {
		return AllRegionsLabel
	}
	return f.name
}
