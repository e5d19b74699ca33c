package aggregate

import (
	"eco2mix-insights/internal/energy/domain/dataset"
	"eco2mix-insights/internal/energy/domain/geo"
)

// fixedMapScale keeps column heights comparable from one period to another.
const fixedMapScale = 0.01

// MapColumn is one extruded column of the map: a source total placed on a region.
type MapColumn struct {
	RegionName string
	Position   geo.Coordinate
	Source     dataset.Source
	Value      float64
	Color      geo.Color
}

// MapView is the data behind the production map.
type MapView struct {
	Scale   float64
	Columns []MapColumn
	Plants  []geo.Plant
}

// MapScale returns the column elevation scale. With dynamic scaling the
// columns are fitted per period instead of sharing one scale.
func MapScale(kind dataset.PeriodKind, dynamic bool) float64 {
	if !dynamic {
		return fixedMapScale
	}
	switch kind {
	case dataset.PeriodWeek:
		return 0.1
	case dataset.PeriodMonth:
		return 0.04
	case dataset.PeriodYear:
		return 0.005
	default:
		return 0.0008
	}
}

// NewMapView places region totals on the map. Regions without a known
// centroid are left out.
func NewMapView(totals []RegionTotals, kind dataset.PeriodKind, dynamic bool) MapView {
	view := MapView{
		Scale:   MapScale(kind, dynamic),
		Columns: make([]MapColumn, 0, len(totals)*len(dataset.Sources())),
		Plants:  geo.NuclearPlants(),
	}
	for _, src := range dataset.Sources() {
		for _, t := range totals {
			pos, ok := geo.RegionCentroid(t.RegionName)
			if !ok {
				continue
			}
			view.Columns = append(view.Columns, MapColumn{
				RegionName: t.RegionName,
				Position:   pos,
				Source:     src,
				Value:      t.Production.Value(src),
				Color:      geo.SourceColor(src),
			})
		}
	}
	return view
}
