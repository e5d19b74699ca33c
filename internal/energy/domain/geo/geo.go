// Package geo holds the fixed reference data used by the map view: region
// centroids, nuclear power plant positions and source colours.
package geo

import (
	"cmp"
	"fmt"
	"slices"

	"eco2mix-insights/internal/energy/domain/dataset"
)

// Coordinate is a WGS84 position.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Plant is a named nuclear power plant.
type Plant struct {
	Name     string
	Position Coordinate
}

// Color is an RGB colour.
type Color struct {
	R, G, B uint8
}

// Hex returns the #RRGGBB form.
func (c Color) Hex() string { return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B) }

var regionCentroids = map[string]Coordinate{
	"Auvergne-Rhône-Alpes":       {45.75, 4.85},
	"Bourgogne-Franche-Comté":    {47.25, 5.95},
	"Bretagne":                   {48.25, -2.75},
	"Centre-Val de Loire":        {47.75, 1.75},
	"Corse":                      {42.25, 9.25},
	"Grand Est":                  {48.75, 5.75},
	"Hauts-de-France":            {50.5, 2.75},
	"Île-de-France":              {48.75, 2.25},
	"Normandie":                  {49.25, 0.25},
	"Nouvelle-Aquitaine":         {45.25, 0.25},
	"Occitanie":                  {43.75, 1.75},
	"Pays de la Loire":           {47.5, -0.75},
	"Provence-Alpes-Côte d'Azur": {43.75, 6.25},
}

var nuclearPlants = []Plant{
	{"Belleville", Coordinate{47.510534, 2.8761864}},
	{"Blayais", Coordinate{45.255833, -0.693056}},
	{"Bugey", Coordinate{45.798333, 5.270833}},
	{"Cattenom", Coordinate{49.4158, 6.2181}},
	{"Chinon", Coordinate{47.230556, 0.170556}},
	{"Chooz-B", Coordinate{50.09, 4.789444}},
	{"Civaux", Coordinate{46.456667, 0.652778}},
	{"Cruas", Coordinate{44.633056, 4.756667}},
	{"Dampierre", Coordinate{47.7336808, 2.5172853}},
	{"Fessenheim", Coordinate{47.9032247, 7.5623059}},
	{"Flamanville", Coordinate{49.536389, -1.881667}},
	{"Golfech", Coordinate{44.1067, 0.8453}},
	{"Gravelines", Coordinate{51.015278, 2.136111}},
	{"Nogent", Coordinate{48.515278, 3.517778}},
	{"Paluel", Coordinate{49.858056, 0.635556}},
	{"Penly", Coordinate{49.976667, 1.211944}},
	{"Saint-Alban", Coordinate{45.4042957, 4.7555351}},
	{"Saint-Laurent-B", Coordinate{47.72, 1.5775}},
	{"Tricastin", Coordinate{44.329722, 4.732222}},
}

var sourceColors = map[dataset.Source]Color{
	dataset.SourceThermal:   {255, 82, 88},
	dataset.SourceNuclear:   {255, 187, 74},
	dataset.SourceWind:      {144, 248, 255},
	dataset.SourceSolar:     {249, 255, 114},
	dataset.SourceHydraulic: {0, 149, 255},
	dataset.SourceBioenergy: {121, 255, 105},
}

// RegionCentroid returns the map position of a region.
func RegionCentroid(regionName string) (Coordinate, bool) {
	c, ok := regionCentroids[regionName]
	return c, ok
}

// NuclearPlants returns the plant list ordered by name.
func NuclearPlants() []Plant {
	out := slices.Clone(nuclearPlants)
	slices.SortFunc(out, func(a, b Plant) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// SourceColor returns the chart colour of a source; white for unknown sources.
func SourceColor(s dataset.Source) Color {
	if c, ok := sourceColors[s]; ok {
		return c
	}
	return Color{255, 255, 255}
}
