package dataset

// Source is a production source as named in the éCO2mix columns.
type Source string

const (
	SourceThermal   Source = "thermique"
	SourceNuclear   Source = "nucleaire"
	SourceWind      Source = "eolien"
	SourceSolar     Source = "solaire"
	SourceHydraulic Source = "hydraulique"
	SourceBioenergy Source = "bioenergies"
)

var sources = [...]Source{
	SourceThermal,
	SourceNuclear,
	SourceWind,
	SourceSolar,
	SourceHydraulic,
	SourceBioenergy,
}

// Sources returns the six production sources in canonical column order.
func Sources() []Source {
	out := make([]Source, len(sources))
	copy(out, sources[:])
	return out
}

// ParseSource resolves a column name into a Source.
func ParseSource(value string) (Source, error) {
	for _, s := range sources {
		if string(s) == value {
			return s, nil
		}
	}
	return "", ErrUnknownSource
}

// Production holds the per-source production values of one row, in MW.
type Production struct {
	Thermal   float64
	Nuclear   float64
	Wind      float64
	Solar     float64
	Hydraulic float64
	Bioenergy float64
}

// Value returns the value for a source, zero for an unknown source.
func (p Production) Value(s Source) float64 {
	switch s {
	case SourceThermal:
		return p.Thermal
	case SourceNuclear:
		return p.Nuclear
	case SourceWind:
		return p.Wind
	case SourceSolar:
		return p.Solar
	case SourceHydraulic:
		return p.Hydraulic
	case SourceBioenergy:
		return p.Bioenergy
	default:
		return 0
	}
}

// With returns a copy of p with the value of s replaced.
func (p Production) With(s Source, value float64) Production {
	switch s {
	case SourceThermal:
		p.Thermal = value
	case SourceNuclear:
		p.Nuclear = value
	case SourceWind:
		p.Wind = value
	case SourceSolar:
		p.Solar = value
	case SourceHydraulic:
		p.Hydraulic = value
	case SourceBioenergy:
		p.Bioenergy = value
	}
	return p
}

// Add returns the field-wise sum of p and o.
func (p Production) Add(o Production) Production {
	return Production{
		Thermal:   p.Thermal + o.Thermal,
		Nuclear:   p.Nuclear + o.Nuclear,
		Wind:      p.Wind + o.Wind,
		Solar:     p.Solar + o.Solar,
		Hydraulic: p.Hydraulic + o.Hydraulic,
		Bioenergy: p.Bioenergy + o.Bioenergy,
	}
}

// Total is the sum over the six sources.
func (p Production) Total() float64 {
	return p.Thermal + p.Nuclear + p.Wind + p.Solar + p.Hydraulic + p.Bioenergy
}
