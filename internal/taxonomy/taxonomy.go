package taxonomy

import (
	"encoding/json"

	"orrery/internal/catalog"
)

// Category is a thematic bucket for a confirmed planet.
type Category string

const (
	CategoryTerrestrial Category = "terrestrial"
	CategorySuperEarth  Category = "super-earth"
	CategoryMiniNeptune Category = "mini-neptune"
	CategoryNeptuneLike Category = "neptune-like"
	CategoryHotJupiter  Category = "hot-jupiter"
	CategoryGasGiant    Category = "gas-giant"
	CategoryUnknown     Category = "unknown"
)

// Radius thresholds in Earth radii, boundaries conventional in the
// transit-survey literature.
const (
	maxTerrestrialRadius = 1.25
	maxSuperEarthRadius  = 2.0
	maxMiniNeptuneRadius = 4.0
	maxNeptuneLikeRadius = 6.0
)

// A giant counts as hot when it sits close to its star.
const (
	hotJupiterMaxPeriodDays = 10.0
	hotJupiterMinTempK      = 1000.0
)

// Categorize buckets a planet by radius, orbital period, and equilibrium
// temperature. Pure and stateless; callers pass zero for unknown values and
// get CategoryUnknown back when the radius is missing.
func Categorize(radiusEarth, periodDays, equilibriumTempK float64) Category {
	if radiusEarth <= 0 {
		return CategoryUnknown
	}
	switch {
	case radiusEarth <= maxTerrestrialRadius:
		return CategoryTerrestrial
	case radiusEarth <= maxSuperEarthRadius:
		return CategorySuperEarth
	case radiusEarth <= maxMiniNeptuneRadius:
		return CategoryMiniNeptune
	case radiusEarth <= maxNeptuneLikeRadius:
		return CategoryNeptuneLike
	default:
		if (periodDays > 0 && periodDays <= hotJupiterMaxPeriodDays) ||
			equilibriumTempK >= hotJupiterMinTempK {
			return CategoryHotJupiter
		}
		return CategoryGasGiant
	}
}

// CategorizeCandidate reads the physical fields persisted with a candidate
// and buckets it. Records with no usable fields come back as unknown.
func CategorizeCandidate(candidate *catalog.Candidate) Category {
	if candidate == nil || candidate.FieldsJSON == "" {
		return CategoryUnknown
	}
	var fields struct {
		PlanetRadius    float64 `json:"planet_radius"`
		OrbitalPeriod   float64 `json:"orbital_period"`
		EquilibriumTemp float64 `json:"equilibrium_temp"`
	}
	if err := json.Unmarshal([]byte(candidate.FieldsJSON), &fields); err != nil {
		return CategoryUnknown
	}
	return Categorize(fields.PlanetRadius, fields.OrbitalPeriod, fields.EquilibriumTemp)
}
