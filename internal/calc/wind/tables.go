package wind

import (
	"sort"

	"github.com/samber/lo"
)

// Tables holds the reference data used to resolve base speeds and factors.
// Values are representative, not authoritative code tables.
type Tables struct {
	ISBasicSpeed map[string]float64 // m/s by city
	GCCSpeed     map[string]float64 // mph by city
	RiskK1       map[string]float64
	TerrainK2    map[string]float64
	TopographyK3 map[string]float64
	Exposure     map[string]float64
}

type City struct {
	Name  string  `json:"name"`
	Speed float64 `json:"speed"`
	Unit  Unit    `json:"unit"`
}

func DefaultTables() Tables {
	return Tables{
		ISBasicSpeed: map[string]float64{
			"Mumbai": 60, "Delhi": 55, "Bengaluru": 55, "Chennai": 50, "Hyderabad": 55,
			"Ahmedabad": 44, "Pune": 40, "Kolkata": 50, "Lucknow": 47, "Surat": 44,
			"Jaipur": 33, "Nagpur": 39, "Bhopal": 39, "Visakhapatnam": 50, "Thiruvananthapuram": 39,
			"Rajkot": 44, "Indore": 39, "Ranchi": 47, "Coimbatore": 39, "Patna": 47,
		},
		GCCSpeed: map[string]float64{
			"Dubai": 110, "Abu Dhabi": 110, "Doha": 120, "Riyadh": 115, "Muscat": 110, "Manama": 110,
		},
		RiskK1:       map[string]float64{"normal": 1.00, "important": 1.15, "critical": 1.30},
		TerrainK2:    map[string]float64{"cat1": 0.95, "cat2": 1.00, "cat3": 1.05, "cat4": 1.10},
		TopographyK3: map[string]float64{"flat": 1.0, "small-rise": 1.05, "large-rise": 1.10, "slope": 1.20},
		Exposure:     map[string]float64{"B": 0.7, "C": 0.85, "D": 1.03},
	}
}

// lookup never fails: a missing table or key yields def.
func lookup(table map[string]float64, key string, def float64) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	return def
}

// Cities lists the regions known for a code, sorted by name.
func (t Tables) Cities(code Code) []City {
	table, unit := t.ISBasicSpeed, UnitMS
	if code == CodeASCE {
		table, unit = t.GCCSpeed, UnitMPH
	}
	names := lo.Keys(table)
	sort.Strings(names)
	return lo.Map(names, func(name string, _ int) City {
		return City{Name: name, Speed: table[name], Unit: unit}
	})
}
