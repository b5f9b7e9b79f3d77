package wind

import (
	"math"

	"github.com/samber/lo"
)

const compareSteps = 12

type Series struct {
	Label   string  `json:"label"`
	Code    Code    `json:"code"`
	Profile Profile `json:"profile"`
}

// Comparison holds two profiles resampled onto one height grid.
type Comparison struct {
	A Series `json:"a"`
	B Series `json:"b"`
}

func (Comparison) Summary() string {
	return "Comparison: IS 875 vs ASCE/GCC"
}

// Interpolate returns the pressure at height z, linear between the bracketing
// points and clamped to the end points outside the profile's range.
func Interpolate(p Profile, z float64) float64 {
	if len(p) == 0 {
		return 0
	}
	if z <= p[0].HeightM {
		return p[0].PressureNM2
	}
	last := p[len(p)-1]
	if z >= last.HeightM {
		return last.PressureNM2
	}
	for i := 0; i < len(p)-1; i++ {
		below, above := p[i], p[i+1]
		if below.HeightM <= z && z <= above.HeightM {
			span := above.HeightM - below.HeightM
			if span == 0 {
				return above.PressureNM2
			}
			t := (z - below.HeightM) / span
			return below.PressureNM2 + t*(above.PressureNM2-below.PressureNM2)
		}
	}
	return last.PressureNM2
}

// Overlay resamples a and b onto 13 evenly spaced heights from 0 to the taller
// of the two profiles.
func Overlay(a, b Result) Comparison {
	maxZ := math.Max(a.Profile.Last().HeightM, b.Profile.Last().HeightM)
	grid := lo.Times(compareSteps+1, func(i int) float64 {
		return Round(maxZ*(float64(i)/compareSteps), 2)
	})
	resample := func(r Result) Series {
		return Series{
			Label: r.Label,
			Code:  r.Code,
			Profile: lo.Map(grid, func(z float64, _ int) Point {
				return Point{HeightM: z, PressureNM2: Round(Interpolate(r.Profile, z), 2)}
			}),
		}
	}
	return Comparison{A: resample(a), B: resample(b)}
}

// Compare evaluates both codes from the same raw inputs and overlays them.
func (c *Calculator) Compare(mode Mode, raw map[string]string) (Result, Result, Comparison) {
	is := c.Calculate(c.ParseInputs(CodeIS, mode, raw))
	asce := c.Calculate(c.ParseInputs(CodeASCE, mode, raw))
	return is, asce, Overlay(is, asce)
}
