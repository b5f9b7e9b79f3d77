package wind

import (
	"fmt"
	"math"
	"strconv"
)

type Code string

const (
	CodeIS   Code = "is"
	CodeASCE Code = "asce"
)

type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
)

type Unit string

const (
	UnitMS  Unit = "ms"
	UnitMPH Unit = "mph"
)

const (
	mphToMS = 0.44704
	msToMPH = 2.23694
	psfToNM = 47.880258

	minSteps = 6

	// MaxHeightM bounds the profile height; taller inputs are clamped to it.
	MaxHeightM = 1000.0
)

type Input struct {
	Code          Code    `json:"code"`
	Mode          Mode    `json:"mode"`
	City          string  `json:"city"`
	ManualSpeed   float64 `json:"manual_speed"`
	ManualUnit    Unit    `json:"manual_unit"`
	OverrideSpeed float64 `json:"override_speed"`
	HeightM       float64 `json:"height_m"`

	K1 float64 `json:"k1"`
	K2 float64 `json:"k2"`
	K3 float64 `json:"k3"`
	K4 float64 `json:"k4"`

	Exposure float64 `json:"exposure"`
	Kd       float64 `json:"kd"`
	Kzt      float64 `json:"kzt"`
}

type Point struct {
	HeightM     float64 `json:"z"`
	PressureNM2 float64 `json:"pd"`
}

type Profile []Point

type Result struct {
	Code        Code    `json:"code"`
	Label       string  `json:"label"`
	Unit        Unit    `json:"unit"`
	BaseSpeed   float64 `json:"base_speed"`
	DesignSpeed float64 `json:"design_speed"`
	PressureNM2 float64 `json:"pressure_n_m2"`
	PressurePSF float64 `json:"pressure_psf,omitempty"`
	HeightM     float64 `json:"height_m"`
	Profile     Profile `json:"profile"`
}

// Calculator evaluates both wind codes against an injected set of reference tables.
type Calculator struct {
	tables Tables
}

func NewCalculator(t Tables) *Calculator {
	return &Calculator{tables: t}
}

func (c *Calculator) Tables() Tables {
	return c.tables
}

func (c *Calculator) Calculate(in Input) Result {
	in.HeightM = ClampHeight(in.HeightM)
	if normalizeCode(in.Code) == CodeASCE {
		return c.calculateASCE(in)
	}
	return c.calculateIS(in)
}

func (c *Calculator) calculateIS(in Input) Result {
	vb := c.baseSpeedIS(in)
	vz := vb * factor(in.K1) * factor(in.K2) * factor(in.K3) * factor(in.K4)
	pd := 0.6 * vz * vz
	return Result{
		Code:        CodeIS,
		Label:       "IS 875",
		Unit:        UnitMS,
		BaseSpeed:   Round(vb, 2),
		DesignSpeed: Round(vz, 2),
		PressureNM2: Round(pd, 2),
		HeightM:     in.HeightM,
		Profile: expand(in.HeightM, func(z float64) float64 {
			vzz := vz * math.Pow(1+0.05*math.Min(z/10, 4), 0.6)
			return 0.6 * vzz * vzz
		}),
	}
}

func (c *Calculator) calculateASCE(in Input) Result {
	v := c.baseSpeedASCE(in)
	exposure := orDefault(in.Exposure, DefaultExposure)
	kd := orDefault(in.Kd, DefaultKd)
	kzt := orDefault(in.Kzt, DefaultKzt)

	qzPSF := 0.00256 * v * v * exposure * kd * kzt
	qzN := qzPSF * psfToNM
	return Result{
		Code:        CodeASCE,
		Label:       "ASCE/GCC",
		Unit:        UnitMPH,
		BaseSpeed:   Round(v, 2),
		DesignSpeed: Round(v, 2),
		PressureNM2: Round(qzN, 2),
		PressurePSF: Round(qzPSF, 4),
		HeightM:     in.HeightM,
		Profile: expand(in.HeightM, func(z float64) float64 {
			return qzN * (1 + 0.03*(z/10))
		}),
	}
}

// baseSpeedIS returns Vb in m/s.
func (c *Calculator) baseSpeedIS(in Input) float64 {
	if normalizeMode(in.Mode) == ModeManual {
		if in.ManualUnit == UnitMPH {
			return in.ManualSpeed * mphToMS
		}
		return in.ManualSpeed
	}
	if v := lookup(c.tables.ISBasicSpeed, in.City, 0); v != 0 {
		return v
	}
	// legacy blobs stored the selected speed itself in the city field
	if v := ParseWithDefault(in.City, 0); v > 0 {
		return v
	}
	return in.OverrideSpeed
}

// baseSpeedASCE returns V in mph.
func (c *Calculator) baseSpeedASCE(in Input) float64 {
	if normalizeMode(in.Mode) == ModeManual {
		if in.ManualUnit == UnitMS {
			return in.ManualSpeed * msToMPH
		}
		return in.ManualSpeed
	}
	if v := lookup(c.tables.GCCSpeed, in.City, 0); v != 0 {
		return v
	}
	return in.OverrideSpeed
}

// ClampHeight maps NaN and negative heights to 0 and anything above
// MaxHeightM, +Inf included, to MaxHeightM.
func ClampHeight(h float64) float64 {
	if math.IsNaN(h) || h < 0 {
		return 0
	}
	return math.Min(h, MaxHeightM)
}

// expand samples pressureAt on max(6, ceil(H/2)) equal steps from 0 to H.
// Heights are snapped to 0.1 m before the pressure is evaluated.
func expand(heightM float64, pressureAt func(z float64) float64) Profile {
	steps := int(math.Max(minSteps, math.Ceil(heightM/2)))
	points := make(Profile, 0, steps+1)
	for i := 0; i <= steps; i++ {
		z := Round(heightM*(float64(i)/float64(steps)), 1)
		points = append(points, Point{
			HeightM:     Round(z, 2),
			PressureNM2: Round(pressureAt(z), 2),
		})
	}
	return points
}

// Round rounds half up to d decimal places.
func Round(v float64, d int) float64 {
	p := math.Pow(10, float64(d))
	return math.Floor(v*p+0.5) / p
}

func factor(v float64) float64 {
	return orDefault(v, DefaultFactor)
}

func orDefault(v, def float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return def
	}
	return v
}

// Summary renders the one-line result description shown with every chart.
func (r Result) Summary() string {
	if r.Code == CodeASCE {
		return fmt.Sprintf("%s • V=%s mph → qz ≈ %s psf (~%s N/m²)",
			r.Label, num(r.BaseSpeed), num(r.PressurePSF), num(r.PressureNM2))
	}
	return fmt.Sprintf("%s • Vb=%s m/s → Vz=%s m/s • Pd ≈ %s N/m²",
		r.Label, num(r.BaseSpeed), num(r.DesignSpeed), num(r.PressureNM2))
}

func (p Profile) Last() Point {
	if len(p) == 0 {
		return Point{}
	}
	return p[len(p)-1]
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
