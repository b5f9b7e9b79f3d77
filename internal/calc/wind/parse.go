package wind

import (
	"math"
	"strconv"
	"strings"
)

// Raw input keys, one per form field.
const (
	KeyCity     = "city"
	KeyHeight   = "height"
	KeyManualV  = "man_v"
	KeyManualU  = "man_unit"
	KeyISVb     = "is_vb"
	KeyISK1     = "is_k1"
	KeyISK2     = "is_k2"
	KeyISK3     = "is_k3"
	KeyISK4     = "is_k4"
	KeyISWidth  = "is_w"
	KeyISLength = "is_l"
	KeyASCEV    = "asce_V"
	KeyASCEExp  = "asce_exp"
	KeyASCEKd   = "asce_kd"
	KeyASCEKzt  = "asce_kzt"
)

const (
	DefaultFactor   = 1.0
	DefaultExposure = 0.85
	DefaultKd       = 0.85
	DefaultKzt      = 1.0
)

// ParseWithDefault parses raw as a number. Empty, non-numeric, non-finite and
// zero values all yield def; it never fails.
func ParseWithDefault(raw string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
		return def
	}
	return v
}

// parseFactor accepts a literal multiplier or a table category ("important",
// "cat3", "C"). Anything that parses as a number is taken literally, so "1"
// always means 1.0.
func parseFactor(raw string, table map[string]float64, def float64) float64 {
	raw = strings.TrimSpace(raw)
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return ParseWithDefault(raw, def)
	}
	if v, ok := table[raw]; ok {
		return v
	}
	return def
}

// ParseInputs turns a bag of raw form strings into an Input for the given code.
func (c *Calculator) ParseInputs(code Code, mode Mode, raw map[string]string) Input {
	in := Input{
		Code:        normalizeCode(code),
		Mode:        normalizeMode(mode),
		City:        strings.TrimSpace(raw[KeyCity]),
		ManualSpeed: ParseWithDefault(raw[KeyManualV], 0),
		ManualUnit:  Unit(strings.TrimSpace(raw[KeyManualU])),
		HeightM:     ClampHeight(ParseWithDefault(raw[KeyHeight], 0)),
	}
	if in.Code == CodeASCE {
		in.OverrideSpeed = ParseWithDefault(raw[KeyASCEV], 0)
		in.Exposure = parseFactor(raw[KeyASCEExp], c.tables.Exposure, DefaultExposure)
		in.Kd = ParseWithDefault(raw[KeyASCEKd], DefaultKd)
		in.Kzt = ParseWithDefault(raw[KeyASCEKzt], DefaultKzt)
		return in
	}
	in.OverrideSpeed = ParseWithDefault(raw[KeyISVb], 0)
	in.K1 = parseFactor(raw[KeyISK1], c.tables.RiskK1, DefaultFactor)
	in.K2 = parseFactor(raw[KeyISK2], c.tables.TerrainK2, DefaultFactor)
	in.K3 = parseFactor(raw[KeyISK3], c.tables.TopographyK3, DefaultFactor)
	in.K4 = ParseWithDefault(raw[KeyISK4], DefaultFactor)
	return in
}

func normalizeCode(code Code) Code {
	if Code(strings.ToLower(string(code))) == CodeASCE {
		return CodeASCE
	}
	return CodeIS
}

func normalizeMode(mode Mode) Mode {
	if Mode(strings.ToLower(string(mode))) == ModeManual {
		return ModeManual
	}
	return ModeAuto
}
