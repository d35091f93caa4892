package calibration

import (
	"sort"
	"strings"
)

// Base names of the measured columns.
const (
	ColMassI   = "mass_i"
	ColMassF   = "mass_f"
	ColPower   = "power"
	ColTime    = "time"
	ColArea    = "area"
	ColElement = "element"
)

// Names of the derived columns, in the order they are computed.
const (
	ColMassDiff              = "mass_diff (mg)"
	ColTimeSec               = "time (s)"
	ColMols                  = "mols"
	ColMolsPerArea           = "mols/cm^2"
	ColRateMolsPerSec        = "rate (mols/s)"
	ColRateMolsPerSecPerArea = "rate (mols/s/cm^2)"
	ColThicknessNm           = "nm"
	ColRateNmPerSec          = "rate (nm/s)"
)

var (
	// RequiredColumns must resolve for every row of a table.
	RequiredColumns = []string{ColMassI, ColMassF, ColPower, ColTime, ColArea}

	// HeaderFallbackColumns may be given once in the header instead of as a
	// column, in which case the value applies to every row.
	HeaderFallbackColumns = []string{ColPower, ColTime, ColArea}

	// DerivedColumns lists the computed columns appended to every table.
	DerivedColumns = []string{
		ColMassDiff,
		ColTimeSec,
		ColMols,
		ColMolsPerArea,
		ColRateMolsPerSec,
		ColRateMolsPerSecPerArea,
		ColThicknessNm,
		ColRateNmPerSec,
	}

	// CanonicalNames maps a required base name to its name with units.
	CanonicalNames = map[string]string{
		ColMassI: "mass_i (mg)",
		ColMassF: "mass_f (mg)",
		ColPower: "power (W)",
		ColTime:  "time (min)",
		ColArea:  "area (cm^2)",
	}
)

// TableMotion is the sample table motion during deposition.
type TableMotion string

const (
	MotionStationary TableMotion = "stationary"
	MotionRotating   TableMotion = "rotating"
)

// Header holds the metadata block of a calibration file.
type Header struct {
	Element      string  `yaml:"element" json:"element" validate:"required"`
	AtomicMass   float64 `yaml:"atomic_mass" json:"atomicMass" validate:"gt=0"`
	Density      float64 `yaml:"density" json:"density" validate:"gt=0"`
	TableMotion  string  `yaml:"table_motion,omitempty" json:"tableMotion,omitempty"`
	Date         string  `yaml:"date,omitempty" json:"date,omitempty"`
	Experimenter string  `yaml:"experimenter,omitempty" json:"experimenter,omitempty"`
	// Extra keeps every other key, including the power/time/area fallbacks.
	Extra map[string]any `yaml:",inline" json:"extra,omitempty"`

	motionDeclared bool
}

const keyTableMotion = "table_motion"

// Motion returns the table motion, lower-cased.
func (h Header) Motion() TableMotion {
	return TableMotion(strings.ToLower(strings.TrimSpace(h.TableMotion)))
}

// HasMotion reports whether table_motion was given, even with an empty value.
func (h Header) HasMotion() bool {
	return h.motionDeclared || strings.TrimSpace(h.TableMotion) != ""
}

// lookup finds the extra key whose base name is base. An exact key wins over
// one carrying a unit annotation.
func (h Header) lookup(base string) (string, any, bool) {
	if v, ok := h.Extra[base]; ok {
		return base, v, true
	}
	keys := make([]string, 0, len(h.Extra))
	for k := range h.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if BaseName(k) == base {
			return k, h.Extra[k], true
		}
	}
	return "", nil, false
}

func (h Header) clone() Header {
	c := h
	if h.Extra != nil {
		c.Extra = make(map[string]any, len(h.Extra))
		for k, v := range h.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// Derived holds the quantities computed from a measured row.
type Derived struct {
	MassDiff              float64 `json:"massDiffMg"`
	TimeSec               float64 `json:"timeSec"`
	Mols                  float64 `json:"mols"`
	MolsPerArea           float64 `json:"molsPerCm2"`
	RateMolsPerSec        float64 `json:"rateMolsPerSec"`
	RateMolsPerSecPerArea float64 `json:"rateMolsPerSecPerCm2"`
	ThicknessNm           float64 `json:"thicknessNm"`
	RateNmPerSec          float64 `json:"rateNmPerSec"`
}

// Row is one weigh-disc measurement.
type Row struct {
	Element string  `json:"element"`
	MassI   float64 `json:"massInitialMg"`
	MassF   float64 `json:"massFinalMg"`
	Power   float64 `json:"powerW"`
	Time    float64 `json:"timeMin"`
	Area    float64 `json:"areaCm2"`
	Derived
	// Extra holds the raw values of columns outside the required set.
	Extra []string `json:"extra,omitempty"`
}

// Value returns the numeric value of the named column. Measured columns match
// by base name, derived ones by their full name.
func (r Row) Value(name string) (float64, bool) {
	switch name {
	case ColMassDiff:
		return r.MassDiff, true
	case ColTimeSec:
		return r.TimeSec, true
	case ColMols:
		return r.Mols, true
	case ColMolsPerArea:
		return r.MolsPerArea, true
	case ColRateMolsPerSec:
		return r.RateMolsPerSec, true
	case ColRateMolsPerSecPerArea:
		return r.RateMolsPerSecPerArea, true
	case ColThicknessNm:
		return r.ThicknessNm, true
	case ColRateNmPerSec:
		return r.RateNmPerSec, true
	}

	switch BaseName(name) {
	case ColMassI:
		return r.MassI, true
	case ColMassF:
		return r.MassF, true
	case ColPower:
		return r.Power, true
	case ColTime:
		return r.Time, true
	case ColArea:
		return r.Area, true
	}
	return 0, false
}

func (r *Row) set(base string, v float64) {
	switch base {
	case ColMassI:
		r.MassI = v
	case ColMassF:
		r.MassF = v
	case ColPower:
		r.Power = v
	case ColTime:
		r.Time = v
	case ColArea:
		r.Area = v
	}
}

// BaseName strips surrounding whitespace and a trailing unit annotation:
// "mass_i (mg)" becomes "mass_i".
func BaseName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.Index(name, "("); i > 0 {
		name = strings.TrimSpace(name[:i])
	}
	return name
}

func allowsHeaderFallback(base string) bool {
	for _, c := range HeaderFallbackColumns {
		if c == base {
			return true
		}
	}
	return false
}
