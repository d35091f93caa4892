// Package powerselect chooses gun powers for co-sputtering an inverse
// Heusler alloy X2YZ from three calibrated targets.
//
// X runs at a chosen power. Y and Z each need half the molar rate of X, so
// their powers are read off their own calibration lines at that rate.
package powerselect

import (
	"errors"
	"fmt"

	"github.com/xrdlab/sputtercal/pkg/calibration"
)

const (
	DefaultMaxPower  = 80.0
	DefaultMaskScale = 1.2
)

// ErrPowerOutOfRange is returned when the X power is outside [0, MaxPower).
var ErrPowerOutOfRange = errors.New("power out of range")

// Role is the site of a target in X2YZ.
type Role string

const (
	RoleX Role = "X"
	RoleY Role = "Y"
	RoleZ Role = "Z"
)

// Candidate is a target offered for one role.
type Candidate struct {
	Name  string
	Table *calibration.Table
}

// Request describes a selection.
type Request struct {
	X, Y, Z Candidate
	// Power is the X gun power in W.
	Power float64
	// MaxPower defaults to DefaultMaxPower.
	MaxPower float64
	// MaskScale defaults to DefaultMaskScale.
	MaskScale float64
}

// Setting is the chosen operating point of one gun.
type Setting struct {
	Role    Role            `json:"role"`
	Target  string          `json:"target"`
	Element string          `json:"element"`
	PowerW  float64         `json:"powerW"`
	Rate    float64         `json:"rateMolsPerSecPerCm2"`
	Fit     calibration.Fit `json:"fit"`
	// Extrapolated is set when the power lies outside the calibrated range.
	Extrapolated bool `json:"extrapolated"`
}

// Selection is the result of Select.
type Selection struct {
	Settings [3]Setting `json:"settings"`
	// XRate is the X rate at the requested power.
	XRate float64 `json:"xRate"`
	// YZRate is the rate Y and Z are set to, half of XRate.
	YZRate float64 `json:"yzRate"`
	// YZRateScaled is YZRate scaled for a linearly estimated X.
	YZRateScaled float64 `json:"yzRateScaled"`
	// Notices lists extrapolated or out-of-range settings.
	Notices []string `json:"notices,omitempty"`
}

// Select fits the three targets and derives the gun powers.
func Select(req Request) (*Selection, error) {
	maxPower := req.MaxPower
	if maxPower <= 0 {
		maxPower = DefaultMaxPower
	}
	scale := req.MaskScale
	if scale <= 0 {
		scale = DefaultMaskScale
	}
	if req.Power < 0 || req.Power >= maxPower {
		return nil, fmt.Errorf("%w: X power %g W must be within [0, %g)", ErrPowerOutOfRange, req.Power, maxPower)
	}

	roles := []struct {
		role Role
		c    Candidate
	}{{RoleX, req.X}, {RoleY, req.Y}, {RoleZ, req.Z}}

	sel := &Selection{}
	for i, r := range roles {
		if r.c.Table == nil {
			return nil, fmt.Errorf("no target given for %s", r.role)
		}
		fit, err := r.c.Table.Fit()
		if err != nil {
			return nil, fmt.Errorf("failed to fit %s target %s: %w", r.role, r.c.Name, err)
		}
		sel.Settings[i] = Setting{
			Role:    r.role,
			Target:  r.c.Name,
			Element: r.c.Table.Element(),
			Fit:     *fit,
		}
	}

	x := &sel.Settings[0]
	sel.XRate = x.Fit.RateAt(req.Power)
	sel.YZRate = sel.XRate / 2
	sel.YZRateScaled = sel.YZRate * scale
	x.PowerW = req.Power
	x.Rate = sel.XRate

	for i := 1; i < len(sel.Settings); i++ {
		s := &sel.Settings[i]
		if s.Fit.Slope == 0 {
			return nil, fmt.Errorf("failed to select %s target %s: rate does not depend on power", s.Role, s.Target)
		}
		s.PowerW = s.Fit.PowerFor(sel.YZRate)
		s.Rate = sel.YZRate
		if s.PowerW < 0 || s.PowerW >= maxPower {
			sel.Notices = append(sel.Notices, fmt.Sprintf("%s (%s) power %.2f W is outside [0, %g) W", s.Role, s.Element, s.PowerW, maxPower))
		}
	}

	for i := range sel.Settings {
		s := &sel.Settings[i]
		s.Extrapolated = s.Fit.Extrapolates(s.PowerW)
		if s.Extrapolated {
			sel.Notices = append(sel.Notices, fmt.Sprintf("%s (%s) power %.2f W is extrapolated beyond the calibrated %g-%g W", s.Role, s.Element, s.PowerW, s.Fit.MinPower, s.Fit.MaxPower))
		}
	}

	return sel, nil
}
