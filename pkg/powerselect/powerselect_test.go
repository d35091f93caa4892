package powerselect

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xrdlab/sputtercal/pkg/calibration"
)

// linearTarget returns a target whose rate per area is power*1e-6/60/atomicMass.
func linearTarget(t *testing.T, element string, atomicMass float64, powers ...float64) Candidate {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "---\nelement: %s\natomic_mass: %g\ndensity: 1\ntime: 1\narea: 1\n...\n", element, atomicMass)
	b.WriteString("mass_i (mg), mass_f (mg), power (W)\n")
	for _, p := range powers {
		fmt.Fprintf(&b, "0, %g, %g\n", p/1000, p)
	}
	tbl, err := calibration.Parse(strings.NewReader(b.String()), nil)
	require.NoError(t, err)
	return Candidate{Name: element + "_cal", Table: tbl}
}

func TestSelect(t *testing.T) {
	req := Request{
		X:     linearTarget(t, "Co", 1, 20, 40, 60),
		Y:     linearTarget(t, "Mn", 2, 20, 40, 60),
		Z:     linearTarget(t, "Ge", 3, 20, 40, 60),
		Power: 30,
	}

	sel, err := Select(req)
	require.NoError(t, err)

	x, y, z := sel.Settings[0], sel.Settings[1], sel.Settings[2]
	assert.Equal(t, RoleX, x.Role)
	assert.Equal(t, "Co", x.Element)
	assert.Equal(t, "Co_cal", x.Target)
	assert.Equal(t, 30.0, x.PowerW)
	assert.Equal(t, x.Fit.RateAt(30), sel.XRate)
	assert.Equal(t, sel.XRate, x.Rate)
	assert.InEpsilon(t, 30e-6/60, sel.XRate, 1e-9)

	assert.Equal(t, sel.XRate/2, sel.YZRate)
	assert.Equal(t, sel.YZRate*DefaultMaskScale, sel.YZRateScaled)

	assert.InDelta(t, 30, y.PowerW, 1e-6)
	assert.InDelta(t, 45, z.PowerW, 1e-6)
	assert.Equal(t, sel.YZRate, y.Rate)
	assert.Equal(t, sel.YZRate, z.Rate)
	assert.InEpsilon(t, sel.YZRate, y.Fit.RateAt(y.PowerW), 1e-9)

	assert.Empty(t, sel.Notices)
	for _, s := range sel.Settings {
		assert.False(t, s.Extrapolated, s.Role)
	}
}

func TestSelectNotices(t *testing.T) {
	sel, err := Select(Request{
		X:         linearTarget(t, "Co", 1, 20, 40, 60),
		Y:         linearTarget(t, "Mn", 2, 20, 40, 60),
		Z:         linearTarget(t, "Ge", 6, 20, 40, 60),
		Power:     30,
		MaskScale: 1.5,
	})
	require.NoError(t, err)

	z := sel.Settings[2]
	assert.InDelta(t, 90, z.PowerW, 1e-6)
	assert.True(t, z.Extrapolated)
	assert.Equal(t, sel.YZRate*1.5, sel.YZRateScaled)
	require.Len(t, sel.Notices, 2)
	assert.Contains(t, sel.Notices[0], "outside [0, 80)")
	assert.Contains(t, sel.Notices[1], "extrapolated")
}

func TestSelectErrors(t *testing.T) {
	co := linearTarget(t, "Co", 1, 20, 40, 60)
	mn := linearTarget(t, "Mn", 2, 20, 40, 60)

	single, err := calibration.Parse(strings.NewReader("---\nelement: Ni\natomic_mass: 58.693\ndensity: 8.9\n...\nmass_i,mass_f,power,time,area\n1,2,30,10,1\n"), nil)
	require.NoError(t, err)

	flat, err := calibration.Parse(strings.NewReader("---\nelement: Fe\natomic_mass: 55.845\ndensity: 7.87\ntime: 10\narea: 1\n...\nmass_i,mass_f,power\n0,0.5,20\n0,0.5,40\n"), nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		req  Request
		is   error
		msg  string
	}{
		{"power at max", Request{X: co, Y: mn, Z: mn, Power: 80}, ErrPowerOutOfRange, ""},
		{"negative power", Request{X: co, Y: mn, Z: mn, Power: -1}, ErrPowerOutOfRange, ""},
		{"custom max power", Request{X: co, Y: mn, Z: mn, Power: 50, MaxPower: 50}, ErrPowerOutOfRange, ""},
		{"missing target", Request{X: co, Y: mn, Power: 30}, nil, "no target given for Z"},
		{"unfittable target", Request{X: co, Y: Candidate{Name: "Ni_one", Table: single}, Z: mn, Power: 30}, calibration.ErrInsufficientData, "Y target Ni_one"},
		{"flat target", Request{X: co, Y: mn, Z: Candidate{Name: "Fe_flat", Table: flat}, Power: 30}, nil, "does not depend on power"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := Select(tt.req)
			assert.Nil(t, sel)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}
