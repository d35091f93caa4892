package calibration

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinregress(t *testing.T) {
	t.Run("exact line", func(t *testing.T) {
		fit, err := linregress([]float64{10, 20, 30, 40}, []float64{3, 5, 7, 9})
		require.NoError(t, err)
		assert.InDelta(t, 0.2, fit.Slope, 1e-12)
		assert.InDelta(t, 1.0, fit.Intercept, 1e-12)
		assert.InDelta(t, 1.0, fit.RValue, 1e-12)
		assert.InDelta(t, 0.0, fit.StdErr, 1e-6)
		assert.Equal(t, 4, fit.N)
		assert.Equal(t, 10.0, fit.MinPower)
		assert.Equal(t, 40.0, fit.MaxPower)
	})

	t.Run("noisy line", func(t *testing.T) {
		// Reference values from scipy.stats.linregress.
		fit, err := linregress([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 5, 4, 5})
		require.NoError(t, err)
		assert.InDelta(t, 0.6, fit.Slope, 1e-12)
		assert.InDelta(t, 2.2, fit.Intercept, 1e-12)
		assert.InDelta(t, 0.7745966692414834, fit.RValue, 1e-12)
		assert.InDelta(t, 0.282842712474619, fit.StdErr, 1e-12)
	})

	t.Run("two points", func(t *testing.T) {
		fit, err := linregress([]float64{0, 2}, []float64{1, 5})
		require.NoError(t, err)
		assert.Equal(t, 2.0, fit.Slope)
		assert.Equal(t, 0.0, fit.StdErr)
	})

	t.Run("flat rate", func(t *testing.T) {
		fit, err := linregress([]float64{1, 2, 3}, []float64{4, 4, 4})
		require.NoError(t, err)
		assert.Equal(t, 0.0, fit.Slope)
		assert.Equal(t, 0.0, fit.RValue)
	})

	for _, tt := range []struct {
		name string
		x, y []float64
	}{
		{"empty", nil, nil},
		{"single point", []float64{1}, []float64{1}},
		{"constant power", []float64{50, 50, 50}, []float64{1, 2, 3}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := linregress(tt.x, tt.y)
			assert.ErrorIs(t, err, ErrInsufficientData)
		})
	}
}

func TestTableFit(t *testing.T) {
	var b strings.Builder
	b.WriteString("---\nelement: Co\natomic_mass: 58.933\ndensity: 8.9\narea: 2\n...\n")
	b.WriteString("mass_i, mass_f, power, time\n")
	// Mass gain proportional to power gives a line through the origin.
	for _, p := range []float64{20, 40, 60} {
		fmt.Fprintf(&b, "10, %g, %g, 100\n", 10+p/100, p)
	}
	tbl := parseString(t, b.String())

	fit, err := tbl.Fit()
	require.NoError(t, err)

	rates := mustColumn(t, tbl, ColRateMolsPerSecPerArea)
	for i, p := range []float64{20, 40, 60} {
		assert.InEpsilon(t, rates[i], fit.RateAt(p), 1e-6)
		assert.InEpsilon(t, p, fit.PowerFor(rates[i]), 1e-6)
	}
	assert.InDelta(t, 0, fit.Intercept, 1e-15)
	assert.False(t, fit.Extrapolates(50))
	assert.True(t, fit.Extrapolates(80))
	assert.True(t, fit.Extrapolates(10))
	assert.False(t, math.IsNaN(fit.StdErr))
}

func TestTableFitSingleRow(t *testing.T) {
	_, err := parseString(t, geFile).Fit()
	assert.ErrorIs(t, err, ErrInsufficientData)
}
