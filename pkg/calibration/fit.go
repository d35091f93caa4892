package calibration

import "math"

// Fit is a least-squares line of rate (mols/s/cm^2) against power (W).
type Fit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RValue    float64 `json:"rValue"`
	// StdErr is the standard error of the slope.
	StdErr float64 `json:"stdErr"`
	N      int     `json:"n"`
	// MinPower and MaxPower bound the calibrated range.
	MinPower float64 `json:"minPower"`
	MaxPower float64 `json:"maxPower"`
}

// Fit fits the deposition rate per area against the applied power.
func (t *Table) Fit() (*Fit, error) {
	x, _ := t.Column(ColPower)
	y, _ := t.Column(ColRateMolsPerSecPerArea)
	return linregress(x, y)
}

// RateAt evaluates the line at power.
func (f *Fit) RateAt(power float64) float64 {
	return f.Slope*power + f.Intercept
}

// PowerFor returns the power that gives rate on the line.
func (f *Fit) PowerFor(rate float64) float64 {
	return (rate - f.Intercept) / f.Slope
}

// Extrapolates reports whether power lies outside the calibrated range.
func (f *Fit) Extrapolates(power float64) bool {
	return power < f.MinPower || power > f.MaxPower
}

func linregress(x, y []float64) (*Fit, error) {
	n := len(x)
	if n < 2 || n != len(y) {
		return nil, ErrInsufficientData
	}

	var xMean, yMean float64
	minX, maxX := x[0], x[0]
	for i := range x {
		xMean += x[i]
		yMean += y[i]
		minX = math.Min(minX, x[i])
		maxX = math.Max(maxX, x[i])
	}
	xMean /= float64(n)
	yMean /= float64(n)

	var ssxm, ssym, ssxym float64
	for i := range x {
		dx, dy := x[i]-xMean, y[i]-yMean
		ssxm += dx * dx
		ssym += dy * dy
		ssxym += dx * dy
	}
	if ssxm == 0 {
		return nil, ErrInsufficientData
	}

	var r float64
	if ssym != 0 {
		r = ssxym / math.Sqrt(ssxm*ssym)
		r = math.Max(-1, math.Min(1, r))
	}

	slope := ssxym / ssxm
	f := &Fit{
		Slope:     slope,
		Intercept: yMean - slope*xMean,
		RValue:    r,
		N:         n,
		MinPower:  minX,
		MaxPower:  maxX,
	}
	if n > 2 {
		f.StdErr = math.Sqrt((1 - r*r) * ssym / ssxm / float64(n-2))
	}
	return f, nil
}
