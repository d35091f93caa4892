package calibration

const (
	mgToG    = 1e-3
	cmToNm   = 1e7
	minToSec = 60
)

// derive computes the derived quantities of r in dependency order. Zero
// areas or times are not guarded and yield Inf or NaN.
func derive(hdr Header, r *Row) {
	d := &r.Derived
	d.MassDiff = r.MassF - r.MassI
	d.TimeSec = r.Time * minToSec
	d.Mols = (d.MassDiff / hdr.AtomicMass) * mgToG
	d.MolsPerArea = d.Mols / r.Area
	d.RateMolsPerSec = d.Mols / d.TimeSec
	d.RateMolsPerSecPerArea = d.RateMolsPerSec / r.Area
	d.ThicknessNm = (d.MassDiff * mgToG / hdr.Density / r.Area) * cmToNm
	d.RateNmPerSec = d.ThicknessNm / d.TimeSec
}
