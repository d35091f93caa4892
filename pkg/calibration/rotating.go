package calibration

// RotatingMaskRatio is the exposure ratio between a stationary weigh disc
// and one on the rotating table behind the mask.
const RotatingMaskRatio = 30

// RateEstimate holds the rate columns of one row.
type RateEstimate struct {
	RateMolsPerSec        float64 `json:"rateMolsPerSec"`
	RateMolsPerSecPerArea float64 `json:"rateMolsPerSecPerCm2"`
	RateNmPerSec          float64 `json:"rateNmPerSec"`
}

// RotatingEstimate is the rotating-table rate estimate of a table.
type RotatingEstimate struct {
	Rows []RateEstimate `json:"rows"`
	// Notices are advisories that do not invalidate the estimate.
	Notices []string `json:"notices,omitempty"`
}

// EstimateRotatingMask scales the measured rates down to what a rotating
// table would see. The header must declare table_motion, otherwise a
// *MissingCalibrationWarning is returned. Non-stationary measurements still
// get an estimate, with a notice.
func (t *Table) EstimateRotatingMask() (*RotatingEstimate, error) {
	if !t.header.HasMotion() {
		return nil, &MissingCalibrationWarning{
			Path:     t.path,
			Field:    "table_motion",
			Guidance: TableMotionGuidance,
		}
	}

	est := &RotatingEstimate{Rows: make([]RateEstimate, len(t.rows))}
	if t.header.Motion() != MotionStationary {
		est.Notices = append(est.Notices, NoticeStationaryOnly)
	}
	for i, r := range t.rows {
		est.Rows[i] = RateEstimate{
			RateMolsPerSec:        r.RateMolsPerSec / RotatingMaskRatio,
			RateMolsPerSecPerArea: r.RateMolsPerSecPerArea / RotatingMaskRatio,
			RateNmPerSec:          r.RateNmPerSec / RotatingMaskRatio,
		}
	}
	return est, nil
}
