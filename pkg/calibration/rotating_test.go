package calibration

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMotion(motion string) string {
	return strings.Replace(geFile, "...", "table_motion : "+motion+"\n...", 1)
}

func TestEstimateRotatingMask(t *testing.T) {
	tests := []struct {
		name    string
		motion  string
		notices []string
	}{
		{"stationary", "stationary", nil},
		{"stationary upper case", "STATIONARY", nil},
		{"rotating", "rotating", []string{NoticeStationaryOnly}},
		{"unlisted value", "spinning", []string{NoticeStationaryOnly}},
		{"free text", "rotating table", []string{NoticeStationaryOnly}},
		{"declared empty", `""`, []string{NoticeStationaryOnly}},
		{"declared without value", "", []string{NoticeStationaryOnly}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := parseString(t, withMotion(tt.motion))
			est, err := tbl.EstimateRotatingMask()
			require.NoError(t, err)
			assert.Equal(t, tt.notices, est.Notices)

			rows := tbl.Rows()
			require.Len(t, est.Rows, len(rows))
			for i, r := range rows {
				assert.Equal(t, r.RateMolsPerSec/30, est.Rows[i].RateMolsPerSec)
				assert.Equal(t, r.RateMolsPerSecPerArea/30, est.Rows[i].RateMolsPerSecPerArea)
				assert.Equal(t, r.RateNmPerSec/30, est.Rows[i].RateNmPerSec)
			}
		})
	}
}

func TestDeclaredEmptyMotionRoundTrip(t *testing.T) {
	tbl := parseString(t, withMotion(`""`))
	require.True(t, tbl.Header().HasMotion())

	var buf bytes.Buffer
	require.NoError(t, WriteRaw(&buf, tbl))
	again, err := Parse(&buf, nil)
	require.NoError(t, err)
	assert.True(t, again.Header().HasMotion())
	assert.Equal(t, tbl.Header(), again.Header())
}

func TestEstimateRotatingMaskWithoutMotion(t *testing.T) {
	tbl := parseString(t, geFile)

	est, err := tbl.EstimateRotatingMask()
	assert.Nil(t, est)
	require.Error(t, err)
	assert.True(t, IsWarning(err))

	var w *MissingCalibrationWarning
	require.True(t, errors.As(err, &w))
	assert.Equal(t, "table_motion", w.Field)
	assert.Equal(t, TableMotionGuidance, w.Guidance)

	var fe *FormatError
	assert.False(t, errors.As(err, &fe))
}
