package calibration

import (
	"errors"
	"fmt"
)

// ExpectedFormat describes the calibration file layout. It is meant to be
// shown to the user verbatim when a file cannot be loaded.
const ExpectedFormat = `File format incorrect! Check that the file starts with a header block,
followed by an unlabeled CSV header row and the data rows:
---
element      : Ge
atomic_mass  : 72.630 # g/mol
density      : 5.323  # g/cm^3
table_motion : stationary
date         : 2017-Oct-31
experimenter : David Kalliecharan
...
mass_i (mg), mass_f (mg), power (W), time (min), area (cm^2)
11.534, 12.432, 50, 500, 1
11.638, 12.589, 40, 400, 1
11.456, 12.359, 30, 300, 1

power (W), time (min) and area (cm^2) may instead be given once in the header.
`

// TableMotionGuidance tells the user how to declare the table motion.
const TableMotionGuidance = `Calibration not specified in header!
---
table_motion : stationary|rotating
...
`

// NoticeStationaryOnly is the advisory attached to rotating-mask estimates
// computed from non-stationary measurements.
const NoticeStationaryOnly = "only valid for stationary measurements"

// ErrInsufficientData is returned when a table cannot be fitted.
var ErrInsufficientData = errors.New("not enough distinct calibration points")

// FormatError is returned when a calibration file is malformed or misses a
// required column. It is the only error kind produced by validation.
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func newFormatError(reason string, err error) *FormatError {
	return &FormatError{Reason: reason, Err: err}
}

func (e *FormatError) Error() string {
	msg := "invalid calibration file"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Expected returns the description of the expected file layout.
func (e *FormatError) Expected() string {
	return ExpectedFormat
}

// MissingCalibrationWarning is a non-fatal condition: an operation needed
// optional header metadata that the file does not provide.
type MissingCalibrationWarning struct {
	Path     string
	Field    string
	Guidance string
}

func (w *MissingCalibrationWarning) Error() string {
	if w.Path == "" {
		return fmt.Sprintf("%s not specified in header", w.Field)
	}
	return fmt.Sprintf("%s not specified in header of %s", w.Field, w.Path)
}

// IsWarning reports whether err is, or wraps, a MissingCalibrationWarning.
func IsWarning(err error) bool {
	var w *MissingCalibrationWarning
	return errors.As(err, &w)
}
