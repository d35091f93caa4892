// Package calibration models sputter-target calibration runs. A calibration
// file holds a YAML header block describing the target followed by a CSV
// table of weigh-disc measurements. It contains:
//
//   - Header: the target metadata (element, atomic mass, density, motion)
//   - Row: one measured weigh disc, with its derived quantities
//   - Table: a loaded, validated and immutable calibration run
//
// Tables are built once by Load or Parse. Any malformed header or
// unresolvable column fails with a *FormatError and no table is returned.
package calibration
