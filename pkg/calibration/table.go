package calibration

import "math"

// Table is a loaded calibration run. It is never modified after Load or
// Parse returns; accessors hand out copies.
type Table struct {
	path        string
	begin, end  string
	header      Header
	names       []string
	resolutions map[string]Resolution
	// extra are the CSV positions of columns outside the required set.
	extra []int
	rows  []Row
}

// Path returns the file the table was loaded from, if any.
func (t *Table) Path() string {
	return t.path
}

// Header returns a copy of the metadata block.
func (t *Table) Header() Header {
	return t.header.clone()
}

// Element returns the target element.
func (t *Table) Element() string {
	return t.header.Element
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns a copy of the rows in file order.
func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		rows[i] = r
		if r.Extra != nil {
			rows[i].Extra = append([]string(nil), r.Extra...)
		}
	}
	return rows
}

// Resolution reports how a required column was resolved.
func (t *Table) Resolution(base string) Resolution {
	return t.resolutions[base]
}

// Resolutions returns the resolution of every required column.
func (t *Table) Resolutions() map[string]Resolution {
	m := make(map[string]Resolution, len(t.resolutions))
	for k, v := range t.resolutions {
		m[k] = v
	}
	return m
}

// ExtraColumns returns the names of the columns outside the required set,
// matching the order of Row.Extra.
func (t *Table) ExtraColumns() []string {
	names := make([]string, 0, len(t.extra))
	for _, i := range t.extra {
		names = append(names, t.names[i])
	}
	return names
}

// ColumnNames lists the numeric columns of the table: the measured columns
// in file order, then the ones broadcast from the header, then the derived
// ones.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(RequiredColumns)+len(DerivedColumns))
	for _, n := range t.names {
		if res, ok := t.resolutions[BaseName(n)]; ok && res.Source == FromColumn && res.Name == n {
			names = append(names, n)
		}
	}
	for _, base := range RequiredColumns {
		if t.resolutions[base].Source == FromHeaderScalar {
			names = append(names, CanonicalNames[base])
		}
	}
	return append(names, DerivedColumns...)
}

// Column returns the values of a numeric column, by base name for the
// measured columns or by full name for the derived ones.
func (t *Table) Column(name string) ([]float64, bool) {
	if _, ok := (Row{}).Value(name); !ok {
		return nil, false
	}
	values := make([]float64, len(t.rows))
	for i, r := range t.rows {
		values[i], _ = r.Value(name)
	}
	return values, true
}

// NonFiniteRows returns the indexes of rows with an infinite or NaN derived
// value, which happens when area or time is zero.
func (t *Table) NonFiniteRows() []int {
	var bad []int
	for i, r := range t.rows {
		d := r.Derived
		for _, v := range []float64{
			d.MassDiff, d.TimeSec, d.Mols, d.MolsPerArea,
			d.RateMolsPerSec, d.RateMolsPerSecPerArea, d.ThicknessNm, d.RateNmPerSec,
		} {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				bad = append(bad, i)
				break
			}
		}
	}
	return bad
}
