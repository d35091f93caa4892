// Package export writes calibration tables, with their derived columns, to
// CSV and XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/xrdlab/sputtercal/pkg/calibration"
)

// maxSheetName is the sheet name length limit of Excel.
const maxSheetName = 31

// Sheet is a named table to export.
type Sheet struct {
	Name  string
	Table *calibration.Table
}

// Columns is the column layout shared by every exported table.
func Columns() []string {
	cols := []string{calibration.ColElement}
	for _, base := range calibration.RequiredColumns {
		cols = append(cols, calibration.CanonicalNames[base])
	}
	return append(cols, calibration.DerivedColumns...)
}

func record(r calibration.Row) []string {
	cols := Columns()
	rec := make([]string, len(cols))
	rec[0] = r.Element
	for i, c := range cols[1:] {
		v, _ := r.Value(c)
		rec[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return rec
}

// WriteCSV writes the rows of all sheets, in order, under one header row.
func WriteCSV(w io.Writer, sheets ...Sheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"target"}, Columns()...)); err != nil {
		return pkgerrors.Wrap(err, "failed to write CSV header")
	}
	rows := 0
	for _, s := range sheets {
		for _, r := range s.Table.Rows() {
			if err := cw.Write(append([]string{s.Name}, record(r)...)); err != nil {
				return pkgerrors.Wrapf(err, "failed to write CSV row for %s", s.Name)
			}
			rows++
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return pkgerrors.Wrap(err, "failed to write CSV")
	}

	logrus.WithFields(logrus.Fields{"tables": len(sheets), "rows": rows}).Debug("CSV export written")
	return nil
}

// headerPairs flattens a header into key/value rows.
func headerPairs(h calibration.Header) [][]any {
	pairs := [][]any{
		{"element", h.Element},
		{"atomic_mass", h.AtomicMass},
		{"density", h.Density},
	}
	if h.TableMotion != "" {
		pairs = append(pairs, []any{"table_motion", h.TableMotion})
	}
	if h.Date != "" {
		pairs = append(pairs, []any{"date", h.Date})
	}
	if h.Experimenter != "" {
		pairs = append(pairs, []any{"experimenter", h.Experimenter})
	}
	keys := make([]string, 0, len(h.Extra))
	for k := range h.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pairs = append(pairs, []any{k, fmt.Sprint(h.Extra[k])})
	}
	return pairs
}

// SheetName makes name usable as a sheet name, unique among used. Sheet
// names compare case-insensitively, so used is keyed by the lower-cased name.
func SheetName(name string, used map[string]bool) string {
	base := []rune(name)
	if len(base) == 0 {
		base = []rune("table")
	}
	for i, r := range base {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			base[i] = '_'
		}
	}
	candidate := truncate(base, maxSheetName)
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := []rune(fmt.Sprintf("~%d", n))
		candidate = truncate(base, maxSheetName-len(suffix)) + string(suffix)
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncate(r []rune, n int) string {
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

// WriteXLSX writes a workbook with one data sheet per table, followed by a
// sheet with the header metadata of every table.
func WriteXLSX(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return pkgerrors.New("nothing to export")
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logrus.Warnf("failed to close workbook: %v", err)
		}
	}()

	const metaSheet = "header"
	used := map[string]bool{metaSheet: true, "sheet1": true}
	cols := Columns()

	for i, s := range sheets {
		name := SheetName(s.Name, used)
		idx, err := f.NewSheet(name)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to create sheet %s", name)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}

		header := make([]any, len(cols))
		for j, c := range cols {
			header[j] = c
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return pkgerrors.Wrapf(err, "failed to write header of sheet %s", name)
		}

		for j, r := range s.Table.Rows() {
			row := make([]any, len(cols))
			row[0] = r.Element
			for k, c := range cols[1:] {
				row[k+1], _ = r.Value(c)
			}
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return pkgerrors.Wrapf(err, "failed to write row %d of sheet %s", j+1, name)
			}
		}
	}

	if _, err := f.NewSheet(metaSheet); err != nil {
		return pkgerrors.Wrap(err, "failed to create header sheet")
	}
	line := 1
	for _, s := range sheets {
		for _, pair := range append([][]any{{"target", s.Name}}, headerPairs(s.Table.Header())...) {
			cell, err := excelize.CoordinatesToCellName(1, line)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(metaSheet, cell, &pair); err != nil {
				return pkgerrors.Wrap(err, "failed to write header sheet")
			}
			line++
		}
		line++
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return pkgerrors.Wrap(err, "failed to remove default sheet")
	}
	if err := f.Write(w); err != nil {
		return pkgerrors.Wrap(err, "failed to write workbook")
	}

	logrus.WithFields(logrus.Fields{"tables": len(sheets)}).Debug("XLSX export written")
	return nil
}
