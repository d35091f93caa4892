package calibration

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"

	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// WriteRaw writes t back in the calibration file format: the header block,
// then the columns that came from the file with their original names. Header
// fallbacks stay in the header. Derived columns are not written.
func WriteRaw(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)

	hdr, err := yaml.Marshal(t.header)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to encode header")
	}
	// omitempty drops a declared but empty table_motion.
	if t.header.motionDeclared && t.header.TableMotion == "" {
		hdr = append(hdr, keyTableMotion+": \"\"\n"...)
	}
	if _, err := bw.WriteString(t.begin + "\n"); err != nil {
		return err
	}
	if _, err := bw.Write(hdr); err != nil {
		return err
	}
	if _, err := bw.WriteString(t.end + "\n"); err != nil {
		return err
	}

	type cell struct {
		base  string
		extra int
	}
	var (
		names []string
		cells []cell
	)
	extraPos := make(map[int]int, len(t.extra))
	for j, i := range t.extra {
		extraPos[i] = j
	}
	for i, n := range t.names {
		if j, ok := extraPos[i]; ok {
			names = append(names, n)
			cells = append(cells, cell{extra: j})
			continue
		}
		base := BaseName(n)
		if res, ok := t.resolutions[base]; ok && res.Source == FromColumn && res.Index == i {
			names = append(names, n)
			cells = append(cells, cell{base: base})
		}
	}

	cw := csv.NewWriter(bw)
	if err := cw.Write(names); err != nil {
		return pkgerrors.Wrap(err, "failed to write column header row")
	}
	record := make([]string, len(cells))
	for _, r := range t.rows {
		for k, c := range cells {
			if c.base == "" {
				record[k] = r.Extra[c.extra]
				continue
			}
			v, _ := r.Value(c.base)
			record[k] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return pkgerrors.Wrap(err, "failed to write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return pkgerrors.Wrap(err, "failed to write table")
	}

	return bw.Flush()
}
