package calibration

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const maxLineLength = 1 << 20

// Options tune how calibration files are read. A nil *Options uses the
// default markers.
type Options struct {
	BeginMarker string
	EndMarker   string
}

func (o *Options) markers() (string, string) {
	begin, end := DefaultBeginMarker, DefaultEndMarker
	if o == nil {
		return begin, end
	}
	if o.BeginMarker != "" {
		begin = o.BeginMarker
	}
	if o.EndMarker != "" {
		end = o.EndMarker
	}
	return begin, end
}

// Load reads the calibration file at path.
func Load(path string) (*Table, error) {
	return LoadWithOptions(path, nil)
}

// LoadWithOptions reads the calibration file at path using opts.
func LoadWithOptions(path string, opts *Options) (*Table, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open file %s", path)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", path)
		}
	}(fp)

	t, err := Parse(fp, opts)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
			return nil, fe
		}
		return nil, pkgerrors.Wrapf(err, "failed to read file %s", path)
	}
	t.path = path

	fields := logrus.Fields{
		"path":    path,
		"element": t.header.Element,
		"rows":    len(t.rows),
	}
	if bad := t.NonFiniteRows(); len(bad) > 0 {
		logrus.WithFields(fields).Warnf("rows %v have non-finite derived values; check area and time", bad)
	}
	logrus.WithFields(fields).Debug("calibration table loaded")

	return t, nil
}

// Parse reads a calibration table from r. The returned table has no path.
func Parse(r io.Reader, opts *Options) (*Table, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	begin, end := opts.markers()
	hdr, consumed, err := extractHeader(lines, begin, end)
	if err != nil {
		return nil, err
	}

	t, err := readBody(lines[consumed:], hdr)
	if err != nil {
		return nil, err
	}
	t.begin, t.end = begin, end

	return t, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read lines")
	}
	return lines, nil
}

// readBody parses the CSV section, broadcasts the element and header
// fallbacks, validates the required columns and computes derived values.
func readBody(lines []string, hdr Header) (*Table, error) {
	cr := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, newFormatError("malformed table", err)
	}
	if len(records) == 0 {
		return nil, newFormatError("column header row not found", nil)
	}

	names := make([]string, len(records[0]))
	for i, n := range records[0] {
		names[i] = strings.TrimSpace(n)
	}

	t := &Table{
		header:      hdr,
		names:       names,
		resolutions: make(map[string]Resolution, len(RequiredColumns)),
	}

	var missing []string
	for _, base := range RequiredColumns {
		res, err := resolveColumn(base, names, hdr)
		if err != nil {
			return nil, err
		}
		if res.Source == Missing {
			missing = append(missing, CanonicalNames[base])
			continue
		}
		t.resolutions[base] = res
	}
	if len(missing) > 0 {
		return nil, newFormatError("missing columns: "+strings.Join(missing, ", "), nil)
	}

	for i, n := range names {
		base := BaseName(n)
		if base == ColElement {
			continue
		}
		if res, ok := t.resolutions[base]; ok && res.Index == i {
			continue
		}
		t.extra = append(t.extra, i)
	}

	t.rows = make([]Row, 0, len(records)-1)
	for ri, rec := range records[1:] {
		row := Row{Element: hdr.Element}
		for _, base := range RequiredColumns {
			res := t.resolutions[base]
			if res.Source == FromHeaderScalar {
				row.set(base, res.Scalar)
				continue
			}
			raw := strings.TrimSpace(rec[res.Index])
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, newFormatError(fmt.Sprintf("row %d: column %q: invalid number %q", ri+1, res.Name, raw), nil)
			}
			row.set(base, v)
		}
		for _, i := range t.extra {
			row.Extra = append(row.Extra, strings.TrimSpace(rec[i]))
		}
		derive(hdr, &row)
		t.rows = append(t.rows, row)
	}

	return t, nil
}
