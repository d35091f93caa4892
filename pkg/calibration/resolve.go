package calibration

import "fmt"

// Source tells where the values of a required column come from.
type Source int

const (
	Missing Source = iota
	FromColumn
	FromHeaderScalar
)

func (s Source) String() string {
	switch s {
	case FromColumn:
		return "column"
	case FromHeaderScalar:
		return "header"
	default:
		return "missing"
	}
}

// MarshalText renders the source by name in JSON and YAML.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Source) UnmarshalText(b []byte) error {
	switch string(b) {
	case "column":
		*s = FromColumn
	case "header":
		*s = FromHeaderScalar
	case "missing":
		*s = Missing
	default:
		return fmt.Errorf("unknown column source %q", b)
	}
	return nil
}

// Resolution is the outcome of resolving one required column.
type Resolution struct {
	Source Source `json:"source"`
	// Name is the column name as found in the file, or the header key.
	Name string `json:"name,omitempty"`
	// Index is the position in the CSV header row, for FromColumn.
	Index int `json:"-"`
	// Scalar is the broadcast value, for FromHeaderScalar.
	Scalar float64 `json:"scalar,omitempty"`
}

// resolveColumn resolves a required column against the CSV header row and,
// for columns that allow it, the header scalars.
func resolveColumn(base string, names []string, hdr Header) (Resolution, error) {
	for i, n := range names {
		if BaseName(n) == base {
			return Resolution{Source: FromColumn, Name: n, Index: i}, nil
		}
	}

	if !allowsHeaderFallback(base) {
		return Resolution{Source: Missing}, nil
	}
	key, v, ok := hdr.lookup(base)
	if !ok {
		return Resolution{Source: Missing}, nil
	}
	f, err := headerScalar(v)
	if err != nil {
		return Resolution{}, newFormatError(fmt.Sprintf("header key %q is not a number", key), err)
	}
	return Resolution{Source: FromHeaderScalar, Name: key, Index: -1, Scalar: f}, nil
}
