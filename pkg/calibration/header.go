package calibration

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBeginMarker = "---"
	DefaultEndMarker   = "..."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their header key.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// extractHeader finds the first begin/end marker pair and decodes the lines
// between them. It returns the number of lines consumed up to and including
// the end marker.
func extractHeader(lines []string, begin, end string) (Header, int, error) {
	start := -1
	for i, line := range lines {
		if start < 0 {
			if line == begin {
				start = i
			}
			continue
		}
		if line != end {
			continue
		}

		block := strings.ReplaceAll(strings.Join(lines[start+1:i], "\n"), "\t", " ")
		hdr, err := decodeHeader(block)
		if err != nil {
			return Header{}, 0, err
		}
		return hdr, i + 1, nil
	}

	if start < 0 {
		return Header{}, 0, newFormatError(fmt.Sprintf("header start marker %q not found", begin), nil)
	}
	return Header{}, 0, newFormatError(fmt.Sprintf("header end marker %q not found", end), nil)
}

func decodeHeader(block string) (Header, error) {
	var hdr Header
	if strings.TrimSpace(block) == "" {
		return Header{}, newFormatError("header block is empty", nil)
	}
	if err := yaml.Unmarshal([]byte(block), &hdr); err != nil {
		return Header{}, newFormatError("failed to parse header block", err)
	}
	// A declared but empty table_motion still counts as declared.
	var keys map[string]any
	if err := yaml.Unmarshal([]byte(block), &keys); err == nil {
		_, hdr.motionDeclared = keys[keyTableMotion]
	}
	if err := validateHeader(&hdr); err != nil {
		return Header{}, err
	}
	return hdr, nil
}

func validateHeader(hdr *Header) error {
	err := validate.Struct(hdr)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return newFormatError("invalid header", err)
	}
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return newFormatError("invalid header: "+strings.Join(msgs, "; "), nil)
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// headerScalar converts a header value to a number.
func headerScalar(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}
