package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ID is an opaque source key. The feed publishes ids as numbers or strings.
type ID string

// UnmarshalJSON accepts a JSON number or string.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// String returns the raw key.
func (id ID) String() string { return string(id) }

type scalarKind uint8

const (
	kindNone scalarKind = iota
	kindNumber
	kindText
)

// Scalar holds a value the source publishes as either a number or a string
// (places, ranks, round labels). The zero value means "absent".
type Scalar struct {
	kind scalarKind
	num  float64
	text string
}

// Int builds a numeric scalar from an int.
func Int(n int) Scalar { return Scalar{kind: kindNumber, num: float64(n)} }

// Float builds a numeric scalar.
func Float(f float64) Scalar { return Scalar{kind: kindNumber, num: f} }

// Text builds a string scalar.
func Text(s string) Scalar { return Scalar{kind: kindText, text: s} }

// IsZero reports whether the value is absent.
func (s Scalar) IsZero() bool { return s.kind == kindNone }

// IsNumber reports whether the value was published as a number.
func (s Scalar) IsNumber() bool { return s.kind == kindNumber }

// Number returns the numeric value. Strings holding a number are parsed.
func (s Scalar) Number() (float64, bool) {
	switch s.kind {
	case kindNumber:
		return s.num, true
	case kindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(s.text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int returns the value truncated to an integer when it is numeric.
func (s Scalar) Int() (int, bool) {
	f, ok := s.Number()
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Truthy mirrors how the feed encodes flags: 1, "1", "true".
func (s Scalar) Truthy() bool {
	switch s.kind {
	case kindNumber:
		return s.num != 0
	case kindText:
		t := strings.ToLower(strings.TrimSpace(s.text))
		return t == "1" || t == "true"
	default:
		return false
	}
}

// String renders numbers without a trailing ".0" when integral.
func (s Scalar) String() string {
	switch s.kind {
	case kindNumber:
		return formatNumber(s.num)
	case kindText:
		return s.text
	default:
		return ""
	}
}

// Equal compares kind and value.
func (s Scalar) Equal(o Scalar) bool {
	return s.kind == o.kind && s.num == o.num && s.text == o.text
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalJSON writes null, a number or a string.
func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case kindNumber:
		return []byte(formatNumber(s.num)), nil
	case kindText:
		return json.Marshal(s.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, a number, a string or a boolean.
func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*s = Scalar{}
	case b[0] == '"':
		var t string
		if err := json.Unmarshal(b, &t); err != nil {
			return err
		}
		*s = Text(t)
	case bytes.Equal(b, []byte("true")):
		*s = Int(1)
	case bytes.Equal(b, []byte("false")):
		*s = Int(0)
	default:
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return err
		}
		*s = Float(f)
	}
	return nil
}
