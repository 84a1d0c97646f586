package dto

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"apex-hub/pkg/utils"
)

// Placeholder is rendered wherever a payload value is absent.
const Placeholder = "n/a"

var jsonNull = []byte("null")

// Number is a numeric payload value that tolerates absence, null and
// string-encoded numbers. Anything it cannot read leaves Valid false.
type Number struct {
	Value float64
	Valid bool
}

func NewNumber(v float64) Number {
	return Number{Value: v, Valid: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return nil
	}

	var v float64
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		v = parsed
	default:
		if err := json.Unmarshal(data, &v); err != nil {
			return nil
		}
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*n = NewNumber(v)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return json.Marshal(n.Value)
}

// Float returns the value, or 0 when absent.
func (n Number) Float() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// Ptr returns nil when absent, for nullable columns.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	return utils.ToPointer(n.Value)
}

func (n Number) String() string {
	if !n.Valid {
		return Placeholder
	}
	return utils.FormatNumber(n.Value)
}

// Text is a textual payload value. Numbers and booleans are kept in their
// literal JSON form; null and objects read as empty.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*t = Text(s)
		}
	case '{', '[':
	default:
		*t = Text(data)
	}
	return nil
}

func (t Text) String() string {
	return strings.TrimSpace(string(t))
}

// OrPlaceholder returns the text, or Placeholder when empty.
func (t Text) OrPlaceholder() string {
	if s := t.String(); s != "" {
		return s
	}
	return Placeholder
}

// Flag is a boolean payload value. It also accepts "true"/"false" strings
// and numbers, where any non-zero number is true.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = false
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return nil
	}

	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err == nil {
			*f = Flag(b)
		}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err == nil {
			*f = Flag(b)
		}
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err == nil {
			*f = v != 0
		}
	}
	return nil
}

func (f Flag) Bool() bool {
	return bool(f)
}
