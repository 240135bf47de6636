package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CoerceFloat converts a loosely typed value to a finite, non-negative float64.
// Strings may use a decimal comma ("7,5"). Anything unparsable, negative, NaN
// or infinite becomes 0.
func CoerceFloat(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", ".")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	return NonNegative(f)
}

// NonNegative clamps NaN, ±Inf and negative values to 0.
func NonNegative(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// FlexFloat decodes from a JSON number, a numeric string or null. Values that
// cannot be read as a number decode to 0 instead of failing the whole document.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(CoerceFloat(raw))
	return nil
}
