package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is a numeric cell that may be missing. Suppressed ("S") and
// not-applicable ("N/A") statistics are both represented as missing.
type Value struct {
	Float float64
	Valid bool
}

// Missing returns the missing marker
func Missing() Value {
	return Value{}
}

// Of wraps a known number. NaN and infinities are treated as missing;
// JSON cannot carry them.
func Of(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{Float: f, Valid: true}
}

// IsMissing reports whether the value carries no number
func (v Value) IsMissing() bool {
	return !v.Valid
}

// Add returns v+o; missing if either side is missing
func (v Value) Add(o Value) Value {
	if !v.Valid || !o.Valid {
		return Missing()
	}
	return Of(v.Float + o.Float)
}

// OrNaN returns the number, or NaN when missing
func (v Value) OrNaN() float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float
}

// String formats the value for CSV output; missing becomes an empty cell
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float, 'f', -1, 64)
}

// MarshalJSON encodes missing as null
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float)
}

// UnmarshalJSON accepts a number or null
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Missing()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Of(f)
	return nil
}
