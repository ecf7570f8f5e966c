package predictor

import (
	"fmt"
	"sort"

	apierrors "ewscli/internal/errors"
	"ewscli/pkg/contracts/domain"
)

// BuildFeatureRow assembles one model input row in exactly the given
// order. Absent inputs take the feature default and every value is clamped
// to its slider range. Inputs naming a feature outside order are rejected.
func BuildFeatureRow(inputs map[string]float64, order []string, settings Settings) (domain.FeatureRow, error) {
	known := make(map[string]bool, len(order))
	for _, name := range order {
		known[name] = true
	}

	var unknown []string
	for name := range inputs {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		fields := make([]apierrors.ValidationError, len(unknown))
		for i, name := range unknown {
			fields[i] = apierrors.ValidationError{Field: name, Message: "unknown feature"}
		}
		return domain.FeatureRow{}, apierrors.NewValidationErrors(fields)
	}

	row := domain.FeatureRow{
		Names:  append([]string(nil), order...),
		Values: make([]float64, len(order)),
	}
	for i, name := range order {
		s, ok := settings[name]
		if !ok {
			return domain.FeatureRow{}, fmt.Errorf("feature %q has no slider setting", name)
		}
		v, ok := inputs[name]
		if !ok {
			v = s.Default
		}
		row.Values[i] = s.Clamp(v)
	}
	return row, nil
}

// Defaults returns the default input of every feature in order
func Defaults(order []string, settings Settings) map[string]float64 {
	out := make(map[string]float64, len(order))
	for _, name := range order {
		if s, ok := settings[name]; ok {
			out[name] = s.Default
		}
	}
	return out
}
