package dataprocessing

import (
	"strconv"
	"strings"

	"ewscli/pkg/contracts/domain"
)

// sentinels are suppression and not-applicable markers used in CDE exports
var sentinels = map[string]struct{}{
	"N/A": {},
	"S":   {},
	"":    {},
}

// Coerce converts a raw cell into a number or the missing marker.
// It never fails: anything that does not parse is missing.
func Coerce(cell string) domain.Value {
	s := strings.TrimSpace(cell)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if _, ok := sentinels[s]; ok {
		return domain.Missing()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Missing()
	}
	return domain.Of(f)
}

// CoerceCell is Coerce for cells that may be absent altogether
func CoerceCell(cell *string) domain.Value {
	if cell == nil {
		return domain.Missing()
	}
	return Coerce(*cell)
}

// coerceMetrics maps five positional tokens onto the safety metrics
func coerceMetrics(tokens [5]string) domain.SafetyMetrics {
	return domain.SafetyMetrics{
		VerySafe:   Coerce(tokens[0]),
		Safe:       Coerce(tokens[1]),
		Neither:    Coerce(tokens[2]),
		Unsafe:     Coerce(tokens[3]),
		VeryUnsafe: Coerce(tokens[4]),
	}
}
