package predictor

import (
	"math"
	"math/rand/v2"
)

// Randomize draws a uniform value for each feature within its slider
// range. Integer features are inclusive of both bounds; others are rounded
// to 4 decimal places. Features without a setting are skipped.
func Randomize(features []string, settings Settings, rng *rand.Rand) map[string]float64 {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	out := make(map[string]float64, len(features))
	for _, name := range features {
		s, ok := settings[name]
		if !ok {
			continue
		}
		if s.Integer {
			lo, hi := int(math.Ceil(s.Min)), int(math.Floor(s.Max))
			if hi < lo {
				out[name] = float64(lo)
				continue
			}
			out[name] = float64(lo + rng.IntN(hi-lo+1))
			continue
		}
		v := s.Min + rng.Float64()*(s.Max-s.Min)
		out[name] = math.Round(v*1e4) / 1e4
	}
	return out
}
