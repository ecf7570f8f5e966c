package dataprocessing

import (
	"sort"

	"ewscli/pkg/contracts/domain"
)

// connRatioEpsilon keeps the connectedness ratio finite for regions with
// no Low stratum
const connRatioEpsilon = 1e-6

// Safety score weights, very safe through very unsafe
var safetyWeights = [5]float64{5, 4, 3, 2, 1}

// SafetyScore is the weighted 1-5 perception score of one record. The
// percentages are used as given; missing if any is missing.
func SafetyScore(m domain.SafetyMetrics) domain.Value {
	parts := [5]domain.Value{m.VerySafe, m.Safe, m.Neither, m.Unsafe, m.VeryUnsafe}
	sum := 0.0
	for i, p := range parts {
		if p.IsMissing() {
			return domain.Missing()
		}
		sum += safetyWeights[i] * p.Float
	}
	return domain.Of(sum / 100)
}

type regionGroup struct {
	scoreSum   float64
	scoreCount int
	total      int
	high       int
	low        int
}

// Aggregate computes one composite index row per region. The climate index
// is normalized by the largest connectedness ratio in the result, so all
// ratios are computed before any index.
func Aggregate(records []domain.TidyRecord) []domain.CompositeIndexRow {
	if len(records) == 0 {
		return []domain.CompositeIndexRow{}
	}

	groups := make(map[string]*regionGroup)
	for _, r := range records {
		g, ok := groups[r.Region]
		if !ok {
			g = &regionGroup{}
			groups[r.Region] = g
		}
		g.total++
		if s := SafetyScore(r.Metrics); s.Valid {
			g.scoreSum += s.Float
			g.scoreCount++
		}
		switch r.Stratum {
		case domain.ConnectednessHigh:
			g.high++
		case domain.ConnectednessLow:
			g.low++
		}
	}

	regions := make([]string, 0, len(groups))
	for name := range groups {
		regions = append(regions, name)
	}
	sort.Strings(regions)

	rows := make([]domain.CompositeIndexRow, 0, len(regions))
	maxRatio := 0.0
	for _, name := range regions {
		g := groups[name]
		row := domain.CompositeIndexRow{
			Region:        name,
			HighConnShare: float64(g.high) / float64(g.total),
			LowConnShare:  float64(g.low) / float64(g.total),
		}
		if g.scoreCount > 0 {
			row.AvgSafetyScore = domain.Of(g.scoreSum / float64(g.scoreCount))
		}
		row.ConnRatio = row.HighConnShare / (row.LowConnShare + connRatioEpsilon)
		if row.ConnRatio > maxRatio {
			maxRatio = row.ConnRatio
		}
		rows = append(rows, row)
	}

	for i := range rows {
		rows[i].ClimateIndex = climateIndex(rows[i].AvgSafetyScore, rows[i].ConnRatio, maxRatio)
	}
	return rows
}

func climateIndex(avg domain.Value, ratio, maxRatio float64) domain.Value {
	if avg.IsMissing() || maxRatio == 0 {
		return domain.Missing()
	}
	return domain.Of(0.5*avg.Float + 0.5*(ratio/maxRatio))
}
