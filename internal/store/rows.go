package store

import (
	"database/sql"

	"ewscli/pkg/contracts/domain"
)

type tidyRow struct {
	RunID          string          `db:"run_id"`
	Seq            int             `db:"seq"`
	Region         string          `db:"region"`
	Geography      string          `db:"geography"`
	RegionType     string          `db:"region_type"`
	Stratum        string          `db:"stratum"`
	VerySafe       sql.NullFloat64 `db:"very_safe_pct"`
	Safe           sql.NullFloat64 `db:"safe_pct"`
	Neither        sql.NullFloat64 `db:"neither_pct"`
	Unsafe         sql.NullFloat64 `db:"unsafe_pct"`
	VeryUnsafe     sql.NullFloat64 `db:"very_unsafe_pct"`
	SafetyPositive sql.NullFloat64 `db:"safety_positive"`
	Years          string          `db:"years"`
	LevelFilter    string          `db:"level_filter"`
}

type compositeRow struct {
	RunID          string          `db:"run_id"`
	Region         string          `db:"region"`
	AvgSafetyScore sql.NullFloat64 `db:"avg_safety_score"`
	HighConnShare  float64         `db:"high_conn_share"`
	LowConnShare   float64         `db:"low_conn_share"`
	ConnRatio      float64         `db:"conn_ratio"`
	ClimateIndex   sql.NullFloat64 `db:"climate_index"`
}

func nullFloat(v domain.Value) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.Float, Valid: v.Valid}
}

func value(n sql.NullFloat64) domain.Value {
	if !n.Valid {
		return domain.Missing()
	}
	return domain.Of(n.Float64)
}

func tidyRowFrom(runID string, seq int, r domain.TidyRecord) tidyRow {
	return tidyRow{
		RunID:          runID,
		Seq:            seq,
		Region:         r.Region,
		Geography:      r.Geography,
		RegionType:     string(r.RegionType),
		Stratum:        r.Stratum,
		VerySafe:       nullFloat(r.Metrics.VerySafe),
		Safe:           nullFloat(r.Metrics.Safe),
		Neither:        nullFloat(r.Metrics.Neither),
		Unsafe:         nullFloat(r.Metrics.Unsafe),
		VeryUnsafe:     nullFloat(r.Metrics.VeryUnsafe),
		SafetyPositive: nullFloat(r.SafetyPositive),
		Years:          r.Years,
		LevelFilter:    r.LevelFilter,
	}
}

func (r tidyRow) record() domain.TidyRecord {
	return domain.TidyRecord{
		Region:     r.Region,
		Geography:  r.Geography,
		RegionType: domain.RegionType(r.RegionType),
		Stratum:    r.Stratum,
		Metrics: domain.SafetyMetrics{
			VerySafe:   value(r.VerySafe),
			Safe:       value(r.Safe),
			Neither:    value(r.Neither),
			Unsafe:     value(r.Unsafe),
			VeryUnsafe: value(r.VeryUnsafe),
		},
		SafetyPositive: value(r.SafetyPositive),
		Years:          r.Years,
		LevelFilter:    r.LevelFilter,
	}
}

func compositeRowFrom(runID string, r domain.CompositeIndexRow) compositeRow {
	return compositeRow{
		RunID:          runID,
		Region:         r.Region,
		AvgSafetyScore: nullFloat(r.AvgSafetyScore),
		HighConnShare:  r.HighConnShare,
		LowConnShare:   r.LowConnShare,
		ConnRatio:      r.ConnRatio,
		ClimateIndex:   nullFloat(r.ClimateIndex),
	}
}

func (r compositeRow) row() domain.CompositeIndexRow {
	return domain.CompositeIndexRow{
		Region:         r.Region,
		AvgSafetyScore: value(r.AvgSafetyScore),
		HighConnShare:  r.HighConnShare,
		LowConnShare:   r.LowConnShare,
		ConnRatio:      r.ConnRatio,
		ClimateIndex:   value(r.ClimateIndex),
	}
}
