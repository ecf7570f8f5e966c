package domain

import "strconv"

// RegionType is the geographic scope of a region header
type RegionType string

const (
	RegionState  RegionType = "State"
	RegionCounty RegionType = "County"
)

// Rank orders region types State before County
func (t RegionType) Rank() int {
	switch t {
	case RegionState:
		return 0
	case RegionCounty:
		return 1
	default:
		return 2
	}
}

// Connectedness strata
const (
	ConnectednessHigh   = "High"
	ConnectednessMedium = "Medium"
	ConnectednessLow    = "Low"
)

// Grade strata carried by the grade-stratified safety export
const (
	Grade9  = "9"
	Grade11 = "11"
)

// StratumRank orders strata within a region: grades numerically, then
// connectedness levels High, Medium, Low. Unknown strata sort last.
func StratumRank(stratum string) int {
	switch stratum {
	case ConnectednessHigh:
		return 1000
	case ConnectednessMedium:
		return 1001
	case ConnectednessLow:
		return 1002
	}
	if n, err := strconv.Atoi(stratum); err == nil && n >= 0 && n < 1000 {
		return n
	}
	return 2000
}

// Metric column names used in tidy output
const (
	MetricVerySafe       = "very_safe_pct"
	MetricSafe           = "safe_pct"
	MetricNeither        = "neither_pct"
	MetricUnsafe         = "unsafe_pct"
	MetricVeryUnsafe     = "very_unsafe_pct"
	MetricSafetyPositive = "safety_positive"
)

// SafetyMetrics holds the five perception-of-safety percentages
type SafetyMetrics struct {
	VerySafe   Value `json:"very_safe_pct" validate:"omitempty,gte=0,lte=100"`
	Safe       Value `json:"safe_pct" validate:"omitempty,gte=0,lte=100"`
	Neither    Value `json:"neither_pct" validate:"omitempty,gte=0,lte=100"`
	Unsafe     Value `json:"unsafe_pct" validate:"omitempty,gte=0,lte=100"`
	VeryUnsafe Value `json:"very_unsafe_pct" validate:"omitempty,gte=0,lte=100"`
}

// TidyRecord is one normalized (region, stratum) row
type TidyRecord struct {
	Region     string        `json:"region" validate:"required,notblank"`
	Geography  string        `json:"geography,omitempty"`
	RegionType RegionType    `json:"region_type" validate:"required,oneof=State County"`
	Stratum    string        `json:"stratum" validate:"required,notblank"`
	Metrics    SafetyMetrics `json:"metrics"`

	// SafetyPositive is set for connectedness records only
	SafetyPositive Value `json:"safety_positive" validate:"omitempty,gte=0,lte=100"`

	Years       string `json:"years,omitempty"`
	LevelFilter string `json:"level_of_safety_filter,omitempty"`
}

// MetricValues returns the metrics keyed by their output column name
func (r TidyRecord) MetricValues() map[string]Value {
	m := map[string]Value{
		MetricVerySafe:   r.Metrics.VerySafe,
		MetricSafe:       r.Metrics.Safe,
		MetricNeither:    r.Metrics.Neither,
		MetricUnsafe:     r.Metrics.Unsafe,
		MetricVeryUnsafe: r.Metrics.VeryUnsafe,
	}
	if r.SafetyPositive.Valid {
		m[MetricSafetyPositive] = r.SafetyPositive
	}
	return m
}

// CompositeIndexRow is the region-level aggregate of tidy records
type CompositeIndexRow struct {
	Region         string  `json:"region"`
	AvgSafetyScore Value   `json:"avg_safety_score"`
	HighConnShare  float64 `json:"high_conn_share"`
	LowConnShare   float64 `json:"low_conn_share"`
	ConnRatio      float64 `json:"conn_ratio"`
	ClimateIndex   Value   `json:"climate_index"`
}
