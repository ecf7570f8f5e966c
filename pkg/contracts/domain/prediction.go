package domain

// FeatureRow is a single model input row; Values[i] belongs to Names[i]
type FeatureRow struct {
	Names  []string  `json:"feature_names"`
	Values []float64 `json:"values"`
}

// Get returns the value for a named feature
func (r FeatureRow) Get(name string) (float64, bool) {
	for i, n := range r.Names {
		if n == name && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return 0, false
}

// Risk labels shown for classifier output
const (
	LabelAtRisk  = "At Risk"
	LabelOnTrack = "On Track"
)

// Prediction is the classifier result for one feature row
type Prediction struct {
	Class       int        `json:"class"`
	Label       string     `json:"label"`
	Probability float64    `json:"probability"`
	RiskPercent float64    `json:"risk_percent"`
	Features    FeatureRow `json:"features"`
}
