package predictor

import (
	"math"

	"ewscli/pkg/contracts/domain"
)

// NewPrediction labels a classifier result. Class 1 is At Risk; the risk
// percentage is p(class 1) rounded to one decimal place.
func NewPrediction(class int, proba [2]float64, row domain.FeatureRow) domain.Prediction {
	label := domain.LabelOnTrack
	if class == 1 {
		label = domain.LabelAtRisk
	}
	return domain.Prediction{
		Class:       class,
		Label:       label,
		Probability: proba[1],
		RiskPercent: math.Round(proba[1]*1000) / 10,
		Features:    row,
	}
}
