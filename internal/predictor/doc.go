// Package predictor holds the inputs and the client of the graduation
// early-warning classifier.
//
// Features are grouped by the ABC(S) framework (Attendance, Behavior,
// Course performance, School supports) and each carries a slider setting
// with its range and default. The classifier expects its features in a
// fixed order, loaded from a YAML or JSON list; names without a setting are
// dropped from that order.
//
// The model itself is external. HTTPClassifier posts
//
//	{"feature_names": [...], "rows": [[...]]}
//
// to /predict and /predict_proba and expects {"predictions": [c]} and
// {"probabilities": [[p0, p1]]} in return.
package predictor
