// Package services implements the operations shared by the ewsprep CLI and
// the HTTP API.
//
// SafetyService reads CalSCHLS safety exports, builds tidy records and the
// county composite index, writes CSV reports and optionally persists each
// run. Batch runs fan out over the exports in a directory with a bounded
// errgroup.
//
// PredictionService validates slider inputs, assembles the model row in
// the trained feature order and labels the classifier's answer.
//
// HealthService reports liveness and readiness of the reports directory,
// the result store and the model configuration.
//
// Services log through an injected *slog.Logger and return errors from
// internal/errors so the transport layer can map them to problem details.
package services
