// Package http implements the HTTP handlers of the ews web service.
//
// Handlers are thin: they parse the request, call a service and render the
// result with go-chi/render. Failures go through the shared
// errors.ErrorHandler so every error body is an RFC 7807 problem document.
//
// # Routes
//
//	GET  /api/health, /api/health/ready, /api/health/live
//	POST /api/safety/grade          text export, raw body or multipart "file"
//	POST /api/safety/connectedness  xlsx export, raw body or multipart "file"
//	POST /api/safety/composite      {"records": [...]}
//	GET  /api/predict/features
//	POST /api/predict               {"inputs": {"feature": value}}
//	POST /api/predict/randomize
//	GET  /api/runs, /api/runs/{runID}, /api/runs/{runID}/composite
//	GET  /metrics
//
// Export endpoints accept ?format=csv (or Accept: text/csv) to receive the
// tidy CSV instead of JSON, and ?persist=true to store the run. The run
// routes are only mounted when a result store is configured; runID may be
// "latest" together with ?dataset=grade|connectedness.
package http
