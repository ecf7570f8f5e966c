// Package app wires the web server: configuration, logging, telemetry,
// the result store, the classifier client, services, handlers and the
// middleware chain.
//
// # Initialization Flow
//
//  1. Initialize logging and resolve paths
//  2. Initialize OpenTelemetry and pipeline metrics
//  3. Open and migrate the result store (when enabled)
//  4. Build the safety, prediction and health services
//  5. Mount handlers behind the middleware chain
//  6. Configure the HTTP server
//
// The prediction endpoints answer 502 when no model URL is configured and
// /api/runs is only mounted when the store is enabled.
//
// # Usage
//
//	cfg, err := config.Load()
//	...
//	application, err := app.NewApplication(ctx, cfg)
//	...
//	if err := application.Run(); err != nil {
//	    ...
//	}
//
// Run blocks until SIGINT or SIGTERM, then shuts the server down, closes
// the store and flushes telemetry. Initialization errors are returned to
// the caller; the package never calls os.Exit.
package app
