// Package store persists pipeline runs over sqlx.
//
// The default backend is an embedded SQLite file (modernc.org/sqlite, no
// cgo); PostgreSQL is available through lib/pq. Queries are written with
// '?' or named placeholders and rebound for the active driver. Missing
// values are stored as NULL.
package store
