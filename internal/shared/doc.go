// Package shared holds code used across packages that belongs to no
// single layer. Today that is only testutil: the captured slog handler and
// the export fixtures (a Latin-1 grade text export and a connectedness
// workbook) that the parser, service, handler and CLI tests share.
package shared
