// Package exporter writes tidy safety records and composite index rows as
// CSV reports.
//
// CSVWriter resolves relative paths against the reports directory, writes a
// UTF-8 BOM so Excel opens the files correctly, and streams tidy records
// through a StreamWriter. Missing values are written as empty cells.
//
// WriteTidy and WriteComposite write the same layouts to any io.Writer and
// back the CSV responses of the HTTP API.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(paths, logger)
//	err := w.ExportTidy(paths.TidyCSVPath("grade", src), "grade", records)
//	err = w.ExportComposite(paths.CompositeCSVPath(src), rows)
package exporter
