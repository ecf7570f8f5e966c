package exporter

import (
	"strconv"

	"ewscli/pkg/contracts/domain"
)

// formatValue writes missing values as empty cells
func formatValue(v domain.Value) string {
	return v.String()
}

// formatFloat uses the shortest representation that round-trips
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
