package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains all the application paths.
// Relative directories are resolved against BaseDir, which defaults to the
// executable directory so the binaries behave the same from any working
// directory.
type Paths struct {
	BaseDir    string
	DataDir    string
	ExportsDir string
	ReportsDir string
	ModelsDir  string
	LogsDir    string

	// Well-known files
	FeatureOrderFile string
	StoreFile        string
}

// GetPaths resolves cfg against the executable directory unless cfg names
// a base directory
func GetPaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		exe, err = filepath.EvalSymlinks(exe)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
		}
		base = filepath.Dir(exe)
	}
	return NewPaths(base, cfg), nil
}

// NewPaths resolves cfg against base
func NewPaths(base string, cfg PathsConfig) *Paths {
	def := Default().Paths
	resolve := func(dir, fallback string) string {
		if dir == "" {
			dir = fallback
		}
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(base, dir)
	}

	p := &Paths{
		BaseDir:    base,
		DataDir:    resolve(cfg.DataDir, def.DataDir),
		ExportsDir: resolve(cfg.ExportsDir, def.ExportsDir),
		ReportsDir: resolve(cfg.ReportsDir, def.ReportsDir),
		ModelsDir:  resolve(cfg.ModelsDir, def.ModelsDir),
		LogsDir:    resolve(cfg.LogsDir, def.LogsDir),
	}
	p.FeatureOrderFile = filepath.Join(p.ModelsDir, "feature_order.yaml")
	p.StoreFile = filepath.Join(p.DataDir, "ews.db")
	return p
}

// Resolve returns path unchanged when absolute, otherwise joined to BaseDir
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.BaseDir, path)
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ExportsDir, p.ReportsDir, p.ModelsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// TidyCSVPath returns the report path for a dataset's tidy records, named
// after the source export
func (p *Paths) TidyCSVPath(dataset, source string) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf("%s_%s_tidy.csv", dataset, reportStem(source)))
}

// CompositeCSVPath returns the report path for a composite index
func (p *Paths) CompositeCSVPath(source string) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf("%s_composite_index.csv", reportStem(source)))
}

// ExportPath returns the path of an input export
func (p *Paths) ExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// reportStem is the lower-case file name of source without extension,
// with spaces replaced
func reportStem(source string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(strings.Join(strings.Fields(base), "_"))
	if base == "" || base == "." {
		return "export"
	}
	return base
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved layout
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("exports", p.ExportsDir),
			slog.String("reports", p.ReportsDir),
			slog.String("models", p.ModelsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("feature_order", p.FeatureOrderFile),
			slog.Bool("feature_order_exists", FileExists(p.FeatureOrderFile)),
		))
}
