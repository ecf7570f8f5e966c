package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Kinds of export recognized by extension
const (
	KindText     = "text"
	KindWorkbook = "workbook"
)

var exportKinds = map[string]string{
	".txt":  KindText,
	".tsv":  KindText,
	".csv":  KindText,
	".xlsx": KindWorkbook,
}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	Kind    string
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance. Relative directories
// are resolved against basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// KindOf returns the export kind of name, or "" when the extension is not
// a supported export
func KindOf(name string) string {
	return exportKinds[strings.ToLower(filepath.Ext(name))]
}

// FindExports lists the supported export files directly inside dir, sorted
// by name. Office lock files (~$name.xlsx) and hidden files are skipped.
func (d *Discovery) FindExports(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		kind := KindOf(name)
		if kind == "" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Kind:    kind,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// FindExportsByPattern is FindExports restricted to names matching a glob
// pattern such as "grade_*.txt"
func (d *Discovery) FindExportsByPattern(dir, pattern string) ([]FileInfo, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	all, err := d.FindExports(dir)
	if err != nil {
		return nil, err
	}
	var files []FileInfo
	for _, f := range all {
		if ok, _ := filepath.Match(pattern, f.Name); ok {
			files = append(files, f)
		}
	}
	return files, nil
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}
