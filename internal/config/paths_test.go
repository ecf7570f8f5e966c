package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	t.Run("executable relative", func(t *testing.T) {
		paths, err := GetPaths(PathsConfig{})
		require.NoError(t, err)

		assert.True(t, filepath.IsAbs(paths.BaseDir))
		assert.Equal(t, filepath.Join(paths.BaseDir, "data"), paths.DataDir)
		assert.Equal(t, filepath.Join(paths.BaseDir, "data", "reports"), paths.ReportsDir)
		assert.Equal(t, filepath.Join(paths.BaseDir, "logs"), paths.LogsDir)
	})

	t.Run("explicit base", func(t *testing.T) {
		base := t.TempDir()
		paths, err := GetPaths(PathsConfig{BaseDir: base, ReportsDir: "out"})
		require.NoError(t, err)

		assert.Equal(t, base, paths.BaseDir)
		assert.Equal(t, filepath.Join(base, "out"), paths.ReportsDir)
		assert.Equal(t, filepath.Join(base, "data", "exports"), paths.ExportsDir)
		assert.Equal(t, filepath.Join(base, "models", "feature_order.yaml"), paths.FeatureOrderFile)
		assert.Equal(t, filepath.Join(base, "data", "ews.db"), paths.StoreFile)
	})

	t.Run("absolute directories are kept", func(t *testing.T) {
		abs := t.TempDir()
		paths := NewPaths("/srv/ews", PathsConfig{LogsDir: abs})
		assert.Equal(t, abs, paths.LogsDir)
	})
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths := NewPaths(base, Default().Paths)

	require.NoError(t, paths.EnsureDirectories())
	for _, dir := range []string{paths.DataDir, paths.ExportsDir, paths.ReportsDir, paths.ModelsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}

	// Idempotent
	assert.NoError(t, paths.EnsureDirectories())
}

func TestReportPaths(t *testing.T) {
	paths := NewPaths("/srv/ews", Default().Paths)

	assert.Equal(t, filepath.Join("/srv/ews", "data", "reports", "grade_safety_by_grade_tidy.csv"),
		paths.TidyCSVPath("grade", "/tmp/Safety By Grade.txt"))
	assert.Equal(t, filepath.Join("/srv/ews", "data", "reports", "conn_composite_index.csv"),
		paths.CompositeCSVPath("conn.xlsx"))
	assert.Equal(t, filepath.Join("/srv/ews", "data", "reports", "export_composite_index.csv"),
		paths.CompositeCSVPath(""))
	assert.Equal(t, filepath.Join("/srv/ews", "data", "exports", "a.txt"), paths.ExportPath("a.txt"))
	assert.Equal(t, filepath.Join("/srv/ews", "logs", "ews.log"), paths.GetLogPath("ews.log"))
}

func TestResolve(t *testing.T) {
	paths := NewPaths("/srv/ews", PathsConfig{})
	assert.Equal(t, filepath.Join("/srv/ews", "data", "ews.db"), paths.Resolve("data/ews.db"))
	assert.Equal(t, "/var/db/ews.db", paths.Resolve("/var/db/ews.db"))
	assert.Equal(t, "", paths.Resolve(""))
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x")
	assert.False(t, FileExists(file))
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.True(t, FileExists(file))
}
