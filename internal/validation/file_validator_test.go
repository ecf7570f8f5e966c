package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "ewscli/internal/errors"
	"ewscli/internal/files"
	"ewscli/internal/shared/testutil"
)

func TestFileValidator_ValidateInputDirectory(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T) string
		wantCount int
		wantType  apierrors.ErrorType
	}{
		{
			name: "exports counted",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				testutil.WriteGradeExport(t, dir, "grade.txt")
				testutil.WriteConnectednessWorkbook(t, dir, "conn.xlsx")
				require.NoError(t, os.WriteFile(filepath.Join(dir, "~$conn.xlsx"), []byte("x"), 0o644))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("x"), 0o644))
				return dir
			},
			wantCount: 2,
		},
		{
			name:  "empty directory",
			setup: func(t *testing.T) string { return t.TempDir() },
		},
		{
			name:     "missing directory",
			setup:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
			wantType: apierrors.ErrTypeNotFound,
		},
		{
			name: "path is a file",
			setup: func(t *testing.T) string {
				return testutil.WriteGradeExport(t, t.TempDir(), "grade.txt")
			},
			wantType: apierrors.ErrTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			v := NewFileValidator(logger)

			count, err := v.ValidateInputDirectory(tt.setup(t))
			if tt.wantType != "" {
				require.Error(t, err)
				assert.True(t, apierrors.IsType(err, tt.wantType), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil)

	dir := filepath.Join(t.TempDir(), "reports", "nested")
	require.NoError(t, v.ValidateOutputDirectory(dir))
	assert.DirExists(t, dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "write probe must be removed")

	file := testutil.WriteGradeExport(t, t.TempDir(), "grade.txt")
	err = v.ValidateOutputDirectory(filepath.Join(file, "sub"))
	require.Error(t, err)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeStorage))
}

func TestFileValidator_ValidateExport(t *testing.T) {
	dir := t.TempDir()
	text := testutil.WriteGradeExport(t, dir, "grade.txt")
	workbook := testutil.WriteConnectednessWorkbook(t, dir, "conn.xlsx")

	fakeWorkbook := filepath.Join(dir, "fake.xlsx")
	require.NoError(t, os.WriteFile(fakeWorkbook, []byte("not a zip"), 0o644))
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	lock := filepath.Join(dir, "~$conn.xlsx")
	require.NoError(t, os.WriteFile(lock, []byte("PK\x03\x04"), 0o644))

	tests := []struct {
		name     string
		path     string
		want     string
		wantType apierrors.ErrorType
	}{
		{"grade text", text, files.KindText, ""},
		{"workbook", workbook, files.KindWorkbook, ""},
		{"text given as workbook", text, files.KindWorkbook, apierrors.ErrTypeValidation},
		{"workbook given as text", workbook, files.KindText, apierrors.ErrTypeValidation},
		{"missing file", filepath.Join(dir, "missing.txt"), files.KindText, apierrors.ErrTypeNotFound},
		{"bad zip signature", fakeWorkbook, files.KindWorkbook, apierrors.ErrTypeValidation},
		{"empty text", empty, files.KindText, apierrors.ErrTypeValidation},
		{"lock file", lock, files.KindWorkbook, apierrors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewFileValidator(nil).ValidateExport(tt.path, tt.want)
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apierrors.IsType(err, tt.wantType), err.Error())
		})
	}
}

func TestFileValidator_ValidateAnyExport(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0o644))
	lock := filepath.Join(dir, "~$conn.xlsx")
	require.NoError(t, os.WriteFile(lock, []byte("PK\x03\x04"), 0o644))

	tests := []struct {
		name     string
		path     string
		wantKind string
		wantType apierrors.ErrorType
	}{
		{"grade text", testutil.WriteGradeExport(t, dir, "grade.txt"), files.KindText, ""},
		{"grade workbook", testutil.WriteGradeWorkbook(t, dir, "grade.xlsx"), files.KindWorkbook, ""},
		{"connectedness text", testutil.WriteConnectednessText(t, dir, "conn.tsv"), files.KindText, ""},
		{"unsupported extension", pdf, "", apierrors.ErrTypeValidation},
		{"lock file", lock, files.KindWorkbook, apierrors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := NewFileValidator(nil).ValidateAnyExport(tt.path)
			assert.Equal(t, tt.wantKind, kind)
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apierrors.IsType(err, tt.wantType), err.Error())
		})
	}
}
