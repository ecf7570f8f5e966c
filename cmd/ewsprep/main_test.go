package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ewscli/internal/shared/testutil"
	"ewscli/pkg/contracts"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGradeCommand(t *testing.T) {
	base := t.TempDir()
	export := testutil.WriteGradeExport(t, t.TempDir(), "Safety 2019.txt")

	out, err := execute(t, "grade", export, "--base-dir", base, "--years", "2019-2021", "--level", "High")
	require.NoError(t, err)

	tidy := filepath.Join(base, "data", "reports", "grade_safety_2019_tidy.csv")
	assert.FileExists(t, tidy)
	assert.Contains(t, out, "grade: Safety 2019.txt, 4 records")
	assert.NotContains(t, out, "composite:")

	data, err := os.ReadFile(tidy)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2019-2021")
}

func TestConnectednessCommand_Store(t *testing.T) {
	base := t.TempDir()
	export := testutil.WriteConnectednessWorkbook(t, t.TempDir(), "Connectedness.xlsx")

	out, err := execute(t, "connectedness", export, "--base-dir", base, "--store")
	require.NoError(t, err)

	assert.Contains(t, out, "connectedness: Connectedness.xlsx, 6 records")
	assert.Contains(t, out, "composite: 2 regions")
	assert.Contains(t, out, "run: ")
	assert.FileExists(t, filepath.Join(base, "data", "reports", "connectedness_composite_index.csv"))
	assert.FileExists(t, filepath.Join(base, "data", "ews.db"))
}

func TestFileCommands_DatasetFollowsCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		write   func(t testing.TB, dir, name string) string
		file    string
		want    []string
	}{
		{
			name:    "grade workbook",
			command: "grade",
			write:   testutil.WriteGradeWorkbook,
			file:    "Grade 2019.xlsx",
			want:    []string{"grade: Grade 2019.xlsx, 4 records"},
		},
		{
			name:    "connectedness text",
			command: "connectedness",
			write:   testutil.WriteConnectednessText,
			file:    "Connectedness.txt",
			want:    []string{"connectedness: Connectedness.txt, 6 records", "composite: 2 regions"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			export := tt.write(t, t.TempDir(), tt.file)

			out, err := execute(t, tt.command, export, "--base-dir", base)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestFileCommands_Rejected(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0o644))
	fake := filepath.Join(dir, "fake.xlsx")
	require.NoError(t, os.WriteFile(fake, []byte("not a zip"), 0o644))

	tests := []struct {
		name string
		args []string
	}{
		{"unsupported extension", []string{"grade", pdf}},
		{"workbook without zip signature", []string{"connectedness", fake}},
		{"missing argument", []string{"grade"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append(tt.args, "--base-dir", t.TempDir())...)
			assert.Error(t, err)
		})
	}
}

func TestBatchCommand(t *testing.T) {
	base := t.TempDir()
	in := t.TempDir()
	testutil.WriteGradeExport(t, in, "a_grade.txt")
	testutil.WriteConnectednessWorkbook(t, in, "b_connectedness.xlsx")
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.md"), []byte("skip"), 0o644))

	out, err := execute(t, "batch", in, "--base-dir", base, "--workers", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "processed 2 exports")
	reports := filepath.Join(base, "data", "reports")
	assert.FileExists(t, filepath.Join(reports, "grade_a_grade_tidy.csv"))
	assert.FileExists(t, filepath.Join(reports, "connectedness_b_connectedness_tidy.csv"))
	assert.FileExists(t, filepath.Join(reports, "b_connectedness_composite_index.csv"))
}

func TestBatchCommand_Dataset(t *testing.T) {
	in := t.TempDir()
	testutil.WriteGradeExport(t, in, "a.txt")
	testutil.WriteGradeWorkbook(t, in, "b.xlsx")

	out, err := execute(t, "batch", in, "--base-dir", t.TempDir(), "--dataset", "grade")
	require.NoError(t, err)
	assert.Contains(t, out, "grade: a.txt, 4 records")
	assert.Contains(t, out, "grade: b.xlsx, 4 records")

	_, err = execute(t, "batch", in, "--base-dir", t.TempDir(), "--dataset", "composite")
	assert.Error(t, err)
}

func TestBatchCommand_Empty(t *testing.T) {
	out, err := execute(t, "batch", t.TempDir(), "--base-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "no exports found")
}

func TestBatchCommand_MissingDir(t *testing.T) {
	_, err := execute(t, "batch", filepath.Join(t.TempDir(), "nope"), "--base-dir", t.TempDir())
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ewscli v"+contracts.Version)
}
