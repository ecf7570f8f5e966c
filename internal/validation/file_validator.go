package validation

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apierrors "ewscli/internal/errors"
	"ewscli/internal/files"
)

// zipMagic starts every xlsx workbook
var zipMagic = []byte("PK\x03\x04")

// FileValidator checks export inputs and report outputs before the
// pipeline touches them
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateInputDirectory checks that dir exists and reports how many
// supported exports it holds. An empty directory is not an error.
func (v *FileValidator) ValidateInputDirectory(dir string) (int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return 0, apierrors.NewNotFoundError("input directory").WithContext("directory", dir)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return 0, apierrors.NewAppValidationError(fmt.Sprintf("%s is not a directory", dir))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() && files.KindOf(e.Name()) != "" && !strings.HasPrefix(e.Name(), "~$") {
			count++
		}
	}

	v.logger.Info("Input directory validated",
		slog.String("directory", dir),
		slog.Int("exports_found", count))
	return count, nil
}

// ValidateOutputDirectory ensures dir exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apierrors.NewStorageError(fmt.Sprintf("create output directory %s", dir), err)
	}

	probe, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apierrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// ValidateExport checks that path is a readable export of kind want.
// Workbooks must carry the zip signature; text exports must not be empty.
func (v *FileValidator) ValidateExport(path, want string) error {
	name := filepath.Base(path)
	if strings.HasPrefix(name, "~$") {
		return apierrors.NewAppValidationError(fmt.Sprintf("%s is an Office lock file", name))
	}
	if kind := files.KindOf(name); kind != want {
		v.logger.Error("Unexpected export kind",
			slog.String("file", path),
			slog.String("want", want),
			slog.String("got", kind))
		return apierrors.NewAppValidationError(fmt.Sprintf("%s is not a %s export", name, want))
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return apierrors.NewNotFoundError("export").WithContext("file", path)
	}
	if err != nil {
		return apierrors.NewParsingError("open export", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return apierrors.NewParsingError("stat export", err)
	}
	if info.IsDir() {
		return apierrors.NewAppValidationError(fmt.Sprintf("%s is a directory", name))
	}
	if info.Size() == 0 {
		return apierrors.NewAppValidationError(fmt.Sprintf("%s is empty", name))
	}

	if want == files.KindWorkbook {
		head := make([]byte, len(zipMagic))
		if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, zipMagic) {
			return apierrors.NewAppValidationError(fmt.Sprintf("%s is not an xlsx workbook", name))
		}
	}

	v.logger.Debug("Export validated",
		slog.String("file", path),
		slog.String("kind", want),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateAnyExport runs ValidateExport for the kind named by the
// extension and returns that kind
func (v *FileValidator) ValidateAnyExport(path string) (string, error) {
	kind := files.KindOf(path)
	if kind == "" {
		return "", apierrors.NewAppValidationError(fmt.Sprintf("%s is not a supported export", filepath.Base(path)))
	}
	return kind, v.ValidateExport(path, kind)
}
