package http

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	apierrors "ewscli/internal/errors"
	"ewscli/internal/files"
	"ewscli/internal/services"
)

const (
	uploadField     = "file"
	multipartMemory = 8 << 20
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// exportContentTypes are accepted by every upload route. The route names
// the dataset; the content type or file name only picks the reader.
var exportContentTypes = []string{
	"text/plain", "text/tab-separated-values", "text/csv",
	xlsxContentType, "application/octet-stream", "multipart/form-data",
}

var xlsxSignature = []byte("PK\x03\x04")

// export is an uploaded export body with its reported file name and the
// files kind that selects its reader
type export struct {
	body io.ReadCloser
	name string
	kind string
}

// readExport returns the export carried by r, either as the "file" part of
// a multipart form or as the raw request body. Multipart kinds come from
// the file name. Raw bodies use the media type; octet-stream is sniffed
// for the xlsx zip signature.
func readExport(r *http.Request) (*export, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return rawExport(r.Body, mediaType)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apierrors.ErrPayloadTooLarge
		}
		return nil, apierrors.UnreadableExportError(err)
	}
	f, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, apierrors.ErrValidation(uploadField, "an export file is required")
	}

	name := filepath.Base(header.Filename)
	kind := files.KindOf(name)
	if kind == "" {
		f.Close()
		return nil, apierrors.NewWithDetails(http.StatusUnsupportedMediaType, apierrors.CodeUnsupportedExport,
			"Export format is not supported", map[string]string{"file": name, "supported": ".txt .tsv .csv .xlsx"})
	}
	return &export{body: f, name: name, kind: kind}, nil
}

// format selects the reader for the upload; ?sheet= names the worksheet
func (e *export) format(r *http.Request) services.ExportFormat {
	return services.ExportFormat{Kind: e.kind, Sheet: r.URL.Query().Get("sheet")}
}

func rawExport(body io.ReadCloser, mediaType string) (*export, error) {
	kind := files.KindText
	switch {
	case mediaType == xlsxContentType:
		kind = files.KindWorkbook
	case !strings.HasPrefix(mediaType, "text/"):
		br := bufio.NewReader(body)
		head, err := br.Peek(len(xlsxSignature))
		if err != nil && !errors.Is(err, io.EOF) {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, apierrors.ErrPayloadTooLarge
			}
			return nil, apierrors.UnreadableExportError(err)
		}
		if bytes.Equal(head, xlsxSignature) {
			kind = files.KindWorkbook
		}
		body = struct {
			io.Reader
			io.Closer
		}{br, body}
	}

	name := "upload.txt"
	if kind == files.KindWorkbook {
		name = "upload.xlsx"
	}
	return &export{body: body, name: name, kind: kind}, nil
}

// wantsCSV reports whether the client asked for CSV instead of JSON
func wantsCSV(r *http.Request) bool {
	if f := r.URL.Query().Get("format"); f != "" {
		return f == "csv"
	}
	return strings.HasPrefix(r.Header.Get("Accept"), "text/csv")
}
