package server

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/kfreiman/anypdf/internal/ingest"
	"github.com/kfreiman/anypdf/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// multipartOverhead is the slack allowed on top of MaxUploadBytes for
// boundaries and part headers
const multipartOverhead = 1 << 20

const (
	msgNoFileField    = "No 'file' field in form."
	msgNoFileSelected = "No file selected."
	msgTooLarge       = "File is too large."
	msgNoPDF          = "Failed to produce a PDF."
	msgNotFound       = "File not found."
)

func (s *Server) uploadFormHandler(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", map[string]any{
		"MaxUploadMB": s.config.MaxUploadBytes >> 20,
	})
}

func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.config.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes+multipartOverhead)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, msgTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		s.logger.WarnContext(ctx, "malformed upload", "error", err)
		http.Error(w, msgNoFileField, http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		// Browsers send an empty filename when nothing was picked, which
		// lands the part among the plain values.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			http.Error(w, msgNoFileSelected, http.StatusBadRequest)
			return
		}
		http.Error(w, msgNoFileField, http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := s.ingestor.Ingest(ctx, file, header.Filename)
	if err != nil {
		s.writeIngestError(w, r, err)
		return
	}

	http.Redirect(w, r, "/converted/"+url.PathEscape(result.PDFFilename), http.StatusSeeOther)
}

func (s *Server) writeIngestError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *ingest.ValidationError
	switch {
	case errors.As(err, &validationErr):
		http.Error(w, msgNoFileSelected, http.StatusBadRequest)
	case errors.Is(err, storage.ErrTooLarge):
		http.Error(w, msgTooLarge, http.StatusRequestEntityTooLarge)
	case errors.Is(err, ingest.ErrNoPDF):
		http.Error(w, msgNoPDF, http.StatusInternalServerError)
	default:
		s.logger.ErrorContext(r.Context(), "upload conversion failed", "error", err)
		http.Error(w, fmt.Sprintf("Conversion error: %v", err), http.StatusInternalServerError)
	}
}

func (s *Server) convertedHandler(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if _, err := s.storageManager.Resolve(filename); err != nil {
		http.Error(w, msgNotFound, http.StatusNotFound)
		return
	}

	s.render(w, r, "converted.html", map[string]any{
		"Filename": filename,
	})
}

func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	f, err := s.storageManager.Open(filename)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, storage.ErrInvalidName) {
			s.logger.ErrorContext(r.Context(), "failed to open download", "error", err, "filename", filename)
		}
		http.Error(w, msgNotFound, http.StatusNotFound)
		return
	}
	defer f.Close()

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))

	if _, err := io.Copy(w, f); err != nil {
		s.logger.WarnContext(r.Context(), "download interrupted", "error", err, "filename", filename)
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to render template", "error", err, "template", name)
	}
}
