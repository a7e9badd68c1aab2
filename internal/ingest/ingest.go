package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kfreiman/anypdf/internal/storage"
)

// Converter produces a PDF for a stored file
type Converter interface {
	Convert(ctx context.Context, path, ext string) (string, error)
}

// Ingestor accepts a document and returns its PDF rendering
type Ingestor interface {
	// Ingest stores content under a fresh name and converts it
	Ingest(ctx context.Context, r io.Reader, originalName string) (*Result, error)
	// IngestFile does the same for a file on the local filesystem
	IngestFile(ctx context.Context, path string) (*Result, error)
}

// Result describes one finished conversion
type Result struct {
	Upload *storage.Upload
	// PDFPath is the absolute path of the produced PDF
	PDFPath string
	// PDFFilename is the PDF's name inside storage
	PDFFilename string
	Duration    time.Duration
}

// DocumentIngestor implements the Ingestor interface
type DocumentIngestor struct {
	storageManager *storage.StorageManager
	converter      Converter
	logger         *slog.Logger
	allowedRoots   []string
}

// NewIngestor creates a new document ingestor
func NewIngestor(storageManager *storage.StorageManager, converter Converter) *DocumentIngestor {
	return &DocumentIngestor{
		storageManager: storageManager,
		converter:      converter,
		logger:         slog.Default(),
	}
}

// WithLogger sets a custom logger for the ingestor
func (i *DocumentIngestor) WithLogger(logger *slog.Logger) *DocumentIngestor {
	i.logger = logger
	return i
}

// WithAllowedRoots confines IngestFile to files under roots
func (i *DocumentIngestor) WithAllowedRoots(roots ...string) *DocumentIngestor {
	i.allowedRoots = roots
	return i
}

// Ingest implements the Ingestor interface
func (i *DocumentIngestor) Ingest(ctx context.Context, r io.Reader, originalName string) (*Result, error) {
	if strings.TrimSpace(originalName) == "" {
		return nil, &ValidationError{
			Field:  "file",
			Reason: "no file selected",
		}
	}

	upload, err := i.storageManager.SaveUpload(ctx, r, originalName)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	pdfPath, err := i.converter.Convert(ctx, upload.Path, upload.Ext)
	if err != nil {
		i.logger.ErrorContext(ctx, "document conversion failed",
			"error", err,
			"id", upload.ID,
			"original_name", originalName,
		)
		return nil, err
	}

	if pdfPath == "" {
		return nil, ErrNoPDF
	}
	if _, err := os.Stat(pdfPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPDF, err)
	}

	result := &Result{
		Upload:      upload,
		PDFPath:     pdfPath,
		PDFFilename: filepath.Base(pdfPath),
		Duration:    time.Since(started),
	}

	i.logger.InfoContext(ctx, "document converted",
		"id", upload.ID,
		"original_name", originalName,
		"pdf", result.PDFFilename,
		"duration", result.Duration,
	)

	return result, nil
}

// IngestFile implements the Ingestor interface
func (i *DocumentIngestor) IngestFile(ctx context.Context, path string) (*Result, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if len(i.allowedRoots) > 0 {
		if err := checkWithinRoots(path, i.allowedRoots); err != nil {
			i.logger.WarnContext(ctx, "rejected path outside allowed roots",
				"path", path,
				"roots", i.allowedRoots,
			)
			return nil, err
		}
	}

	// #nosec G304 - path is validated above
	f, err := os.Open(path)
	if err != nil {
		return nil, &ValidationError{
			Field:  "path",
			Value:  path,
			Reason: err.Error(),
		}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &ValidationError{
			Field:  "path",
			Value:  path,
			Reason: "is a directory",
		}
	}

	return i.Ingest(ctx, f, filepath.Base(path))
}

// validatePath validates a file path to prevent path traversal
func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return &ValidationError{
			Field:  "path",
			Reason: "path is required",
		}
	}

	// Check for path traversal attempts
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return &SecurityError{
				Type:    "path_traversal",
				Details: fmt.Sprintf("path contains traversal sequence: %s", path),
			}
		}
	}

	// Check for null bytes
	if strings.Contains(path, "\x00") {
		return &SecurityError{
			Type:    "null_byte",
			Details: "path contains null bytes",
		}
	}

	return nil
}

// checkWithinRoots resolves symlinks in path and in every root and requires
// the result to lie inside one of the roots
func checkWithinRoots(path string, roots []string) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return &ValidationError{
			Field:  "path",
			Value:  path,
			Reason: err.Error(),
		}
	}

	for _, root := range roots {
		base, err := resolvePath(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(base, resolved)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return nil
		}
	}

	return &SecurityError{
		Type:    "outside_root",
		Details: fmt.Sprintf("path is outside the allowed input directories: %s", path),
	}
}

func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
