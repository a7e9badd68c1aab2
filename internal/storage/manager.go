package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a stored file does not exist
	ErrNotFound = errors.New("file not found")
	// ErrInvalidName is returned for file names that could escape the storage directory
	ErrInvalidName = errors.New("invalid file name")
	// ErrTooLarge is returned when an upload exceeds the configured ceiling
	ErrTooLarge = errors.New("upload exceeds the size limit")
)

// StorageError represents a storage-related failure
type StorageError struct {
	Operation string
	Path      string
	Err       error
}

func (e *StorageError) Error() string {
	msg := fmt.Sprintf("storage error during %s", e.Operation)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path: %s)", e.Path)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// StorageConfig holds configuration for the storage manager
type StorageConfig struct {
	BasePath   string
	DefaultTTL time.Duration
	// MaxUploadBytes caps a single upload; 0 means unlimited
	MaxUploadBytes int64
	Logger         *slog.Logger // Optional: custom logger (defaults to slog.Default)
	FileSystem     FileSystem   // Optional: custom filesystem (defaults to OS filesystem)
}

// Upload is an input saved under a collision-free name
type Upload struct {
	ID           string
	Filename     string
	Path         string
	Ext          string
	OriginalName string
	Size         int64
}

// Document groups every stored artefact sharing one upload ID
type Document struct {
	ID       string    `json:"id"`
	Files    []string  `json:"files"`
	PDF      string    `json:"pdf,omitempty"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Stats summarises the storage directory
type Stats struct {
	Files int64 `json:"files"`
	PDFs  int64 `json:"pdfs"`
	Bytes int64 `json:"bytes"`
}

// StorageManager keeps uploads and every artefact derived from them in one
// directory, named <uuid><ext>
type StorageManager struct {
	basePath   string
	defaultTTL time.Duration
	maxUpload  int64
	logger     *slog.Logger
	fs         FileSystem
}

// NewStorageManager creates a new storage manager
func NewStorageManager(config StorageConfig) (*StorageManager, error) {
	ctx := context.Background()

	// Set defaults
	if config.BasePath == "" {
		config.BasePath = "./uploads"
	}
	if config.DefaultTTL == 0 {
		config.DefaultTTL = 24 * time.Hour
	}
	if config.FileSystem == nil {
		config.FileSystem = NewOSFileSystem()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	basePath, err := filepath.Abs(config.BasePath)
	if err != nil {
		return nil, &StorageError{Operation: "init - resolve path", Path: config.BasePath, Err: err}
	}

	if err := config.FileSystem.MkdirAll(basePath, 0o755); err != nil {
		config.Logger.ErrorContext(ctx, "failed to create storage directory",
			"error", err,
			"path", basePath,
			"operation", "init",
		)
		return nil, &StorageError{
			Operation: "init - create directory",
			Path:      basePath,
			Err:       err,
		}
	}

	config.Logger.InfoContext(ctx, "storage manager initialized",
		"base_path", basePath,
		"default_ttl", config.DefaultTTL,
		"max_upload_bytes", config.MaxUploadBytes,
	)

	return &StorageManager{
		basePath:   basePath,
		defaultTTL: config.DefaultTTL,
		maxUpload:  config.MaxUploadBytes,
		logger:     config.Logger,
		fs:         config.FileSystem,
	}, nil
}

// BasePath returns the absolute storage directory
func (sm *StorageManager) BasePath() string {
	return sm.basePath
}

// DefaultTTL returns the retention used when Cleanup is given zero
func (sm *StorageManager) DefaultTTL() time.Duration {
	return sm.defaultTTL
}

// MaxUploadBytes returns the per-upload ceiling, 0 when unlimited
func (sm *StorageManager) MaxUploadBytes() int64 {
	return sm.maxUpload
}

// SaveUpload stores the content of r under a fresh UUID, keeping the
// lower-cased extension of originalName
func (sm *StorageManager) SaveUpload(ctx context.Context, r io.Reader, originalName string) (*Upload, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	id := uuid.NewString()
	filename := id + ext
	path := filepath.Join(sm.basePath, filename)

	w, err := sm.fs.Create(path)
	if err != nil {
		return nil, &StorageError{Operation: "save upload", Path: path, Err: err}
	}

	src := r
	if sm.maxUpload > 0 {
		// one extra byte tells an exact fit from an overflow
		src = io.LimitReader(r, sm.maxUpload+1)
	}

	size, err := io.Copy(w, src)
	closeErr := w.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && sm.maxUpload > 0 && size > sm.maxUpload {
		err = ErrTooLarge
	}
	if err != nil {
		_ = sm.fs.Remove(path)
		sm.logger.ErrorContext(ctx, "failed to save upload",
			"error", err,
			"path", path,
			"original_name", originalName,
			"operation", "save",
		)
		return nil, &StorageError{Operation: "save upload", Path: path, Err: err}
	}

	sm.logger.InfoContext(ctx, "upload saved",
		"id", id,
		"path", path,
		"original_name", originalName,
		"size", size,
	)

	return &Upload{
		ID:           id,
		Filename:     filename,
		Path:         path,
		Ext:          ext,
		OriginalName: originalName,
		Size:         size,
	}, nil
}

// Resolve returns the path of a stored file by its bare name. Names with
// directory components are rejected.
func (sm *StorageManager) Resolve(filename string) (string, error) {
	if filename == "" || filename == "." || filename == ".." ||
		filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) {
		return "", &StorageError{Operation: "resolve", Path: filename, Err: ErrInvalidName}
	}

	path := filepath.Join(sm.basePath, filename)
	info, err := sm.fs.Stat(path)
	if err != nil || info.IsDir() {
		return "", &StorageError{Operation: "resolve", Path: filename, Err: ErrNotFound}
	}
	return path, nil
}

// Open opens a stored file by its bare name
func (sm *StorageManager) Open(filename string) (io.ReadCloser, error) {
	path, err := sm.Resolve(filename)
	if err != nil {
		return nil, err
	}

	f, err := sm.fs.Open(path)
	if err != nil {
		return nil, &StorageError{Operation: "open", Path: path, Err: err}
	}
	return f, nil
}

// Cleanup removes every file older than ttl, or the default TTL when ttl is 0
func (sm *StorageManager) Cleanup(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl == 0 {
		ttl = sm.defaultTTL
	}

	entries, err := sm.fs.ReadDir(sm.basePath)
	if err != nil {
		sm.logger.ErrorContext(ctx, "failed to read directory for cleanup",
			"error", err,
			"dir", sm.basePath,
		)
		return 0, &StorageError{Operation: "cleanup", Path: sm.basePath, Err: err}
	}

	cutoff := time.Now().Add(-ttl)
	var removed int64
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(sm.basePath, entry.Name())
		remove := sm.fs.Remove
		if entry.IsDir() {
			remove = sm.fs.RemoveAll
		}
		if err := remove(path); err != nil {
			sm.logger.WarnContext(ctx, "failed to remove expired file",
				"error", err,
				"path", path,
			)
			continue
		}
		removed++
	}

	sm.logger.InfoContext(ctx, "storage cleanup completed",
		"removed", removed,
		"ttl", ttl,
	)

	return removed, nil
}

// Stats counts the stored files
func (sm *StorageManager) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	entries, err := sm.fs.ReadDir(sm.basePath)
	if err != nil {
		sm.logger.ErrorContext(ctx, "failed to read directory for stats",
			"error", err,
			"dir", sm.basePath,
		)
		return stats, &StorageError{Operation: "stats", Path: sm.basePath, Err: err}
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stats.Files++
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			stats.PDFs++
		}
		if info, err := entry.Info(); err == nil {
			stats.Bytes += info.Size()
		}
	}

	sm.logger.DebugContext(ctx, "storage stats retrieved",
		"files", stats.Files,
		"pdfs", stats.PDFs,
		"bytes", stats.Bytes,
	)

	return stats, nil
}

// ListDocuments groups stored files by upload ID, most recent first
func (sm *StorageManager) ListDocuments(ctx context.Context) ([]Document, error) {
	entries, err := sm.fs.ReadDir(sm.basePath)
	if err != nil {
		sm.logger.ErrorContext(ctx, "failed to read directory for listing",
			"error", err,
			"dir", sm.basePath,
		)
		return nil, &StorageError{Operation: "list documents", Path: sm.basePath, Err: err}
	}

	byID := make(map[string]*Document)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		id := strings.TrimSuffix(name, filepath.Ext(name))
		if _, err := uuid.Parse(id); err != nil {
			continue
		}

		doc, ok := byID[id]
		if !ok {
			doc = &Document{ID: id}
			byID[id] = doc
		}
		doc.Files = append(doc.Files, name)
		if strings.EqualFold(filepath.Ext(name), ".pdf") {
			doc.PDF = name
		}
		if info, err := entry.Info(); err == nil {
			doc.Size += info.Size()
			if info.ModTime().After(doc.Modified) {
				doc.Modified = info.ModTime()
			}
		}
	}

	docs := make([]Document, 0, len(byID))
	for _, doc := range byID {
		sort.Strings(doc.Files)
		docs = append(docs, *doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Modified.Equal(docs[j].Modified) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].Modified.After(docs[j].Modified)
	})

	sm.logger.DebugContext(ctx, "listed all documents",
		"count", len(docs),
	)

	return docs, nil
}

// IsAccessible checks if the storage directory exists
func (sm *StorageManager) IsAccessible() bool {
	info, err := sm.fs.Stat(sm.basePath)
	return err == nil && info.IsDir()
}
