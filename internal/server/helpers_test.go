package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kfreiman/anypdf/internal/ingest"
	"github.com/kfreiman/anypdf/internal/storage"
)

// siblingPDF is an ingest.Converter that writes <base>.pdf next to the input
type siblingPDF struct {
	err error
}

func (c siblingPDF) Convert(_ context.Context, path, _ string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".pdf"
	if err := os.WriteFile(out, []byte("%PDF-1.4\n%%EOF\n"), 0o600); err != nil {
		return "", err
	}
	return out, nil
}

type fakeIngestor struct {
	result *ingest.Result
	err    error
	names  []string
	paths  []string
}

func (f *fakeIngestor) Ingest(_ context.Context, r io.Reader, originalName string) (*ingest.Result, error) {
	f.names = append(f.names, originalName)
	_, _ = io.Copy(io.Discard, r)
	return f.result, f.err
}

func (f *fakeIngestor) IngestFile(_ context.Context, path string) (*ingest.Result, error) {
	f.paths = append(f.paths, path)
	return f.result, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(dir string) Config {
	return Config{
		StoragePath:    dir,
		StorageTTL:     "24h",
		Port:           8080,
		MaxUploadBytes: 1 << 20,
		CORSOrigins:    []string{"*"},
		InputRoots:     []string{"."},
	}
}

func newStorage(t *testing.T, cfg Config) *storage.StorageManager {
	t.Helper()
	sm, err := storage.NewStorageManager(storage.StorageConfig{
		BasePath:       cfg.StoragePath,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         testLogger(),
	})
	require.NoError(t, err)
	return sm
}

// newTestServer wires a server over a temp storage directory. A nil
// ingestor gets a real one with a converter that always succeeds.
func newTestServer(t *testing.T, ingestor ingest.Ingestor) (*Server, *storage.StorageManager) {
	t.Helper()
	cfg := testConfig(t.TempDir())
	sm := newStorage(t, cfg)
	if ingestor == nil {
		ingestor = ingest.NewIngestor(sm, siblingPDF{}).WithLogger(testLogger())
	}
	return newServer(cfg, sm, ingestor, testLogger()), sm
}

// multipartBody builds a form with one file part; an empty field name
// produces a form without any file part.
func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("comment", "no file here"))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}
