package ingest

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kfreiman/anypdf/internal/converter"
	"github.com/kfreiman/anypdf/internal/storage"
)

type fakeConverter struct {
	calls [][2]string
	fn    func(path, ext string) (string, error)
}

func (f *fakeConverter) Convert(_ context.Context, path, ext string) (string, error) {
	f.calls = append(f.calls, [2]string{path, ext})
	return f.fn(path, ext)
}

// writesSibling pretends to convert by writing <base>.pdf next to the input
func writesSibling(path, _ string) (string, error) {
	out := converter.Sibling(path, ".pdf")
	return out, os.WriteFile(out, []byte("%PDF-1.4"), 0o600)
}

func newStorage(t *testing.T) *storage.StorageManager {
	t.Helper()
	sm, err := storage.NewStorageManager(storage.StorageConfig{BasePath: t.TempDir()})
	require.NoError(t, err)
	return sm
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		shouldErr bool
	}{
		{"valid relative path", "test.md", false},
		{"valid path with subdirectory", "docs/test.md", false},
		{"dots inside a name", "notes..v2.md", false},
		{"path traversal attempt", "../../../etc/passwd", true},
		{"windows traversal", `..\secret.docx`, true},
		{"path with null byte", "test.md\x00malicious", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePath(tt.path)
			if tt.shouldErr {
				var secErr *SecurityError
				assert.ErrorAs(t, err, &secErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	var valErr *ValidationError
	assert.ErrorAs(t, validatePath("  "), &valErr)
}

func TestDocumentIngestor_Ingest(t *testing.T) {
	t.Run("stores then converts", func(t *testing.T) {
		sm := newStorage(t)
		conv := &fakeConverter{fn: writesSibling}

		res, err := NewIngestor(sm, conv).Ingest(context.Background(), strings.NewReader("# hi"), "Notes.MD")
		require.NoError(t, err)

		require.Len(t, conv.calls, 1)
		assert.Equal(t, res.Upload.Path, conv.calls[0][0])
		assert.Equal(t, ".md", conv.calls[0][1])
		assert.Equal(t, res.Upload.ID+".pdf", res.PDFFilename)
		assert.Equal(t, filepath.Join(sm.BasePath(), res.PDFFilename), res.PDFPath)

		resolved, err := sm.Resolve(res.PDFFilename)
		require.NoError(t, err)
		assert.Equal(t, res.PDFPath, resolved)
	})

	t.Run("empty name", func(t *testing.T) {
		conv := &fakeConverter{fn: writesSibling}

		_, err := NewIngestor(newStorage(t), conv).Ingest(context.Background(), strings.NewReader("x"), "")

		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "validation failed for file: no file selected", valErr.Error())
		assert.Empty(t, conv.calls)
	})

	t.Run("conversion error is returned as is", func(t *testing.T) {
		convErr := &converter.ConversionError{Stage: converter.StageOfficeExport, Diagnostic: "boom"}
		conv := &fakeConverter{fn: func(string, string) (string, error) { return "", convErr }}

		_, err := NewIngestor(newStorage(t), conv).Ingest(context.Background(), strings.NewReader("x"), "a.docx")
		assert.ErrorIs(t, err, convErr)
	})

	t.Run("missing output", func(t *testing.T) {
		conv := &fakeConverter{fn: func(path, _ string) (string, error) {
			return converter.Sibling(path, ".pdf"), nil
		}}

		_, err := NewIngestor(newStorage(t), conv).Ingest(context.Background(), strings.NewReader("x"), "a.txt")
		assert.ErrorIs(t, err, ErrNoPDF)
	})

	t.Run("empty path from converter", func(t *testing.T) {
		conv := &fakeConverter{fn: func(string, string) (string, error) { return "", nil }}

		_, err := NewIngestor(newStorage(t), conv).Ingest(context.Background(), strings.NewReader("x"), "a.txt")
		assert.ErrorIs(t, err, ErrNoPDF)
	})
}

func TestDocumentIngestor_IngestFile(t *testing.T) {
	t.Run("copies the file into storage", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "report.csv")
		require.NoError(t, os.WriteFile(src, []byte("a,b\n"), 0o600))
		sm := newStorage(t)

		res, err := NewIngestor(sm, &fakeConverter{fn: writesSibling}).IngestFile(context.Background(), src)
		require.NoError(t, err)

		assert.Equal(t, "report.csv", res.Upload.OriginalName)
		assert.Equal(t, sm.BasePath(), filepath.Dir(res.Upload.Path))
		data, err := os.ReadFile(res.Upload.Path)
		require.NoError(t, err)
		assert.Equal(t, "a,b\n", string(data))

		_, err = os.Stat(src)
		assert.NoError(t, err, "source is left alone")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewIngestor(newStorage(t), &fakeConverter{fn: writesSibling}).IngestFile(context.Background(), filepath.Join(t.TempDir(), "none.docx"))

		var valErr *ValidationError
		assert.ErrorAs(t, err, &valErr)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := NewIngestor(newStorage(t), &fakeConverter{fn: writesSibling}).IngestFile(context.Background(), t.TempDir())

		var valErr *ValidationError
		assert.ErrorAs(t, err, &valErr)
	})

	t.Run("traversal", func(t *testing.T) {
		_, err := NewIngestor(newStorage(t), &fakeConverter{fn: writesSibling}).IngestFile(context.Background(), "../secret.docx")

		var secErr *SecurityError
		assert.ErrorAs(t, err, &secErr)
	})
}

func TestDocumentIngestor_IngestFile_AllowedRoots(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "inbox")
	sibling := filepath.Join(base, "inbox-private")
	outside := filepath.Join(base, "elsewhere")
	for _, dir := range []string{filepath.Join(root, "nested"), sibling, outside} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}

	inside := filepath.Join(root, "nested", "notes.md")
	secret := filepath.Join(outside, "secret.txt")
	lookalike := filepath.Join(sibling, "keys.txt")
	for _, f := range []string{inside, secret, lookalike} {
		require.NoError(t, os.WriteFile(f, []byte("x"), 0o600))
	}
	link := filepath.Join(root, "link.txt")
	require.NoError(t, os.Symlink(secret, link))

	newConfined := func() (*DocumentIngestor, *fakeConverter) {
		conv := &fakeConverter{fn: writesSibling}
		return NewIngestor(newStorage(t), conv).WithAllowedRoots(root), conv
	}

	t.Run("file under the root", func(t *testing.T) {
		ing, conv := newConfined()
		res, err := ing.IngestFile(context.Background(), inside)
		require.NoError(t, err)
		assert.Equal(t, "notes.md", res.Upload.OriginalName)
		assert.Len(t, conv.calls, 1)
	})

	rejected := []struct {
		name string
		path string
	}{
		{name: "absolute path outside", path: secret},
		{name: "directory sharing the root's prefix", path: lookalike},
		{name: "symlink leaving the root", path: link},
		{name: "system file", path: "/etc/hostname"},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := os.Stat(tt.path); err != nil {
				t.Skipf("%s not present", tt.path)
			}
			ing, conv := newConfined()

			_, err := ing.IngestFile(context.Background(), tt.path)

			var secErr *SecurityError
			require.ErrorAs(t, err, &secErr)
			assert.Equal(t, "outside_root", secErr.Type)
			assert.Empty(t, conv.calls)
		})
	}

	t.Run("missing file under the root", func(t *testing.T) {
		ing, _ := newConfined()
		_, err := ing.IngestFile(context.Background(), filepath.Join(root, "gone.docx"))

		var valErr *ValidationError
		assert.ErrorAs(t, err, &valErr)
	})

	t.Run("config sets the roots", func(t *testing.T) {
		ing := NewIngestorWithConfig(IngestorConfig{
			StorageManager: newStorage(t),
			Converter:      &fakeConverter{fn: writesSibling},
			AllowedRoots:   []string{root},
		})

		_, err := ing.IngestFile(context.Background(), secret)
		var secErr *SecurityError
		assert.ErrorAs(t, err, &secErr)
	})
}

func TestDocumentIngestor_WithDispatcher(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))

	sm := newStorage(t)
	d := converter.NewDispatcher(converter.DispatcherConfig{Config: converter.DefaultConfig()})
	ing := NewIngestorWithConfig(IngestorConfig{StorageManager: sm, Converter: d})

	first, err := ing.Ingest(context.Background(), bytes.NewReader(buf.Bytes()), "pixel.png")
	require.NoError(t, err)
	second, err := ing.Ingest(context.Background(), bytes.NewReader(buf.Bytes()), "pixel.png")
	require.NoError(t, err)

	assert.NotEqual(t, first.PDFPath, second.PDFPath)
	data, err := os.ReadFile(first.PDFPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestNewIngestorWithConfig(t *testing.T) {
	ing := NewIngestorWithConfig(IngestorConfig{})
	assert.NotNil(t, ing.logger)
}
