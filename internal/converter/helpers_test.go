package converter

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/kfreiman/anypdf/internal/process"
)

// fakeInvoker records commands and delegates to run, if set
type fakeInvoker struct {
	mu    sync.Mutex
	calls []process.Command
	run   func(cmd process.Command) error
}

func (f *fakeInvoker) Invoke(_ context.Context, cmd process.Command) error {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	if f.run == nil {
		return nil
	}
	return f.run(cmd)
}

func (f *fakeInvoker) commands() []process.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]process.Command(nil), f.calls...)
}

// fakePDF is the smallest one-page document the PDF reader accepts
var fakePDF = buildPDF(1)

// buildPDF lays out a catalog, a page tree and pages blank pages with a
// cross-reference table whose offsets match the written objects
func buildPDF(pages int) string {
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages),
	}
	for range kids {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// pandocWritesOutput behaves like a successful pandoc run
func pandocWritesOutput(cmd process.Command) error {
	for i, a := range cmd.Args {
		if a == "-o" && i+1 < len(cmd.Args) {
			return os.WriteFile(cmd.Args[i+1], []byte(fakePDF), 0o600)
		}
	}
	return nil
}

func testConfig() Config {
	return DefaultConfig()
}

func writePNG(t *testing.T, path string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for x := 0; x < 16; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 32), B: 128, A: 255})
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// countTableRows returns the number of body rows of every GFM table in md
func countTableRows(t *testing.T, md string) (headers, rows int) {
	t.Helper()

	doc := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader([]byte(md)))
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case extast.KindTableHeader:
			headers++
		case extast.KindTableRow:
			rows++
		}
		return ast.WalkContinue, nil
	})
	require.NoError(t, err)
	return headers, rows
}
