package converter

import (
	"context"
	"log/slog"
	"os"

	"github.com/kfreiman/anypdf/internal/process"
)

// MarkupConverter renders text and markup files to PDF through pandoc
type MarkupConverter struct {
	invoker        process.Invoker
	bin            string
	engine         string
	highlightStyle string
	logger         *slog.Logger
}

// NewMarkupConverter creates a pandoc-backed renderer
func NewMarkupConverter(inv process.Invoker, cfg Config) *MarkupConverter {
	return &MarkupConverter{
		invoker:        inv,
		bin:            cfg.PandocBin,
		engine:         cfg.PDFEngine,
		highlightStyle: cfg.HighlightStyle,
		logger:         slog.Default(),
	}
}

// WithLogger sets a custom logger for the converter
func (c *MarkupConverter) WithLogger(logger *slog.Logger) *MarkupConverter {
	c.logger = logger
	return c
}

// Render writes text to <base>.md beside ref and renders it to <base>.pdf
func (c *MarkupConverter) Render(ctx context.Context, text, ref string) (string, error) {
	mdPath := Sibling(ref, ".md")
	// #nosec G306 - intermediate is served to nobody
	if err := os.WriteFile(mdPath, []byte(text), 0o644); err != nil {
		return "", failure(StageMarkupRender, mdPath, err)
	}

	c.logger.DebugContext(ctx, "markdown intermediate written",
		"path", mdPath,
		"bytes", len(text),
	)

	return c.pandoc(ctx, mdPath, Sibling(ref, ".pdf"))
}

// RenderFile hands input to pandoc as-is; pandoc infers the reader from the extension
func (c *MarkupConverter) RenderFile(ctx context.Context, input string) (string, error) {
	return c.pandoc(ctx, input, Sibling(input, ".pdf"))
}

func (c *MarkupConverter) pandoc(ctx context.Context, input, output string) (string, error) {
	err := c.invoker.Invoke(ctx, process.Command{
		Name: c.bin,
		Args: []string{
			input,
			"-o", output,
			"--pdf-engine=" + c.engine,
			"--highlight-style=" + c.highlightStyle,
		},
	})
	if err != nil {
		return "", failure(StageMarkupRender, input, err)
	}

	if err := verifyOutput(output); err != nil {
		return "", missingOutput(StageMarkupRender, output, "pandoc did not produce the expected PDF")
	}
	return output, nil
}
