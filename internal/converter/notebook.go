package converter

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/kfreiman/anypdf/internal/process"
)

// NotebookConverter exports Jupyter notebooks with nbconvert
type NotebookConverter struct {
	invoker   process.Invoker
	bin       string
	outputDir string
	logger    *slog.Logger
}

// NewNotebookConverter creates an nbconvert-backed converter
func NewNotebookConverter(inv process.Invoker, cfg Config) *NotebookConverter {
	return &NotebookConverter{
		invoker:   inv,
		bin:       cfg.JupyterBin,
		outputDir: cfg.NotebookOutputDir,
		logger:    slog.Default(),
	}
}

// WithLogger sets a custom logger for the converter
func (c *NotebookConverter) WithLogger(logger *slog.Logger) *NotebookConverter {
	c.logger = logger
	return c
}

// Convert implements Converter. nbconvert may ignore the directory part of
// --output, so the PDF is looked for at the requested path first and then
// beside the input.
func (c *NotebookConverter) Convert(ctx context.Context, req Request) (string, error) {
	dir := c.outputDir
	if dir == "" {
		dir = filepath.Dir(req.Path)
	}
	requested := filepath.Join(dir, BaseName(req.Path)+".pdf")

	err := c.invoker.Invoke(ctx, process.Command{
		Name: c.bin,
		Args: []string{"nbconvert", "--to", "pdf", "--output", requested, req.Path},
	})
	if err != nil {
		return "", failure(StageNotebookExport, req.Path, err)
	}

	alternate := Sibling(req.Path, ".pdf")
	out, ok := firstUsable(requested, alternate)
	if !ok {
		return "", missingOutput(StageNotebookExport, requested, "nbconvert did not produce the expected PDF")
	}
	if out != requested {
		c.logger.InfoContext(ctx, "nbconvert wrote to the alternate location",
			"requested", requested,
			"actual", out,
		)
	}
	return out, nil
}
