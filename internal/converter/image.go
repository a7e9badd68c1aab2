package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

var disableConfigDir sync.Once

// ImageConverter embeds raster images into a single-page PDF in-process
type ImageConverter struct {
	logger *slog.Logger
}

// NewImageConverter creates an image converter
func NewImageConverter() *ImageConverter {
	disableConfigDir.Do(api.DisableConfigDir)
	return &ImageConverter{logger: slog.Default()}
}

// WithLogger sets a custom logger for the converter
func (c *ImageConverter) WithLogger(logger *slog.Logger) *ImageConverter {
	c.logger = logger
	return c
}

// Convert implements Converter
func (c *ImageConverter) Convert(ctx context.Context, req Request) (out string, err error) {
	out = Sibling(req.Path, ".pdf")

	// pdfcpu appends pages to an existing output file.
	if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", failure(StageImageEncode, out, err)
	}

	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = failure(StageImageEncode, req.Path, fmt.Errorf("image encoder panic: %v", r))
		}
	}()

	if err := api.ImportImagesFile([]string{req.Path}, out, pdfcpu.DefaultImportConfig(), nil); err != nil {
		_ = os.Remove(out)
		return "", failure(StageImageEncode, req.Path, err)
	}

	if err := verifyOutput(out); err != nil {
		return "", missingOutput(StageImageEncode, out, err.Error())
	}

	c.logger.DebugContext(ctx, "image embedded",
		"input", req.Path,
		"output", out,
	)
	return out, nil
}
