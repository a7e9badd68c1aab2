package converter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kfreiman/anypdf/internal/datafile"
)

// BinaryDataConverter previews binary data formats. Reader failures never fail
// the conversion: the notice text is rendered in place of the preview.
type BinaryDataConverter struct {
	readers *datafile.Registry
	markup  *MarkupConverter
	logger  *slog.Logger
}

// NewBinaryDataConverter creates a converter over the given reader registry
func NewBinaryDataConverter(readers *datafile.Registry, markup *MarkupConverter) *BinaryDataConverter {
	return &BinaryDataConverter{
		readers: readers,
		markup:  markup,
		logger:  slog.Default(),
	}
}

// WithLogger sets a custom logger for the converter
func (c *BinaryDataConverter) WithLogger(logger *slog.Logger) *BinaryDataConverter {
	c.logger = logger
	return c
}

// Convert implements Converter
func (c *BinaryDataConverter) Convert(ctx context.Context, req Request) (string, error) {
	return c.markup.Render(ctx, c.preview(ctx, req).Markdown(), req.Path)
}

func (c *BinaryDataConverter) preview(ctx context.Context, req Request) datafile.Content {
	reader, ok := c.readers.Lookup(req.Ext)
	if !ok {
		return datafile.Notice(fmt.Sprintf("No parsing strategy for %s.", req.Ext))
	}

	content, err := readRecovered(ctx, reader, req.Path)
	if err != nil {
		c.logger.WarnContext(ctx, "data file could not be parsed",
			"path", req.Path,
			"ext", req.Ext,
			"error", err,
		)
		return datafile.Notice(fmt.Sprintf("Could not parse data file: %v", err))
	}
	return content
}

// readRecovered turns a panic inside a reader into an error; third-party
// decoders trust lengths found in the file.
func readRecovered(ctx context.Context, reader datafile.Reader, path string) (content datafile.Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			content = nil
			err = fmt.Errorf("reader panic: %v", r)
		}
	}()
	return reader.Read(ctx, path)
}
