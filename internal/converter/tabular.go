package converter

import (
	"context"

	"github.com/kfreiman/anypdf/internal/datafile"
)

const tabularTitle = "# CSV/TSV Preview (first 50 rows)\n\n"

// TabularConverter renders a bounded preview of delimited text. Unlike binary
// data, a parse failure here fails the conversion.
type TabularConverter struct {
	markup *MarkupConverter
}

// NewTabularConverter creates a tabular converter rendering through markup
func NewTabularConverter(markup *MarkupConverter) *TabularConverter {
	return &TabularConverter{markup: markup}
}

// Convert implements Converter
func (c *TabularConverter) Convert(ctx context.Context, req Request) (string, error) {
	reader := datafile.DelimitedReader{
		Comma: datafile.Delimiter(req.Ext),
		Limit: datafile.PreviewRows,
	}

	frame, err := reader.ReadFile(req.Path)
	if err != nil {
		return "", failure(StageTabularParse, req.Path, err)
	}

	return c.markup.Render(ctx, tabularTitle+datafile.RenderTable(frame.Columns, frame.Rows), req.Path)
}
