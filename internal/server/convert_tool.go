package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kfreiman/anypdf/internal/converter"
	"github.com/kfreiman/anypdf/internal/ingest"
)

// ConvertDocumentTool copies a local file into storage and converts it
type ConvertDocumentTool struct {
	ingestor ingest.Ingestor
	logger   *slog.Logger
}

// NewConvertDocumentTool creates a new convert document tool
func NewConvertDocumentTool(ingestor ingest.Ingestor) *ConvertDocumentTool {
	return &ConvertDocumentTool{
		ingestor: ingestor,
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger for the tool
func (t *ConvertDocumentTool) WithLogger(logger *slog.Logger) *ConvertDocumentTool {
	t.logger = logger
	return t
}

// Call implements the MCP tool interface
func (t *ConvertDocumentTool) Call(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Path string `json:"path"`
	}
	if err := decodeArguments(request, &args); err != nil {
		return nil, err
	}

	if args.Path == "" {
		return errorResult("Error: 'path' parameter is required"), nil
	}

	result, err := t.ingestor.IngestFile(ctx, args.Path)
	if err != nil {
		t.logger.ErrorContext(ctx, "convert_document failed",
			"error", err,
			"path", args.Path,
			"stage", converter.StageOf(err),
		)
		return errorResult(describeFailure(err)), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(`Document converted successfully!

Original filename: %s
Stored as: %s
PDF: %s
Download: /download/%s
Duration: %s`,
				result.Upload.OriginalName,
				result.Upload.Filename,
				result.PDFPath,
				url.PathEscape(result.PDFFilename),
				result.Duration.Round(time.Millisecond),
			)},
		},
	}, nil
}

func describeFailure(err error) string {
	var convErr *converter.ConversionError
	if errors.As(err, &convErr) {
		return fmt.Sprintf("Error: %v\nStage: %s", err, convErr.Stage)
	}
	if errors.Is(err, ingest.ErrNoPDF) {
		return "Error: " + msgNoPDF
	}
	return fmt.Sprintf("Error: %v", err)
}

func decodeArguments(request *mcp.CallToolRequest, v any) error {
	if request == nil || request.Params == nil || len(request.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(request.Params.Arguments, v); err != nil {
		return &ingest.ValidationError{
			Field:  "arguments",
			Reason: fmt.Sprintf("invalid JSON format: %v", err),
		}
	}
	return nil
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
