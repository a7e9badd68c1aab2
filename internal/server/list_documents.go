package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kfreiman/anypdf/internal/storage"
)

// ListDocumentsTool handles listing all stored documents
type ListDocumentsTool struct {
	storageManager *storage.StorageManager
	logger         *slog.Logger
}

// NewListDocumentsTool creates a new list documents tool
func NewListDocumentsTool(storageManager *storage.StorageManager) *ListDocumentsTool {
	return &ListDocumentsTool{
		storageManager: storageManager,
		logger:         slog.Default(),
	}
}

// WithLogger sets the logger for the tool
func (t *ListDocumentsTool) WithLogger(logger *slog.Logger) *ListDocumentsTool {
	t.logger = logger
	return t
}

// Call implements the MCP tool interface
func (t *ListDocumentsTool) Call(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		PDFOnly bool `json:"pdf_only"`
	}
	if err := decodeArguments(request, &args); err != nil {
		return nil, err
	}

	docs, err := t.storageManager.ListDocuments(ctx)
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to list documents",
			"error", err,
			"operation", "list_documents",
		)
		return errorResult(fmt.Sprintf("Error listing documents: %v", err)), nil
	}

	if args.PDFOnly {
		converted := docs[:0]
		for _, doc := range docs {
			if doc.PDF != "" {
				converted = append(converted, doc)
			}
		}
		docs = converted
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: formatDocuments(docs)},
		},
	}, nil
}

func formatDocuments(docs []storage.Document) string {
	if len(docs) == 0 {
		return "No documents found in storage."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Stored Documents (%d):\n\n", len(docs))
	for _, doc := range docs {
		fmt.Fprintf(&b, "- %s (%d bytes, modified %s)\n", doc.ID, doc.Size, doc.Modified.UTC().Format(time.RFC3339))
		if doc.PDF != "" {
			fmt.Fprintf(&b, "  PDF: /download/%s\n", doc.PDF)
		} else {
			b.WriteString("  PDF: none\n")
		}
		fmt.Fprintf(&b, "  Files: %s\n", strings.Join(doc.Files, ", "))
	}
	return b.String()
}
