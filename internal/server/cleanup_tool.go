package server

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kfreiman/anypdf/internal/storage"
)

// CleanupStorageTool handles storage cleanup
type CleanupStorageTool struct {
	storageManager *storage.StorageManager
	logger         *slog.Logger
}

// NewCleanupStorageTool creates a new cleanup storage tool
func NewCleanupStorageTool(storageManager *storage.StorageManager) *CleanupStorageTool {
	return &CleanupStorageTool{
		storageManager: storageManager,
		logger:         slog.Default(),
	}
}

// WithLogger sets the logger for the tool
func (t *CleanupStorageTool) WithLogger(logger *slog.Logger) *CleanupStorageTool {
	t.logger = logger
	return t
}

// Call implements the MCP tool interface
func (t *CleanupStorageTool) Call(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		TTL string `json:"ttl"` // duration string (e.g., "24h") or hours as number
	}
	if err := decodeArguments(request, &args); err != nil {
		return nil, err
	}

	ttl, err := ParseTTL(args.TTL)
	if err != nil {
		t.logger.ErrorContext(ctx, "invalid TTL format",
			"error", err,
			"ttl_input", args.TTL,
			"operation", "cleanup_storage",
		)
		return errorResult("Error: invalid TTL format. Use duration string (e.g., '24h') or hours as number"), nil
	}

	before, err := t.storageManager.Stats(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("Error getting storage stats: %v", err)), nil
	}

	removed, err := t.storageManager.Cleanup(ctx, ttl)
	if err != nil {
		t.logger.ErrorContext(ctx, "cleanup operation failed",
			"error", err,
			"ttl", ttl,
			"operation", "cleanup_storage",
		)
		return errorResult(fmt.Sprintf("Error during cleanup: %v", err)), nil
	}

	after, _ := t.storageManager.Stats(ctx)

	ttlDisplay := fmt.Sprintf("default (%s)", t.storageManager.DefaultTTL())
	if ttl > 0 {
		ttlDisplay = ttl.String()
	}

	t.logger.InfoContext(ctx, "storage cleanup completed via tool",
		"ttl", ttlDisplay,
		"removed", removed,
		"files_before", before.Files,
		"files_after", after.Files,
	)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(`Storage cleanup completed!

TTL used: %s
Files removed: %d

Storage statistics:
- Files before: %d, after: %d
- PDFs before: %d, after: %d`, ttlDisplay, removed, before.Files, after.Files, before.PDFs, after.PDFs)},
		},
	}, nil
}

// ParseTTL accepts a Go duration string or a whole number of hours. An empty
// string yields 0, which selects the storage default.
func ParseTTL(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if ttl, err := time.ParseDuration(s); err == nil {
		if ttl < 0 {
			return 0, fmt.Errorf("negative TTL %q", s)
		}
		return ttl, nil
	}
	hours, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid TTL %q", s)
	}
	if hours < 0 {
		return 0, fmt.Errorf("negative TTL %q", s)
	}
	return time.Duration(hours) * time.Hour, nil
}
