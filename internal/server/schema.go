package server

import "github.com/modelcontextprotocol/go-sdk/mcp"

// ServerInstructions contains the MCP server instructions for clients
const ServerInstructions = `AnyPDF Server - convert any file to PDF

This server converts documents of arbitrary type into a PDF and keeps the
results in its storage directory until they expire.

## Transport

This server uses streamable HTTP transport only. Connect via:
- POST /mcp  - Streamable HTTP transport

## Tools

### convert_document
Copy a local file into storage and convert it to PDF.
Parameters:
- path: Path to a file readable by the server

Example: {"path": "./report.docx"}

Images are embedded directly, office files go through LibreOffice, notebooks
through nbconvert, CSV/TSV and binary data files become markdown previews,
and everything else is rendered with pandoc.

### list_documents
List stored uploads and their PDFs, most recent first.
Parameters:
- pdf_only: Optional - only list uploads that produced a PDF

### cleanup_storage
Remove stored files older than the TTL.
Parameters:
- ttl: Time to live (e.g., "24h" or 24 for hours). Uses the server default if empty.

Example: {"ttl": "48h"}
`

// ToolDefinitions contains the MCP tool definitions
var ToolDefinitions = map[string]*mcp.Tool{
	"convert_document": {
		Name:        "convert_document",
		Description: "Convert a local file to PDF. Returns the stored PDF name and a download path.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path of the file to convert",
				},
			},
			"required": []string{"path"},
		},
	},
	"list_documents": {
		Name:        "list_documents",
		Description: "List stored uploads grouped by ID with their PDF, size and modification time.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"pdf_only": map[string]interface{}{
					"type":        "boolean",
					"description": "Only list uploads that produced a PDF",
				},
			},
		},
	},
	"cleanup_storage": {
		Name:        "cleanup_storage",
		Description: "Remove uploads and PDFs older than the specified TTL from storage.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"ttl": map[string]interface{}{
					"type":        "string",
					"description": "Time to live (e.g., '24h', or hours as number). Uses default TTL if not specified.",
				},
			},
		},
	},
}
