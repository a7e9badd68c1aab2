// Package server exposes the conversion pipeline over HTTP: an upload form,
// download links, health checks and an MCP endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/cors"

	"github.com/kfreiman/anypdf/internal/converter"
	"github.com/kfreiman/anypdf/internal/ingest"
	"github.com/kfreiman/anypdf/internal/storage"
)

const (
	serviceName    = "anypdf"
	serviceVersion = "1.0.0"
)

// Server encapsulates the HTTP server with all its dependencies
type Server struct {
	mcpServer      *mcp.Server
	storageManager *storage.StorageManager
	ingestor       ingest.Ingestor
	logger         *slog.Logger
	config         Config
}

// NewServer creates a new server with the given configuration
func NewServer(cfg Config, logger *slog.Logger) (*Server, error) {
	ttl, err := cfg.TTL()
	if err != nil {
		logger.ErrorContext(context.Background(), "failed to parse storage TTL",
			"error", err,
			"ttl", cfg.StorageTTL,
		)
		return nil, fmt.Errorf("parse TTL: %w", err)
	}

	storageManager, err := storage.NewStorageManager(storage.StorageConfig{
		BasePath:       cfg.StoragePath,
		DefaultTTL:     ttl,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
	})
	if err != nil {
		logger.ErrorContext(context.Background(), "failed to initialize storage manager",
			"error", err,
		)
		return nil, fmt.Errorf("storage init: %w", err)
	}

	dispatcher := converter.NewDispatcher(converter.DispatcherConfig{
		Config: cfg.Converter,
		Logger: logger,
	})

	ingestor := ingest.NewIngestorWithConfig(ingest.IngestorConfig{
		StorageManager: storageManager,
		Converter:      dispatcher,
		Logger:         logger,
		AllowedRoots:   cfg.InputRoots,
	})

	return newServer(cfg, storageManager, ingestor, logger), nil
}

func newServer(cfg Config, sm *storage.StorageManager, ingestor ingest.Ingestor, logger *slog.Logger) *Server {
	s := &Server{
		storageManager: sm,
		ingestor:       ingestor,
		logger:         logger,
		config:         cfg,
	}

	impl := &mcp.Implementation{
		Name:    "AnyPDFServer",
		Version: serviceVersion,
	}

	s.mcpServer = mcp.NewServer(impl, &mcp.ServerOptions{
		Instructions: ServerInstructions,
	})

	s.registerTools()

	return s
}

// registerTools registers all tool handlers
func (s *Server) registerTools() {
	convertTool := NewConvertDocumentTool(s.ingestor).WithLogger(s.logger)
	s.mcpServer.AddTool(ToolDefinitions["convert_document"], convertTool.Call)

	cleanupTool := NewCleanupStorageTool(s.storageManager).WithLogger(s.logger)
	s.mcpServer.AddTool(ToolDefinitions["cleanup_storage"], cleanupTool.Call)

	listDocumentsTool := NewListDocumentsTool(s.storageManager).WithLogger(s.logger)
	s.mcpServer.AddTool(ToolDefinitions["list_documents"], listDocumentsTool.Call)
}

// Handler returns the routed handler wrapped in recovery and CORS
func (s *Server) Handler() http.Handler {
	mcpHandler := mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return s.mcpServer
	}, &mcp.StreamableHTTPOptions{
		JSONResponse: true,
	})

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpHandler)
	mux.HandleFunc("GET /health/live", s.LivenessHandler)
	mux.HandleFunc("GET /health/ready", s.ReadinessHandler)
	mux.HandleFunc("GET /{$}", s.uploadFormHandler)
	mux.HandleFunc("POST /{$}", s.uploadHandler)
	mux.HandleFunc("GET /converted/{filename}", s.convertedHandler)
	mux.HandleFunc("GET /download/{filename}", s.downloadHandler)

	var handler http.Handler = mux
	handler = Recovery(s.logger)(handler)

	origins := s.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Mcp-Session-Id"},
	}).Handler(handler)

	return handler
}

// ListenAndServe starts the HTTP server and begins handling requests
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.InfoContext(context.Background(), "starting HTTP server",
		"port", s.config.Port,
		"endpoints", []string{"/", "/converted/{filename}", "/download/{filename}", "/mcp", "/health/live", "/health/ready"},
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
