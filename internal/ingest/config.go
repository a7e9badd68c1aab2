package ingest

import (
	"log/slog"

	"github.com/kfreiman/anypdf/internal/storage"
)

// IngestorConfig holds configuration for the document ingestor
type IngestorConfig struct {
	StorageManager *storage.StorageManager
	Converter      Converter
	Logger         *slog.Logger
	// AllowedRoots confines IngestFile to files under these directories; empty allows any path
	AllowedRoots []string
}

// NewIngestorWithConfig creates a new document ingestor with configuration
func NewIngestorWithConfig(config IngestorConfig) *DocumentIngestor {
	ingestor := &DocumentIngestor{
		storageManager: config.StorageManager,
		converter:      config.Converter,
		logger:         config.Logger,
		allowedRoots:   config.AllowedRoots,
	}

	if ingestor.logger == nil {
		ingestor.logger = slog.Default()
	}

	return ingestor
}
