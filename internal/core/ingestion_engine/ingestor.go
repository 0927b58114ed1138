package ingestion_engine

import (
	"context"

	"github.com/markdave123-py/Synopsis/internal/models"
)

// Ingestor is what the HTTP layer needs from the pipeline.
type Ingestor interface {
	ListFiles(ctx context.Context, folder string) ([]models.FileMeta, error)
	SummarizeDocument(ctx context.Context, doc models.RawDocument) (string, error)
	SummarizeFile(ctx context.Context, fileID string) (*models.FileMeta, string, error)
	SummarizeAll(ctx context.Context, files []models.FileMeta) []models.DocumentResult
	SummarizeFolder(ctx context.Context, folder string) ([]models.DocumentResult, error)
}

var _ Ingestor = (*DocumentIngestor)(nil)
