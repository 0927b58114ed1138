package ingestion_engine

import (
	"time"

	"github.com/markdave123-py/Synopsis/internal/core"
	"github.com/markdave123-py/Synopsis/internal/logger"
	"github.com/markdave123-py/Synopsis/internal/observability"
)

// IngestConfig tunes the batch pipeline.
//
// Concurrency:     documents processed at once by SummarizeAll (default 2).
// DocumentTimeout: upper bound on one document's download + summarize (default 5m).
type IngestConfig struct {
	Concurrency     int
	DocumentTimeout time.Duration
}

func (c IngestConfig) withDefaults() IngestConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
	if c.DocumentTimeout <= 0 {
		c.DocumentTimeout = 5 * time.Minute
	}
	return c
}

// DocumentIngestor runs documents through extract -> chunk -> summarize.
//
// stores:     hands out the File Store bound to the caller's credentials.
// extractor:  bytes + content type -> text.
// chunker:    text -> bounded overlapping chunks.
// summarizer: chunks -> one summary.
type DocumentIngestor struct {
	stores     core.FileStoreProvider
	extractor  core.DocumentExtractor
	chunker    *Chunker
	summarizer core.Summarizer
	cfg        IngestConfig
	log        *logger.Logger
	metrics    *observability.Metrics
}
