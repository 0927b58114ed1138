package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Synopsis/internal/core"
	"github.com/markdave123-py/Synopsis/internal/logger"
	"github.com/markdave123-py/Synopsis/internal/models"
	"github.com/markdave123-py/Synopsis/internal/observability"
)

// NewDocumentIngestor wires the pipeline stages together. A nil chunker means
// the 2000/200 default.
func NewDocumentIngestor(
	stores core.FileStoreProvider,
	extractor core.DocumentExtractor,
	chunker *Chunker,
	summarizer core.Summarizer,
	cfg IngestConfig,
	log *logger.Logger,
	metrics *observability.Metrics,
) *DocumentIngestor {
	if chunker == nil {
		chunker = DefaultChunker()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DocumentIngestor{
		stores:     stores,
		extractor:  extractor,
		chunker:    chunker,
		summarizer: summarizer,
		cfg:        cfg.withDefaults(),
		log:        log.With("component", "ingestor"),
		metrics:    metrics,
	}
}

// ListFiles lists a folder through the caller's File Store.
func (i *DocumentIngestor) ListFiles(ctx context.Context, folder string) ([]models.FileMeta, error) {
	store, err := i.stores.ForRequest(ctx)
	if err != nil {
		return nil, err
	}
	return store.ListFiles(ctx, folder)
}

// SummarizeDocument runs one in-memory document through extract -> chunk ->
// summarize. Every failure propagates to the caller.
func (i *DocumentIngestor) SummarizeDocument(ctx context.Context, doc models.RawDocument) (summary string, err error) {
	ctx, span := observability.StartSpan(ctx, "ingestor.summarize_document",
		attribute.String("document.id", doc.ID),
		attribute.String("document.content_type", doc.ContentType),
		attribute.Int("document.bytes", len(doc.Data)),
	)
	defer func() { observability.EndSpan(span, err) }()

	text, err := i.extractor.Extract(ctx, doc.Data, doc.ContentType)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", &core.EmptyContentError{}
	}

	chunks := i.chunker.Split(text)
	i.metrics.ObserveChunks(len(chunks))
	span.SetAttributes(attribute.Int("document.chunks", len(chunks)))

	return i.summarizer.Summarize(ctx, chunks)
}

// SummarizeFile fetches one file's metadata and bytes, then summarizes it.
// Unlike SummarizeAll it reports unsupported and empty files as errors.
func (i *DocumentIngestor) SummarizeFile(ctx context.Context, fileID string) (*models.FileMeta, string, error) {
	store, err := i.stores.ForRequest(ctx)
	if err != nil {
		return nil, "", err
	}

	meta, err := store.GetFile(ctx, fileID)
	if err != nil {
		return nil, "", err
	}
	ct := ResolveContentType(meta.MimeType, meta.Name)
	if !IsSupported(ct) {
		return meta, "", &core.UnsupportedFormatError{ContentType: meta.MimeType}
	}

	summary, err := i.processOne(ctx, store, *meta, ct)
	return meta, summary, err
}

// SummarizeAll summarizes every supported file. Unsupported types and files
// with no extractable text are skipped silently; any other failure becomes a
// result with Err set. The batch never aborts and keeps the input order.
func (i *DocumentIngestor) SummarizeAll(ctx context.Context, files []models.FileMeta) []models.DocumentResult {
	store, storeErr := i.stores.ForRequest(ctx)

	slots := make([]*models.DocumentResult, len(files))

	// No WithContext: one document failing must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(i.cfg.Concurrency)

	for idx, file := range files {
		ct := ResolveContentType(file.MimeType, file.Name)
		if !IsSupported(ct) {
			i.metrics.ObserveDocument(observability.DocUnsupported)
			i.log.Debug("skipping unsupported file", "file", file.Name, "mime_type", file.MimeType)
			continue
		}
		if storeErr != nil {
			i.metrics.ObserveDocument(observability.DocFailed)
			slots[idx] = &models.DocumentResult{File: file, Err: storeErr}
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				slots[idx] = &models.DocumentResult{File: file, Err: err}
				return nil
			}

			summary, err := i.processOne(ctx, store, file, ct)
			switch {
			case err == nil:
				i.metrics.ObserveDocument(observability.DocSummarized)
				slots[idx] = &models.DocumentResult{File: file, Summary: summary}
			case errors.Is(err, core.ErrEmptyContent):
				i.metrics.ObserveDocument(observability.DocEmpty)
				i.log.Info("skipping file with no extractable content", "file", file.Name)
			default:
				i.metrics.ObserveDocument(observability.DocFailed)
				i.log.Error("error processing file", "file", file.Name, "file_id", file.ID, "error", err)
				slots[idx] = &models.DocumentResult{File: file, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.DocumentResult, 0, len(files))
	for _, r := range slots {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// SummarizeFolder lists the folder and summarizes what it finds. Only the
// listing can fail the whole call.
func (i *DocumentIngestor) SummarizeFolder(ctx context.Context, folder string) ([]models.DocumentResult, error) {
	files, err := i.ListFiles(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("list folder: %w", err)
	}
	return i.SummarizeAll(ctx, files), nil
}

// processOne downloads and summarizes a single file under the per-document timeout.
func (i *DocumentIngestor) processOne(ctx context.Context, store core.FileStore, file models.FileMeta, contentType string) (string, error) {
	proctx, cancel := context.WithTimeout(ctx, i.cfg.DocumentTimeout)
	defer cancel()

	data, err := store.Download(proctx, file.ID)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", file.Name, err)
	}

	return i.SummarizeDocument(proctx, models.RawDocument{
		ID:          file.ID,
		Name:        file.Name,
		ContentType: contentType,
		Data:        data,
	})
}
