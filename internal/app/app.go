// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/markdave123-py/Synopsis/internal/auth"
	"github.com/markdave123-py/Synopsis/internal/config"
	"github.com/markdave123-py/Synopsis/internal/core"
	db "github.com/markdave123-py/Synopsis/internal/core/database"
	"github.com/markdave123-py/Synopsis/internal/core/ingestion_engine"
	"github.com/markdave123-py/Synopsis/internal/core/llm"
	objectclient "github.com/markdave123-py/Synopsis/internal/core/object-client"
	"github.com/markdave123-py/Synopsis/internal/core/summarizer"
	"github.com/markdave123-py/Synopsis/internal/logger"
	"github.com/markdave123-py/Synopsis/internal/observability"
)

const sessionPruneInterval = time.Hour

// sessionBackend is what the app keeps open for sessions.
type sessionBackend interface {
	auth.Store
	Close() error
}

type App struct {
	DocProcessor ingestion_engine.Ingestor
	Sessions     *auth.Sessions
	Metrics      *observability.Metrics
	Server       *Server

	log            *logger.Logger
	sessionStore   sessionBackend
	closeGenerator func() error
	stopTracing    func(context.Context) error
	stopPrune      context.CancelFunc
}

func NewApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a := &App{log: log, Metrics: observability.NewMetrics()}

	stopTracing, err := observability.InitTracing(appCtx, "synopsis", cfg.OtelTraces)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	a.stopTracing = stopTracing

	gen, closeGen, err := llm.New(appCtx, llm.Options{
		Provider:          cfg.LLMProvider,
		Model:             cfg.GenModel,
		BaseURL:           cfg.LLMBaseURL,
		GeminiKey:         cfg.GeminiAPIKey,
		OpenAIKey:         cfg.OpenAIAPIKey,
		AnthropicKey:      cfg.AnthropicAPIKey,
		RequestsPerMinute: cfg.LLMRPM,
		MaxInFlight:       cfg.LLMMaxInFlight,
		Retry:             llm.RetryConfig{MaxAttempts: cfg.LLMRetries},
	}, log)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("couldn't initialize the text generator: %w", err)
	}
	a.closeGenerator = closeGen
	log.Info("text generator ready", "provider", cfg.LLMProvider)

	chunker, err := ingestion_engine.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	log.Info("chunker ready", "chunk_size", chunker.MaxSize(), "chunk_overlap", chunker.Overlap())

	summ := summarizer.New(gen, summarizer.Config{
		SingleMaxTokens: cfg.SingleMaxTokens,
		MapMaxTokens:    cfg.MapMaxTokens,
		ReduceMaxTokens: cfg.ReduceMaxTokens,
		MapConcurrency:  cfg.MapConcurrency,
	}, log, a.Metrics)

	var (
		stores core.FileStoreProvider
		oauth  *auth.OAuth
	)
	switch cfg.FileStore {
	case "s3":
		s3Store, err := objectclient.NewS3Store(appCtx, objectclient.S3Config{
			AccessKey: cfg.AwsAccessKey,
			SecretKey: cfg.AwsSecretKey,
			Region:    cfg.AwsRegion,
			Bucket:    cfg.BucketName,
			Prefix:    cfg.S3Prefix,
		})
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		stores = objectclient.StaticProvider{Store: s3Store}
		log.Info("object store ready", "bucket", cfg.BucketName)

	default:
		oauth, err = auth.NewOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		stores = objectclient.DriveProvider{Source: oauth.TokenSource}

		if err := a.openSessions(appCtx, cfg, oauth); err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.startPruning(ctx)
	}

	a.DocProcessor = ingestion_engine.NewDocumentIngestor(
		stores,
		ingestion_engine.NewFormatExtractor(),
		chunker,
		summ,
		ingestion_engine.IngestConfig{
			Concurrency:     cfg.BatchConcurrency,
			DocumentTimeout: cfg.DocumentTimeout,
		},
		log,
		a.Metrics,
	)

	a.Server = NewServer(cfg, Deps{
		Ingestor: a.DocProcessor,
		Sessions: a.Sessions,
		OAuth:    oauth,
		Metrics:  a.Metrics,
		Log:      log,
	})
	return a, nil
}

func (a *App) openSessions(ctx context.Context, cfg *config.Config, oauth *auth.OAuth) error {
	if cfg.DatabaseURL != "" {
		dbClient, err := db.NewDatabaseClient(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		a.sessionStore = dbClient
		a.log.Info("session database initialized and ready")
	} else {
		a.sessionStore = auth.NewMemoryStore()
		a.log.Warn("DATABASE_URL not set; sessions are kept in memory")
	}

	sessions, err := auth.NewSessions(a.sessionStore, oauth, auth.SessionsConfig{
		Secret: cfg.SessionSecret,
		TTL:    cfg.SessionTTL,
		Secure: strings.HasPrefix(cfg.BaseURL, "https://"),
	})
	if err != nil {
		return err
	}
	a.Sessions = sessions
	return nil
}

func (a *App) startPruning(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	a.stopPrune = cancel
	go func() {
		t := time.NewTicker(sessionPruneInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := a.Sessions.Prune(ctx)
				if err != nil {
					a.log.Warn("session prune failed", "error", err)
					continue
				}
				if n > 0 {
					a.log.Info("pruned expired sessions", "count", n)
				}
			}
		}
	}()
}

// Close releases everything NewApp opened. It is safe on a partly built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.stopPrune != nil {
		a.stopPrune()
	}
	if a.sessionStore != nil {
		errs = append(errs, a.sessionStore.Close())
	}
	if a.closeGenerator != nil {
		errs = append(errs, a.closeGenerator())
	}
	if a.stopTracing != nil {
		errs = append(errs, a.stopTracing(ctx))
	}
	return errors.Join(errs...)
}
