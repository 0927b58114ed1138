package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/Synopsis/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/Synopsis/internal/api/middlewares"
	"github.com/markdave123-py/Synopsis/internal/auth"
	"github.com/markdave123-py/Synopsis/internal/config"
	"github.com/markdave123-py/Synopsis/internal/core/ingestion_engine"
	"github.com/markdave123-py/Synopsis/internal/logger"
	"github.com/markdave123-py/Synopsis/internal/observability"
)

// Deps is everything the router needs. Sessions and OAuth are nil when the
// file store uses service credentials and nobody has to sign in.
type Deps struct {
	Ingestor ingestion_engine.Ingestor
	Sessions *auth.Sessions
	OAuth    *auth.OAuth
	Metrics  *observability.Metrics
	Log      *logger.Logger
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           NewRouter(cfg, deps),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	folder := cfg.DriveFolderID
	if cfg.FileStore == "s3" {
		folder = cfg.S3Prefix
	}
	docHandler := handlers.NewDocumentHandler(deps.Ingestor, folder, cfg.MaxUploadMB, deps.Log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appMiddleware.Metrics(deps.Metrics))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	if deps.Sessions != nil && deps.OAuth != nil {
		authHandler := handlers.NewAuthHandler(deps.OAuth, deps.Sessions, deps.Log)
		r.Get("/", authHandler.Status)
		r.Get("/authorize", authHandler.Authorize)
		r.Get("/oauth2callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
	} else {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"authenticated":true}` + "\n"))
		})
	}

	// API routes
	r.Route("/api", func(api chi.Router) {
		// summarization runs long; the timeout applies to the API only
		if cfg.RequestTimeout > 0 {
			api.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		if deps.Sessions != nil {
			api.Use(appMiddleware.RequireSession(deps.Sessions, deps.Log))
		}
		api.Get("/files", docHandler.ListFiles)
		api.Get("/summarize/*", docHandler.Summarize)
		api.Get("/summarize-all", docHandler.SummarizeAll)
		api.Get("/download-summary/*", docHandler.DownloadSummary)
		api.Get("/download-all-summaries", docHandler.DownloadAllSummaries)
		api.Post("/documents/summarize", docHandler.SummarizeUpload)
	})

	return r
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
