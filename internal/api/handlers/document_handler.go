package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/markdave123-py/Synopsis/internal/auth"
	"github.com/markdave123-py/Synopsis/internal/core"
	"github.com/markdave123-py/Synopsis/internal/core/ingestion_engine"
	"github.com/markdave123-py/Synopsis/internal/logger"
	"github.com/markdave123-py/Synopsis/internal/models"
)

const csvProcessFailed = "Error: Could not process file"

type DocumentHandler struct {
	ingestor  ingestion_engine.Ingestor
	folder    string
	maxUpload int64
	log       *logger.Logger
}

// NewDocumentHandler serves summaries for files under folder. maxUploadMB
// bounds the multipart upload endpoint.
func NewDocumentHandler(ing ingestion_engine.Ingestor, folder string, maxUploadMB int, log *logger.Logger) *DocumentHandler {
	if log == nil {
		log = logger.Nop()
	}
	if maxUploadMB <= 0 {
		maxUploadMB = 25
	}
	return &DocumentHandler{
		ingestor:  ing,
		folder:    folder,
		maxUpload: int64(maxUploadMB) << 20,
		log:       log.With("component", "document_handler"),
	}
}

type summaryResponse struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Link    string `json:"link"`
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ListFiles returns every file in the configured folder.
func (h *DocumentHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.ingestor.ListFiles(r.Context(), h.folder)
	if err != nil {
		h.fail(w, r, "Failed to list files", err)
		return
	}
	if files == nil {
		files = []models.FileMeta{}
	}
	writeJSON(w, http.StatusOK, files)
}

// Summarize summarizes one file by id.
func (h *DocumentHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	fileID, ok := fileIDParam(w, r)
	if !ok {
		return
	}
	meta, summary, err := h.ingestor.SummarizeFile(r.Context(), fileID)
	if err != nil {
		h.fail(w, r, "Failed to summarize", err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Name: meta.Name, Link: meta.WebViewLink, Summary: summary})
}

// SummarizeAll summarizes every supported file in the folder. A failed file
// becomes an entry with an error instead of failing the batch.
func (h *DocumentHandler) SummarizeAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.ingestor.SummarizeFolder(r.Context(), h.folder)
	if err != nil {
		h.fail(w, r, "Failed to summarize files", err)
		return
	}
	out := make([]summaryResponse, 0, len(results))
	for _, res := range results {
		item := summaryResponse{ID: res.File.ID, Name: res.File.Name, Link: res.File.WebViewLink}
		if res.OK() {
			item.Summary = res.Summary
		} else {
			item.Error = res.Err.Error()
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

// DownloadSummary returns a one-row CSV with the file's summary.
func (h *DocumentHandler) DownloadSummary(w http.ResponseWriter, r *http.Request) {
	fileID, ok := fileIDParam(w, r)
	if !ok {
		return
	}
	meta, summary, err := h.ingestor.SummarizeFile(r.Context(), fileID)
	if err != nil {
		h.fail(w, r, "Failed to download summary", err)
		return
	}
	writeCSV(w, meta.Name+"_summary.csv", [][]string{{meta.Name, summary}}, h.log)
}

// DownloadAllSummaries returns the whole folder as CSV.
func (h *DocumentHandler) DownloadAllSummaries(w http.ResponseWriter, r *http.Request) {
	results, err := h.ingestor.SummarizeFolder(r.Context(), h.folder)
	if err != nil {
		h.fail(w, r, "Failed to download summaries", err)
		return
	}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		if res.OK() {
			rows = append(rows, []string{res.File.Name, res.Summary})
		} else {
			rows = append(rows, []string{res.File.Name, csvProcessFailed})
		}
	}
	writeCSV(w, "document_summaries.csv", rows, h.log)
}

// SummarizeUpload summarizes a multipart upload ("file") without touching the
// file store.
func (h *DocumentHandler) SummarizeUpload(w http.ResponseWriter, r *http.Request) {
	tooLarge := fmt.Sprintf("file exceeds %d MB", h.maxUpload>>20)
	if r.ContentLength > h.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, tooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read file")
		return
	}

	name := filepath.Base(header.Filename)
	contentType := ingestion_engine.ResolveContentType(header.Header.Get("Content-Type"), name)

	summary, err := h.ingestor.SummarizeDocument(r.Context(), models.RawDocument{
		ID:          uuid.NewString(),
		Name:        name,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		h.fail(w, r, "Failed to summarize", err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Name: name, Summary: summary})
}

// fileIDParam reads the file id from the route wildcard. S3 keys may contain
// "/", sent either raw or as %2F. chi matches on RawPath when the client
// escaped anything, so the wildcard is unescaped only in that case.
func fileIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(id)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid file id")
			return "", false
		}
		id = unescaped
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing file id")
		return "", false
	}
	return id, true
}

// fail maps err onto a status. Client-side errors keep their own message;
// server-side ones are prefixed like the rest of the API.
func (h *DocumentHandler) fail(w http.ResponseWriter, r *http.Request, prefix string, err error) {
	status := core.HTTPStatusCode(err)
	msg := err.Error()
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		msg = "Not authenticated"
	case status >= http.StatusInternalServerError || status == http.StatusTooManyRequests:
		msg = prefix + ": " + msg
		kv := []any{"error", err, "status_code", status}
		if sid, ok := auth.SessionIDFrom(r.Context()); ok {
			kv = append(kv, "session_id", sid)
		}
		h.log.Error(prefix, kv...)
	}
	writeError(w, status, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeCSV(w http.ResponseWriter, filename string, rows [][]string, log *logger.Logger) {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Filename", "Summary"}); err != nil {
		log.Error("csv write failed", "error", err)
		return
	}
	if err := cw.WriteAll(rows); err != nil {
		log.Error("csv write failed", "error", err)
	}
}
