// Package server is the thin HTTP JSON surface over the pipelines:
// generation, ingestion, document queries, and contract analysis. It
// holds no business logic; handlers decode, validate via the shared
// request types, delegate, and map AppError categories to status
// codes.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"letrado/internal/analysis"
	"letrado/internal/logging"
	"letrado/internal/pipeline"
	"letrado/internal/types"
)

// Handler implements the API endpoints.
type Handler struct {
	generator *pipeline.Generator
	ingestor  *pipeline.Ingestor
	querier   *pipeline.Querier
	analyzer  *analysis.Analyzer
}

func NewHandler(g *pipeline.Generator, in *pipeline.Ingestor, q *pipeline.Querier, a *analysis.Analyzer) *Handler {
	return &Handler{generator: g, ingestor: in, querier: q, analyzer: a}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req types.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, types.NewValidationError("invalid JSON body"))
		return
	}

	result, err := h.generator.Generate(r.Context(), &req)
	if err != nil {
		logging.ServerDebug("generate failed: %v", err)
		respondAppError(w, err)
		return
	}

	logging.Server("generate %s %q done in %v", req.Type, req.Title, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req types.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, types.NewValidationError("invalid JSON body"))
		return
	}

	result, err := h.ingestor.Ingest(r.Context(), &req)
	if err != nil {
		respondAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) QueryDocument(w http.ResponseWriter, r *http.Request) {
	var req types.DocumentQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, types.NewValidationError("invalid JSON body"))
		return
	}

	result, err := h.querier.Query(r.Context(), &req)
	if err != nil {
		respondAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// maxUploadBytes bounds contract uploads.
const maxUploadBytes = 10 << 20

// Analyze accepts a multipart upload (field "file", optional "title")
// and runs the full analysis pipeline synchronously. Admission control
// may hold the request while earlier runs finish.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondAppError(w, types.NewValidationError("invalid multipart body"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondAppError(w, types.NewValidationError("missing file field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondAppError(w, types.NewInternalError("read upload", err))
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	result, err := h.analyzer.Run(r.Context(), header.Filename, title, data)
	if err != nil {
		// A failed run still carries the persisted terminal state.
		if result != nil {
			writeJSON(w, http.StatusOK, result)
			return
		}
		respondAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondAppError(w, types.NewValidationError("missing document id"))
		return
	}

	result, err := h.analyzer.Get(id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondAppError(w http.ResponseWriter, err error) {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.StatusCode, ErrorResponse{
			Error: appErr.Message,
			Code:  string(appErr.Category),
		})
		return
	}
	logging.Get(logging.CategoryServer).Error("unclassified error: %v", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Code:  string(types.ErrCatUnknown),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Get(logging.CategoryServer).Error("encode response: %v", err)
	}
}
