package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/curetcore/velox-storefront/internal/domain"
	"github.com/curetcore/velox-storefront/internal/search"
)

// SearchHandler handles HTTP requests for the predictive search
// endpoints. Submitting input is asynchronous: the response reports
// the pipeline state at accept time, and settled results are read back
// with a follow-up GET (or observed on the event stream).
type SearchHandler struct {
	pipelines *search.Manager
	logger    *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(pipelines *search.Manager, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{pipelines: pipelines, logger: logger}
}

// QueryRequest is the JSON request body for submitting search input.
type QueryRequest struct {
	Query string `json:"query"`
}

// SearchStateResponse is the pipeline state for rendering.
type SearchStateResponse struct {
	State   domain.SearchState    `json:"state"`
	Query   string                `json:"query"`
	Outcome domain.SearchOutcome  `json:"outcome,omitempty"`
	Results []domain.SearchResult `json:"results"`
}

// SubmitQuery handles POST /api/v1/search/query
func (h *SearchHandler) SubmitQuery(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeInvalidInput(w, "session is required")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidInput(w, "invalid request body: "+err.Error())
		return
	}

	p := h.pipelines.Get(sess.ID)
	// The debounce timer outlives this request, so the upstream call
	// must not die with the request context.
	p.Submit(context.WithoutCancel(r.Context()), req.Query)

	writeJSON(w, http.StatusAccepted, response{Data: stateResponse(p)})
}

// GetState handles GET /api/v1/search
func (h *SearchHandler) GetState(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeInvalidInput(w, "session is required")
		return
	}

	writeJSON(w, http.StatusOK, response{Data: stateResponse(h.pipelines.Get(sess.ID))})
}

// Close handles DELETE /api/v1/search
func (h *SearchHandler) Close(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeInvalidInput(w, "session is required")
		return
	}

	h.pipelines.Get(sess.ID).Close(r.Context())
	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "cleared"}})
}

func stateResponse(p *search.Pipeline) SearchStateResponse {
	state, query, outcome, results := p.Snapshot()
	if results == nil {
		results = []domain.SearchResult{}
	}
	return SearchStateResponse{
		State:   state,
		Query:   query,
		Outcome: outcome,
		Results: results,
	}
}
