package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/curetcore/velox-storefront/internal/cart"
	"github.com/curetcore/velox-storefront/internal/domain"
	"github.com/curetcore/velox-storefront/pkg/validator"
)

// CartHandler handles HTTP requests for the cart drawer endpoints.
type CartHandler struct {
	pipelines *cart.Manager
	logger    *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(pipelines *cart.Manager, logger *slog.Logger) *CartHandler {
	return &CartHandler{pipelines: pipelines, logger: logger}
}

// UpdateLineRequest is the JSON request body for a line quantity change.
type UpdateLineRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// CartResponse is the drawer state returned from every cart endpoint.
type CartResponse struct {
	Cart     domain.CartSnapshot     `json:"cart"`
	Shipping domain.ShippingProgress `json:"shipping"`
}

// UpsellsResponse is the upsell region's content.
type UpsellsResponse struct {
	Items  []domain.Recommendation `json:"items"`
	Hidden bool                    `json:"hidden"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeInvalidInput(w, "session is required")
		return
	}

	snap, shipping := h.pipelines.Get(sess.ID).Snapshot()
	writeJSON(w, http.StatusOK, response{Data: CartResponse{Cart: snap, Shipping: shipping}})
}

// PrimeCart handles PUT /api/v1/cart. It seeds the session's cached
// snapshot from a server-rendered cart, typically on first page load.
func (h *CartHandler) PrimeCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeInvalidInput(w, "session is required")
		return
	}

	var snap domain.CartSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeInvalidInput(w, "invalid request body: "+err.Error())
		return
	}

	p := h.pipelines.Get(sess.ID)
	p.Prime(r.Context(), snap)

	current, shipping := p.Snapshot()
	writeJSON(w, http.StatusOK, response{Data: CartResponse{Cart: current, Shipping: shipping}})
}

// UpdateLine handles PUT /api/v1/cart/lines/{lineKey}
func (h *CartHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeInvalidInput(w, "session is required")
		return
	}

	lineKey := chi.URLParam(r, "lineKey")
	if lineKey == "" {
		writeInvalidInput(w, "lineKey is required")
		return
	}

	var req UpdateLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidInput(w, "invalid request body: "+err.Error())
		return
	}
	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	p := h.pipelines.Get(sess.ID)
	snap, err := p.SetQuantity(r.Context(), lineKey, req.Quantity)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	_, shipping := p.Snapshot()
	writeJSON(w, http.StatusOK, response{Data: CartResponse{Cart: snap, Shipping: shipping}})
}

// RemoveLine handles DELETE /api/v1/cart/lines/{lineKey}
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeInvalidInput(w, "session is required")
		return
	}

	lineKey := chi.URLParam(r, "lineKey")
	if lineKey == "" {
		writeInvalidInput(w, "lineKey is required")
		return
	}

	p := h.pipelines.Get(sess.ID)
	snap, err := p.RemoveLine(r.Context(), lineKey)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	_, shipping := p.Snapshot()
	writeJSON(w, http.StatusOK, response{Data: CartResponse{Cart: snap, Shipping: shipping}})
}

// LoadUpsells handles POST /api/v1/cart/upsells
func (h *CartHandler) LoadUpsells(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeInvalidInput(w, "session is required")
		return
	}

	items, hidden := h.pipelines.Get(sess.ID).LoadUpsells(r.Context())
	if items == nil {
		items = []domain.Recommendation{}
	}
	writeJSON(w, http.StatusOK, response{Data: UpsellsResponse{Items: items, Hidden: hidden}})
}
