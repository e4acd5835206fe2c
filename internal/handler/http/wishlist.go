package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/curetcore/velox-storefront/internal/domain"
	"github.com/curetcore/velox-storefront/internal/wishlist"
	"github.com/curetcore/velox-storefront/pkg/validator"
)

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	stores *wishlist.Manager
	logger *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(stores *wishlist.Manager, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{stores: stores, logger: logger}
}

// WishlistItemRequest is the JSON request body for add and toggle.
type WishlistItemRequest struct {
	ID           string `json:"id" validate:"required"`
	Handle       string `json:"handle" validate:"required"`
	Title        string `json:"title" validate:"required,min=1,max=500"`
	Price        int64  `json:"price" validate:"gte=0"`
	ComparePrice int64  `json:"compare_price" validate:"gte=0"`
	Image        string `json:"image"`
	URL          string `json:"url"`
	Available    bool   `json:"available"`
}

func (req WishlistItemRequest) item() domain.WishlistItem {
	return domain.WishlistItem{
		ID:           req.ID,
		Handle:       req.Handle,
		Title:        req.Title,
		Price:        req.Price,
		ComparePrice: req.ComparePrice,
		Image:        req.Image,
		URL:          req.URL,
		Available:    req.Available,
	}
}

// WishlistResponse is the collection state returned from every
// wishlist endpoint.
type WishlistResponse struct {
	Items []domain.WishlistItem `json:"items"`
	Count int                   `json:"count"`
}

// ToggleResponse additionally reports whether the toggled item ended
// up present.
type ToggleResponse struct {
	Present bool                  `json:"present"`
	Items   []domain.WishlistItem `json:"items"`
	Count   int                   `json:"count"`
}

// GetWishlist handles GET /api/v1/wishlist
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, response{Data: collectionResponse(store)})
}

// AddItem handles POST /api/v1/wishlist/items
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	req, ok := decodeItem(w, r)
	if !ok {
		return
	}

	store.Add(r.Context(), req.item())
	writeJSON(w, http.StatusOK, response{Data: collectionResponse(store)})
}

// RemoveItem handles DELETE /api/v1/wishlist/items/{itemId}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	itemID := chi.URLParam(r, "itemId")
	if itemID == "" {
		writeInvalidInput(w, "itemId is required")
		return
	}

	store.Remove(r.Context(), itemID)
	writeJSON(w, http.StatusOK, response{Data: collectionResponse(store)})
}

// Toggle handles POST /api/v1/wishlist/toggle
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	req, ok := decodeItem(w, r)
	if !ok {
		return
	}

	present := store.Toggle(r.Context(), req.item())
	writeJSON(w, http.StatusOK, response{Data: ToggleResponse{
		Present: present,
		Items:   store.All(),
		Count:   store.Count(),
	}})
}

// Clear handles DELETE /api/v1/wishlist
func (h *WishlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	store.Clear(r.Context())
	writeJSON(w, http.StatusOK, response{Data: collectionResponse(store)})
}

func (h *WishlistHandler) store(w http.ResponseWriter, r *http.Request) (*wishlist.Store, bool) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeInvalidInput(w, "session is required")
		return nil, false
	}
	return h.stores.Get(r.Context(), sess.Owner(), sess.Authenticated), true
}

func decodeItem(w http.ResponseWriter, r *http.Request) (WishlistItemRequest, bool) {
	var req WishlistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidInput(w, "invalid request body: "+err.Error())
		return req, false
	}
	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return req, false
	}
	return req, true
}

func collectionResponse(store *wishlist.Store) WishlistResponse {
	return WishlistResponse{Items: store.All(), Count: store.Count()}
}
