package inventory

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/happyshelf/backend/internal/middleware"
	"github.com/happyshelf/backend/internal/models"
	"github.com/happyshelf/backend/internal/store"
)

// Handler holds the inventory HTTP handlers. All routes run behind the
// auth middleware, so the owning user always comes from the request
// context, never from the body.
type Handler struct {
	items   store.ItemStore
	metrics MetricsConfig
	now     func() time.Time
}

func NewHandler(items store.ItemStore, metrics MetricsConfig) *Handler {
	return &Handler{items: items, metrics: metrics, now: time.Now}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// List returns the user's items, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.FindByOwner(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		log.Printf("list items: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch items")
		return
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// Create adds a new item for the user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Category == "" || req.Quantity == nil || req.DailyUsage == nil {
		writeError(w, http.StatusBadRequest, "name, category, quantity, and daily_usage are required")
		return
	}
	if *req.Quantity < 0 || *req.DailyUsage < 0 {
		writeError(w, http.StatusBadRequest, "quantity and daily_usage must not be negative")
		return
	}

	item, err := h.items.Insert(r.Context(), &models.InventoryItem{
		UserID:     middleware.UserID(r.Context()),
		Name:       req.Name,
		Category:   req.Category,
		Quantity:   *req.Quantity,
		DailyUsage: *req.DailyUsage,
		ExpiryDate: req.ExpiryDate.Value,
	})
	if err != nil {
		log.Printf("create item: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Item created successfully",
		"item":    item,
	})
}

// Update applies a partial patch to one of the user's items. The id and
// owner are matched in a single scoped lookup, so a foreign item behaves
// like a missing one.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}
	if req.DailyUsage != nil && *req.DailyUsage < 0 {
		writeError(w, http.StatusBadRequest, "daily_usage must not be negative")
		return
	}

	patch := store.ItemPatch{
		Name:       req.Name,
		Category:   req.Category,
		Quantity:   req.Quantity,
		DailyUsage: req.DailyUsage,
	}
	if req.ExpiryDate.Set {
		patch.SetExpiry = true
		patch.ExpiryDate = req.ExpiryDate.Value
	}

	item, err := h.items.UpdateScoped(r.Context(), chi.URLParam(r, "id"), middleware.UserID(r.Context()), patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		log.Printf("update item: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Item updated successfully",
		"item":    item,
	})
}

// Delete removes one of the user's items.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.items.DeleteScoped(r.Context(), chi.URLParam(r, "id"), middleware.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		log.Printf("delete item: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item deleted successfully"})
}

// Stats recomputes the dashboard metrics from the user's current items.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.FindByOwner(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		log.Printf("stats: fetch items: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch statistics")
		return
	}
	writeJSON(w, http.StatusOK, ComputeStats(items, h.now(), h.metrics))
}
