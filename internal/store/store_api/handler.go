package store_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"flowpass/internal/auth"
	"flowpass/internal/logger"
	"flowpass/internal/models"
	"flowpass/internal/pass"
	"flowpass/internal/storage"
	"flowpass/internal/store"
)

type Handler struct {
	StoreService *store.Service
	PassService  *pass.Service
	Logger       *logger.Logger
}

// CreateStore accepts a multipart form with name, price, max_passes and an
// optional header image.
func (h *Handler) CreateStore(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(storage.MaxImageSize + 1024*1024); err != nil {
		http.Error(w, "Invalid form data: "+err.Error(), http.StatusBadRequest)
		return
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		http.Error(w, "Invalid price", http.StatusBadRequest)
		return
	}
	maxPasses, err := strconv.Atoi(r.FormValue("max_passes"))
	if err != nil {
		http.Error(w, "Invalid max passes", http.StatusBadRequest)
		return
	}

	var image []byte
	if file, _, err := r.FormFile("image"); err == nil {
		defer file.Close()
		image, err = io.ReadAll(io.LimitReader(file, storage.MaxImageSize+1))
		if err != nil {
			http.Error(w, "Failed to read image", http.StatusBadRequest)
			return
		}
	}

	created, err := h.StoreService.Create(r.Context(), userID, models.CreateStoreRequest{
		Name:      r.FormValue("name"),
		Price:     price,
		MaxPasses: maxPasses,
	}, image)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateStore: %v", err))
		switch {
		case errors.Is(err, store.ErrValidation),
			errors.Is(err, storage.ErrImageTooLarge),
			errors.Is(err, storage.ErrImageType):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to generate store", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *Handler) ListStores(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	stores, err := h.StoreService.List(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListStores: %v", err))
		http.Error(w, "Failed to list stores", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stores)
}

func (h *Handler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	storeID := chi.URLParam(r, "storeId")

	if err := h.StoreService.Delete(r.Context(), userID, storeID); err != nil {
		h.writeStoreError(w, "DeleteStore", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	storeID := chi.URLParam(r, "storeId")

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.StoreService.SetActive(r.Context(), userID, storeID, req.Active); err != nil {
		h.writeStoreError(w, "SetActive", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Poster serves the venue's scan QR code as a PNG.
func (h *Handler) Poster(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	storeID := chi.URLParam(r, "storeId")

	png, err := h.StoreService.Poster(r.Context(), userID, storeID)
	if err != nil {
		h.writeStoreError(w, "Poster", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// Stats serves the operator dashboard block for one venue; the dashboard
// polls it on a fixed interval.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	storeID := chi.URLParam(r, "storeId")

	owned, err := h.StoreService.GetOwned(r.Context(), userID, storeID)
	if err != nil {
		h.writeStoreError(w, "Stats", err)
		return
	}

	stats, err := h.PassService.DailyStats(r.Context(), owned, time.Now())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Stats: %v", err))
		http.Error(w, "Failed to load store stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

type storefrontResponse struct {
	Store           *models.Store `json:"store"`
	RemainingPasses int           `json:"remaining_passes"`
	WindowStart     time.Time     `json:"window_start"`
	SoldOut         bool          `json:"sold_out"`
}

// Storefront is the public purchase page data: the store plus how many
// passes remain in the current sales-day window. Negative remaining reads
// as sold out, never as an error.
func (h *Handler) Storefront(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeId")

	active, err := h.StoreService.GetActive(r.Context(), storeID)
	if err != nil {
		h.writeStoreError(w, "Storefront", err)
		return
	}

	remaining, windowStart, err := h.PassService.Remaining(r.Context(), active, time.Now())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Storefront: %v", err))
		http.Error(w, "Error loading store data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(storefrontResponse{
		Store:           active,
		RemainingPasses: remaining,
		WindowStart:     windowStart,
		SoldOut:         remaining <= 0,
	})
}

func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Store not found or inactive", http.StatusNotFound)
	case errors.Is(err, store.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
