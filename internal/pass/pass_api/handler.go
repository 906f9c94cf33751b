package pass_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"flowpass/internal/logger"
	"flowpass/internal/pass"
)

type Handler struct {
	PassService *pass.Service
	Logger      *logger.Logger
}

// GetPass is the validation view behind the pass link: it reports whether
// the pass currently admits entry and which condition failed when not.
func (h *Handler) GetPass(w http.ResponseWriter, r *http.Request) {
	passID := chi.URLParam(r, "passId")
	h.Logger.Info("API", fmt.Sprintf("GetPass: passId=%s", passID))

	result, err := h.PassService.Validate(r.Context(), passID, time.Now())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetPass: validation failed: %v", err))
		http.Error(w, "Error validating pass", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetPass: failed to encode response: %v", err))
	}
}

type redeemRequest struct {
	ScannedData string `json:"scanned_data"`
}

type redeemResponse struct {
	PassID    string `json:"pass_id"`
	Quantity  int    `json:"quantity"`
	Message   string `json:"message"`
	PartySize string `json:"party_size"`
}

// RedeemPass marks the pass used after a door scan. The scanned data must
// identify the venue the pass belongs to.
func (h *Handler) RedeemPass(w http.ResponseWriter, r *http.Request) {
	passID := chi.URLParam(r, "passId")

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	redeemed, err := h.PassService.Redeem(r.Context(), passID, req.ScannedData, time.Now())
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("RedeemPass: %s: %v", passID, err))
		switch {
		case errors.Is(err, pass.ErrNotFound):
			http.Error(w, "Pass not found or inactive", http.StatusNotFound)
		case errors.Is(err, pass.ErrInvalidStore):
			http.Error(w, "Invalid QR code for this pass", http.StatusBadRequest)
		case errors.Is(err, pass.ErrExpired):
			http.Error(w, "Pass has expired", http.StatusGone)
		case errors.Is(err, pass.ErrAlreadyUsed):
			http.Error(w, "Pass not found or already used", http.StatusConflict)
		default:
			http.Error(w, "Error processing QR code", http.StatusInternalServerError)
		}
		return
	}

	people := "people"
	if redeemed.Quantity == 1 {
		people = "person"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(redeemResponse{
		PassID:    redeemed.PassID,
		Quantity:  redeemed.Quantity,
		Message:   "Pass redeemed",
		PartySize: fmt.Sprintf("Valid for entry of %d %s", redeemed.Quantity, people),
	})
}
