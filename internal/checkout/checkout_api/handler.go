package checkout_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"flowpass/internal/checkout"
	"flowpass/internal/logger"
	"flowpass/internal/utils"
)

type Handler struct {
	CheckoutService *checkout.Service
	Logger          *logger.Logger
}

// CreateIntent starts a purchase and returns the client secret the browser
// confirms against, plus the pre-generated pass id.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req checkout.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	intent, err := h.CheckoutService.CreateIntent(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateIntent: %v", err))
		switch {
		case errors.Is(err, checkout.ErrValidation):
			writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid checkout request", err.Error()))
		case errors.Is(err, checkout.ErrStoreNotFound):
			writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Store not found or inactive", err.Error()))
		case errors.Is(err, checkout.ErrSoldOut):
			writeJSON(w, http.StatusConflict, utils.ErrorResponse("No passes available for today", err.Error()))
		default:
			writeJSON(w, http.StatusBadGateway, utils.ErrorResponse("Payment intent creation failed", "upstream error"))
		}
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Payment intent created", intent))
}

type issuePassRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// IssuePass finalizes a purchase after the processor reports success. The
// intent status is re-verified server-side before any pass is written.
func (h *Handler) IssuePass(w http.ResponseWriter, r *http.Request) {
	var req issuePassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	if req.PaymentIntentID == "" {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Payment intent ID is required", ""))
		return
	}

	issued, err := h.CheckoutService.IssuePass(r.Context(), req.PaymentIntentID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("IssuePass: %v", err))
		switch {
		case errors.Is(err, checkout.ErrPaymentNotConfirmed):
			writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Payment not successful", ""))
		default:
			writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to create pass", ""))
		}
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Pass created", issued))
}

// GetPassID resolves a payment intent back to its pass id for the
// post-redirect confirmation page.
func (h *Handler) GetPassID(w http.ResponseWriter, r *http.Request) {
	intentID := r.URL.Query().Get("payment_intent_id")
	if intentID == "" {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Payment intent ID is required", ""))
		return
	}

	passID, err := h.CheckoutService.PassIDForIntent(r.Context(), intentID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetPassID: %v", err))
		writeJSON(w, http.StatusBadGateway, utils.ErrorResponse("Failed to confirm payment", ""))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Payment confirmed", map[string]string{"pass_id": passID}))
}

func writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
