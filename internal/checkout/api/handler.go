package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"peelojuice/internal/auth"
	"peelojuice/internal/checkout"
	"peelojuice/internal/logger"
	"peelojuice/internal/utils"
)

type Handler struct {
	CheckoutService *checkout.CheckoutService
	Logger          *logger.Logger
}

func NewHandler(checkoutService *checkout.CheckoutService, log *logger.Logger) *Handler {
	return &Handler{CheckoutService: checkoutService, Logger: log}
}

// Checkout handles POST /checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.CheckoutService.Checkout(r.Context(), claims.UserID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Checkout: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, "Order placed successfully", result)
}
