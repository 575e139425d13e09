package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"peelojuice/internal/auth"
	"peelojuice/internal/cart"
	"peelojuice/internal/logger"
	"peelojuice/internal/utils"
)

// Coupon code lookups are case-insensitive; the code is upper-cased before
// the service sees it.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type Handler struct {
	CartService *cart.CartService
	Logger      *logger.Logger
}

func NewHandler(cartService *cart.CartService, log *logger.Logger) *Handler {
	return &Handler{CartService: cartService, Logger: log}
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	view, err := h.CartService.GetView(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetCart: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Cart retrieved", view)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	// Quantity is a pointer so a missing field defaults to one while an
	// explicit zero still reaches validation.
	var req struct {
		JuiceID  string `json:"juice_id"`
		Quantity *int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	if err := h.CartService.AddItem(r.Context(), userID, req.JuiceID, quantity); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddItem: %v", err))
		utils.WriteError(w, err)
		return
	}

	view, err := h.CartService.GetView(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Item added to cart", view)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req struct {
		JuiceID string `json:"juice_id"`
		Action  string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	removed, quantity, err := h.CartService.UpdateItem(r.Context(), userID, req.JuiceID, req.Action)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateItem: %v", err))
		utils.WriteError(w, err)
		return
	}

	if removed {
		utils.WriteJSON(w, http.StatusOK, "Item removed from cart", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Cart updated successfully", map[string]int{"item_quantity": quantity})
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req struct {
		JuiceID string `json:"juice_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.CartService.RemoveItem(r.Context(), userID, req.JuiceID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RemoveItem: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Item removed successfully", nil)
}

func (h *Handler) SetItemInstructions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req struct {
		JuiceID      string `json:"juice_id"`
		Instructions string `json:"instructions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	stored, err := h.CartService.SetItemInstructions(r.Context(), userID, req.JuiceID, req.Instructions)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SetItemInstructions: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Instructions updated", map[string]string{"instructions": stored})
}

func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	discount, err := h.CartService.ApplyCoupon(r.Context(), userID, normalizeCode(req.Code))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ApplyCoupon: %v", err))
		utils.WriteError(w, err)
		return
	}

	view, err := h.CartService.GetView(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, fmt.Sprintf("Coupon applied! You saved %s", discount), view)
}

func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.CartService.RemoveCoupon(r.Context(), userID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RemoveCoupon: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Coupon removed successfully", nil)
}
