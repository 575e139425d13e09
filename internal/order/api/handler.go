package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"peelojuice/internal/auth"
	"peelojuice/internal/logger"
	"peelojuice/internal/models"
	"peelojuice/internal/order"
	"peelojuice/internal/utils"
)

type Handler struct {
	OrderService *order.OrderService
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, log *logger.Logger) *Handler {
	return &Handler{OrderService: orderService, Logger: log}
}

func (h *Handler) claims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}

// ListMine handles GET /orders?status=ongoing|delivered|cancelled.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	orders, err := h.OrderService.ListMine(r.Context(), claims.UserID, r.URL.Query().Get("status"))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMine: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Orders retrieved", orders)
}

// GetOrder handles GET /orders/{orderID}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	ord, err := h.OrderService.GetOrderForUser(r.Context(), claims.UserID, chi.URLParam(r, "orderID"))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Order retrieved", ord)
}

// Cancel handles POST /orders/{orderID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	ord, err := h.OrderService.Cancel(r.Context(), claims.UserID, chi.URLParam(r, "orderID"))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Cancel: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Order cancelled successfully", ord)
}

// ListForBranch handles GET /staff/orders?branch_id=...&status=....
func (h *Handler) ListForBranch(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	orders, err := h.OrderService.ListForBranch(r.Context(), claims,
		r.URL.Query().Get("branch_id"), r.URL.Query().Get("status"))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListForBranch: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Orders retrieved", orders)
}

// GetForStaff handles GET /staff/orders/{orderID}.
func (h *Handler) GetForStaff(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	ord, err := h.OrderService.GetOrderForStaff(r.Context(), claims, chi.URLParam(r, "orderID"))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetForStaff: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Order retrieved", ord)
}

// SetStatus handles POST /staff/orders/{orderID}/status.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ord, err := h.OrderService.SetStatus(r.Context(), claims, chi.URLParam(r, "orderID"), models.OrderStatus(req.Status))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SetStatus: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, fmt.Sprintf("Order status updated to %s", ord.Status), ord)
}
