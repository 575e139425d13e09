package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"peelojuice/internal/auth"
	"peelojuice/internal/logger"
	"peelojuice/internal/payment"
	"peelojuice/internal/utils"
)

// GatewaySignatureHeader carries the webhook HMAC.
const GatewaySignatureHeader = "X-Gateway-Signature"

type Handler struct {
	PaymentService *payment.PaymentService
	Logger         *logger.Logger
}

func NewHandler(paymentService *payment.PaymentService, log *logger.Logger) *Handler {
	return &Handler{PaymentService: paymentService, Logger: log}
}

func (h *Handler) claims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}

// GetForOrder handles GET /payments/order/{orderID}.
func (h *Handler) GetForOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	p, err := h.PaymentService.GetForOrder(r.Context(), claims, chi.URLParam(r, "orderID"))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetForOrder: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Payment retrieved", p)
}

// ConfirmCOD handles POST /payments/{paymentID}/confirm-cod.
func (h *Handler) ConfirmCOD(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	p, err := h.PaymentService.ConfirmCOD(r.Context(), claims, chi.URLParam(r, "paymentID"))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ConfirmCOD: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Payment confirmed", p)
}

// CreateGatewayOrder handles POST /payments/gateway/order.
func (h *Handler) CreateGatewayOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	gatewayOrder, err := h.PaymentService.CreateGatewayOrder(r.Context(), claims.UserID, req.OrderID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateGatewayOrder: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Payment order created", gatewayOrder)
}

// Verify handles POST /payments/gateway/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	var req payment.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.PaymentService.VerifyGatewayPayment(r.Context(), claims.UserID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Verify: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Payment verified successfully", p)
}

// Webhook handles POST /payments/gateway/webhook. It is unauthenticated;
// trust comes from the body signature.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	if err := h.PaymentService.HandleWebhook(r.Context(), body, r.Header.Get(GatewaySignatureHeader)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Webhook: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Webhook processed", nil)
}
