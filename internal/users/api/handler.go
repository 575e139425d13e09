package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"peelojuice/internal/apperrors"
	"peelojuice/internal/auth"
	"peelojuice/internal/logger"
	"peelojuice/internal/models"
	"peelojuice/internal/utils"
)

type AddressLayer interface {
	ListAddressesForUser(ctx context.Context, userID string) ([]models.Address, error)
	CreateAddress(ctx context.Context, address *models.Address) error
	DeleteAddressForUser(ctx context.Context, userID, addressID string) (bool, error)
}

// Handler serves the user's saved address book.
type Handler struct {
	Addresses AddressLayer
	Logger    *logger.Logger
}

func NewHandler(addresses AddressLayer, log *logger.Logger) *Handler {
	return &Handler{Addresses: addresses, Logger: log}
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

// ListAddresses handles GET /addresses.
func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	addresses, err := h.Addresses.ListAddressesForUser(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListAddresses: %v", err))
		utils.WriteError(w, apperrors.Internal("Failed to list addresses", err))
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Addresses retrieved", addresses)
}

// CreateAddress handles POST /addresses.
func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req struct {
		Label     string `json:"label"`
		Line1     string `json:"line1"`
		Line2     string `json:"line2"`
		City      string `json:"city"`
		State     string `json:"state"`
		Pincode   string `json:"pincode"`
		Phone     string `json:"phone"`
		IsDefault bool   `json:"is_default"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Line1 == "" || req.City == "" || req.Pincode == "" {
		utils.WriteError(w, apperrors.Validation("line1, city and pincode are required"))
		return
	}

	address := &models.Address{
		ID:        utils.NewID(),
		UserID:    userID,
		Label:     req.Label,
		Line1:     req.Line1,
		Line2:     req.Line2,
		City:      req.City,
		State:     req.State,
		Pincode:   req.Pincode,
		Phone:     req.Phone,
		IsDefault: req.IsDefault,
		CreatedAt: time.Now(),
	}
	if err := h.Addresses.CreateAddress(r.Context(), address); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateAddress: %v", err))
		utils.WriteError(w, apperrors.Internal("Failed to save address", err))
		return
	}
	utils.WriteJSON(w, http.StatusCreated, "Address saved", address)
}

// DeleteAddress handles DELETE /addresses/{addressID}.
func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	existed, err := h.Addresses.DeleteAddressForUser(r.Context(), userID, chi.URLParam(r, "addressID"))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteAddress: %v", err))
		utils.WriteError(w, apperrors.Internal("Failed to delete address", err))
		return
	}
	if !existed {
		utils.WriteError(w, apperrors.NotFound("Address not found"))
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Address deleted", nil)
}
