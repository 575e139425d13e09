package api

import (
	"fmt"
	"net/http"

	catalogdb "peelojuice/internal/catalog/db"
	"peelojuice/internal/logger"
	"peelojuice/internal/utils"
)

// Handler serves the public catalog read endpoints the storefront browses
// before ordering.
type Handler struct {
	DB     *catalogdb.DB
	Logger *logger.Logger
}

func NewHandler(db *catalogdb.DB, log *logger.Logger) *Handler {
	return &Handler{DB: db, Logger: log}
}

func (h *Handler) ListJuices(w http.ResponseWriter, r *http.Request) {
	branchID := r.URL.Query().Get("branch_id")

	if branchID == "" {
		juices, err := h.DB.ListActiveJuices(r.Context())
		if err != nil {
			h.Logger.Error("API", fmt.Sprintf("ListJuices: %v", err))
			http.Error(w, "Failed to list juices", http.StatusInternalServerError)
			return
		}
		utils.WriteJSON(w, http.StatusOK, "Juices retrieved", juices)
		return
	}

	juices, err := h.DB.ListJuicesForBranch(r.Context(), branchID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListJuices: branch %s: %v", branchID, err))
		http.Error(w, "Failed to list juices", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Juices retrieved", juices)
}

func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.DB.ListActiveBranches(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListBranches: %v", err))
		http.Error(w, "Failed to list branches", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Branches retrieved", branches)
}
