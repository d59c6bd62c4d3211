package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/kevinaaaquil/library/service"
)

type DashboardHandler struct {
	Desk   *service.Desk
	Logger *zap.Logger
}

// Get returns the caller's dashboard: stats, navigation badges, header and
// the role's lists (own loans, overdue books, activity, user distribution).
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	dash, err := h.Desk.Dashboard(r.Context(), viewer(r))
	if err != nil {
		h.Logger.Error("dashboard", zap.Error(err))
		http.Error(w, `{"error":"failed to load dashboard"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}
