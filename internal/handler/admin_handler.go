package handler

import (
	"net/http"
	"time"

	"survivor-api/internal/service"
	"survivor-api/pkg/errors"
	"survivor-api/pkg/logger"
)

type AdminHandler struct {
	reconcile service.ReconcileService
	logger    *logger.Logger
}

func NewAdminHandler(reconcile service.ReconcileService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{reconcile: reconcile, logger: log.Component("admin_handler")}
}

// Reconcile handles POST /api/admin/reconcile and runs one pass inline
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	updated, err := h.reconcile.ReconcilePendingPicks(r.Context())
	if err != nil {
		respondError(w, r, errors.NewInternalError("Reconcile pass failed", err), h.logger)
		return
	}

	h.logger.WithField("updated", updated).Info("Manual reconcile pass complete")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"updated":     updated,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}
