package handler

import (
	"net/http"

	"survivor-api/internal/domain"
	"survivor-api/internal/service"
	"survivor-api/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// CommissionerHandler serves the override endpoints. The service checks that the caller
// commissions the league before anything is written.
type CommissionerHandler struct {
	commissioner service.CommissionerService
	logger       *logger.Logger
}

func NewCommissionerHandler(commissioner service.CommissionerService, log *logger.Logger) *CommissionerHandler {
	return &CommissionerHandler{commissioner: commissioner, logger: log.Component("commissioner_handler")}
}

// SetPick handles PUT /api/leagues/{leagueID}/members/{userID}/pick
func (h *CommissionerHandler) SetPick(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	var req domain.SetMemberPickRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	pick, err := h.commissioner.SetMemberPick(r.Context(),
		chi.URLParam(r, "leagueID"), actor.Sub, chi.URLParam(r, "userID"), &req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, pick)
}

// SetStrikes handles POST /api/leagues/{leagueID}/members/{userID}/strikes
func (h *CommissionerHandler) SetStrikes(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	var req domain.SetMemberStrikesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	member, err := h.commissioner.SetMemberStrikes(r.Context(),
		chi.URLParam(r, "leagueID"), actor.Sub, chi.URLParam(r, "userID"), &req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, member)
}

// MarkPaid handles PUT /api/leagues/{leagueID}/members/{userID}/paid
func (h *CommissionerHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	var req domain.MarkPaidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	member, err := h.commissioner.MarkPaid(r.Context(),
		chi.URLParam(r, "leagueID"), actor.Sub, chi.URLParam(r, "userID"), &req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, member)
}

// AuditLog handles GET /api/leagues/{leagueID}/audit?limit=N
func (h *CommissionerHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	entries, err := h.commissioner.AuditLog(r.Context(), chi.URLParam(r, "leagueID"), actor.Sub, limit)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
