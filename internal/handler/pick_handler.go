package handler

import (
	"net/http"

	"survivor-api/internal/domain"
	"survivor-api/internal/service"
	"survivor-api/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type PickHandler struct {
	picks  service.PickService
	logger *logger.Logger
}

func NewPickHandler(picks service.PickService, log *logger.Logger) *PickHandler {
	return &PickHandler{picks: picks, logger: log.Component("pick_handler")}
}

// SubmitPick handles POST /api/leagues/{leagueID}/picks
func (h *PickHandler) SubmitPick(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	var req domain.SubmitPickRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	pick, err := h.picks.SubmitPick(r.Context(), chi.URLParam(r, "leagueID"), user.Sub, &req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, pick)
}

// MyPicks handles GET /api/leagues/{leagueID}/picks/me?week=N
func (h *PickHandler) MyPicks(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	week, err := queryInt(r, "week")
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	history, err := h.picks.MemberHistory(r.Context(), chi.URLParam(r, "leagueID"), user.Sub, week)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, history)
}
