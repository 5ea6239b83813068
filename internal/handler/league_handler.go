package handler

import (
	"net/http"

	"survivor-api/internal/domain"
	"survivor-api/internal/service"
	"survivor-api/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type LeagueHandler struct {
	leagues service.LeagueService
	logger  *logger.Logger
}

func NewLeagueHandler(leagues service.LeagueService, log *logger.Logger) *LeagueHandler {
	return &LeagueHandler{leagues: leagues, logger: log.Component("league_handler")}
}

// CreateLeague handles POST /api/leagues
func (h *LeagueHandler) CreateLeague(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	var req domain.CreateLeagueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	league, err := h.leagues.CreateLeague(r.Context(), user, &req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, league)
}

// ListLeagues handles GET /api/leagues
func (h *LeagueHandler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	leagues, err := h.leagues.ListLeagues(r.Context(), user.Sub)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"leagues": leagues})
}

// GetLeague handles GET /api/leagues/{leagueID}
func (h *LeagueHandler) GetLeague(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	league, err := h.leagues.GetLeague(r.Context(), chi.URLParam(r, "leagueID"), user.Sub)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, league)
}

// JoinLeague handles POST /api/leagues/{leagueID}/join
func (h *LeagueHandler) JoinLeague(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	var req domain.JoinLeagueRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, err, h.logger)
			return
		}
	}

	member, err := h.leagues.JoinLeague(r.Context(), chi.URLParam(r, "leagueID"), user, &req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, member)
}

// ListMembers handles GET /api/leagues/{leagueID}/members
func (h *LeagueHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	members, err := h.leagues.ListMembers(r.Context(), chi.URLParam(r, "leagueID"), user.Sub)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}
