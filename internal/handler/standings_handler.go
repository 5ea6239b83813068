package handler

import (
	"net/http"

	"survivor-api/internal/domain"
	"survivor-api/internal/service"
	"survivor-api/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type StandingsHandler struct {
	standings service.StandingsService
	logger    *logger.Logger
}

func NewStandingsHandler(standings service.StandingsService, log *logger.Logger) *StandingsHandler {
	return &StandingsHandler{standings: standings, logger: log.Component("standings_handler")}
}

// GetStandings handles GET /api/leagues/{leagueID}/standings?week=N (polling endpoint)
func (h *StandingsHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
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

	standings, err := h.standings.GetStandings(r.Context(), chi.URLParam(r, "leagueID"), user.Sub, week)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	// GeneratedAt changes every call, so the tag covers only the rows and totals
	etag := generateETag(struct {
		Week     int
		Pot      int64
		Active   int
		Degraded bool
		Rows     []domain.StandingsRow
	}{standings.TargetWeek, standings.PrizePot, standings.ActiveMembers, standings.Degraded, standings.Rows})

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, no-cache")
	respondJSON(w, http.StatusOK, standings)
}
