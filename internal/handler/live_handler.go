package handler

import (
	"net/http"

	"survivor-api/internal/middleware"
	"survivor-api/internal/realtime"
	"survivor-api/internal/service"
	"survivor-api/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// LiveHandler upgrades members to a websocket that receives their league's events
type LiveHandler struct {
	leagues  service.LeagueService
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

func NewLiveHandler(leagues service.LeagueService, hub *realtime.Hub, origins *middleware.OriginChecker, log *logger.Logger) *LiveHandler {
	return &LiveHandler{
		leagues: leagues,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.CheckRequest,
		},
		logger: log.Component("live_handler"),
	}
}

// ServeWS handles GET /api/leagues/{leagueID}/live
func (h *LiveHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	leagueID := chi.URLParam(r, "leagueID")
	if _, err := h.leagues.GetLeague(r.Context(), leagueID, user.Sub); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.WithError(err).WithField("league_id", leagueID).Debug("Websocket upgrade failed")
		return
	}

	h.hub.Attach(conn, leagueID, user.Sub)
}
