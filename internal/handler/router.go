package handler

import (
	"net/http"
	"time"

	"survivor-api/internal/container"
	"survivor-api/internal/middleware"
	"survivor-api/pkg/errors"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter configures and returns the HTTP router
func NewRouter(c *container.Container) *chi.Mux {
	cfg := c.GetConfig()
	log := c.GetLogger()
	services := c.Services

	r := chi.NewRouter()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.AllowedOrigins

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	healthHandler := NewHealthHandler(c)
	leagueHandler := NewLeagueHandler(services.League, log)
	pickHandler := NewPickHandler(services.Pick, log)
	standingsHandler := NewStandingsHandler(services.Standings, log)
	commissionerHandler := NewCommissionerHandler(services.Commissioner, log)
	adminHandler := NewAdminHandler(services.Reconcile, log)
	liveHandler := NewLiveHandler(services.League, c.Hub, middleware.NewOriginChecker(cfg.AllowedOrigins), log)

	// Health check (no auth required)
	r.Get("/health", healthHandler.Check)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(services.Auth, log))

		// Websocket upgrades need the raw connection, so they skip compression and timeouts
		r.Get("/leagues/{leagueID}/live", liveHandler.ServeWS)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Compress(5))
			r.Use(chiMiddleware.Timeout(30 * time.Second))

			r.Get("/leagues", leagueHandler.ListLeagues)
			r.Post("/leagues", leagueHandler.CreateLeague)

			r.Route("/leagues/{leagueID}", func(r chi.Router) {
				r.Get("/", leagueHandler.GetLeague)
				r.Post("/join", leagueHandler.JoinLeague)
				r.Get("/members", leagueHandler.ListMembers)

				r.Post("/picks", pickHandler.SubmitPick)
				r.Get("/picks/me", pickHandler.MyPicks)
				r.Get("/standings", standingsHandler.GetStandings)

				// Commissioner overrides
				r.Put("/members/{userID}/pick", commissionerHandler.SetPick)
				r.Post("/members/{userID}/strikes", commissionerHandler.SetStrikes)
				r.Put("/members/{userID}/paid", commissionerHandler.MarkPaid)
				r.Get("/audit", commissionerHandler.AuditLog)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(cfg.AdminUserIDs, log))
				r.Post("/reconcile", adminHandler.Reconcile)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, errors.NewNotFoundError("Endpoint not found"), log)
	})

	log.Info("Router configured successfully")
	return r
}
