package service

import (
	"context"
	"fmt"
	"sync"

	"survivor-api/internal/domain"
	"survivor-api/internal/engine"
	"survivor-api/internal/repository"
	"survivor-api/internal/schedule"
	"survivor-api/pkg/errors"
	"survivor-api/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// scheduleFetchConcurrency bounds parallel week fetches for one standings request
const scheduleFetchConcurrency = 4

type standingsService struct {
	store    repository.Store
	schedule schedule.Source
	now      Clock
	logger   *logger.Logger
}

// NewStandingsService creates a new standings service
func NewStandingsService(store repository.Store, src schedule.Source, now Clock, log *logger.Logger) StandingsService {
	return &standingsService{
		store:    store,
		schedule: src,
		now:      clockOrNow(now),
		logger:   log.Component("standings_service"),
	}
}

// GetStandings builds the standings table. A targetWeek of 0 means the latest week anyone
// has picked in, or the league's start week when nobody has. Weeks whose schedule cannot be
// fetched are treated as unknown, so their pending picks stay pending and Degraded is set.
func (s *standingsService) GetStandings(ctx context.Context, leagueID, viewerID string, targetWeek int) (*domain.Standings, error) {
	league, err := loadLeague(ctx, s.store, leagueID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.store, leagueID, viewerID); err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx, leagueID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load members", err)
	}
	picks, err := s.store.ListLeaguePicks(ctx, leagueID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load picks", err)
	}

	if targetWeek == 0 {
		targetWeek = latestPickedWeek(picks, league.StartWeek)
	}
	if targetWeek < domain.MinWeek || targetWeek > domain.MaxWeek {
		return nil, errors.NewInvalidArgumentError(
			fmt.Sprintf("week must be between %d and %d", domain.MinWeek, domain.MaxWeek))
	}

	season, degraded := s.loadSeason(ctx, league, targetWeek)

	byUser := make(map[string][]domain.Pick, len(members))
	for _, p := range picks {
		byUser[p.UserID] = append(byUser[p.UserID], p)
	}

	now := s.now()
	rows := make([]domain.StandingsRow, 0, len(members))
	paid := 0
	active := 0
	for i := range members {
		m := &members[i]
		if m.HasPaid {
			paid++
		}
		row := engine.BuildStandingsRow(m, byUser[m.UserID], league, targetWeek, viewerID, season, now)
		if row.EffectiveStatus == domain.MemberActive {
			active++
		}
		rows = append(rows, row)
	}

	return &domain.Standings{
		LeagueID:      league.ID,
		LeagueName:    league.Name,
		TargetWeek:    targetWeek,
		MaxStrikes:    league.MaxStrikes,
		PrizePot:      league.PrizePot(paid),
		ActiveMembers: active,
		Rows:          engine.SortStandings(rows),
		Degraded:      degraded,
		GeneratedAt:   now,
	}, nil
}

// loadSeason fetches every week in the counting window concurrently. Failed weeks are left
// out of the result and reported through the degraded flag.
func (s *standingsService) loadSeason(ctx context.Context, league *domain.League, targetWeek int) (domain.SeasonSchedule, bool) {
	season := make(domain.SeasonSchedule)
	if targetWeek < league.StartWeek {
		return season, false
	}

	var (
		mu       sync.Mutex
		degraded bool
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(scheduleFetchConcurrency)

	for week := league.StartWeek; week <= targetWeek; week++ {
		week := week
		g.Go(func() error {
			games, err := s.schedule.WeekGames(gCtx, league.Season, week)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				degraded = true
				s.logger.WithLeague(league.ID, "").WithError(err).WithField("week", week).
					Warn("Schedule unavailable, treating week as pending")
				return nil
			}
			season[week] = domain.NewWeekSchedule(games)
			return nil
		})
	}
	_ = g.Wait()

	return season, degraded
}

func latestPickedWeek(picks []domain.Pick, startWeek int) int {
	latest := startWeek
	for _, p := range picks {
		if p.Week > latest {
			latest = p.Week
		}
	}
	return latest
}
