package service

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"survivor-api/internal/domain"
	"survivor-api/internal/repository"
	"survivor-api/pkg/logger"
)

var (
	testSeason  = 2025
	testKickoff = time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
)

// fakeSchedule serves games per week and can be told to fail
type fakeSchedule struct {
	mu    sync.Mutex
	weeks map[int][]domain.Game
	down  map[int]bool
}

func newFakeSchedule() *fakeSchedule {
	return &fakeSchedule{weeks: make(map[int][]domain.Game), down: make(map[int]bool)}
}

func (f *fakeSchedule) WeekGames(_ context.Context, _ int, week int) ([]domain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down[week] {
		return nil, stderrors.New("schedule source unreachable")
	}
	return f.weeks[week], nil
}

func (f *fakeSchedule) set(week int, games ...domain.Game) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.weeks[week] = games
}

func (f *fakeSchedule) setDown(week int, down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down[week] = down
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.LiveEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.LiveEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// testClock is a settable clock
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func scheduled(id string, home, away int, kickoff time.Time) domain.Game {
	return domain.Game{ID: id, HomeTeamID: home, AwayTeamID: away, State: domain.GameScheduled, Kickoff: kickoff}
}

func final(id string, home, away, homeScore, awayScore int) domain.Game {
	return domain.Game{
		ID: id, HomeTeamID: home, AwayTeamID: away, State: domain.GameFinal,
		Kickoff: testKickoff, HomeScore: homeScore, AwayScore: awayScore,
	}
}

type harness struct {
	store        *repository.MemoryStore
	schedule     *fakeSchedule
	events       *recordingPublisher
	clock        *testClock
	picks        PickService
	standings    StandingsService
	commissioner CommissionerService
	reconcile    ReconcileService
	leagues      LeagueService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:    repository.NewMemoryStore(),
		schedule: newFakeSchedule(),
		events:   &recordingPublisher{},
		clock:    &testClock{now: testKickoff.Add(-24 * time.Hour)},
	}
	log := logger.NewNop()
	h.picks = NewPickService(h.store, h.schedule, h.events, h.clock.Now, log)
	h.standings = NewStandingsService(h.store, h.schedule, h.clock.Now, log)
	h.commissioner = NewCommissionerService(h.store, h.schedule, h.events, h.clock.Now, log)
	h.reconcile = NewReconcileService(h.store, h.schedule, nil, h.events, "@every 1h", log)
	h.leagues = NewLeagueService(h.store, testSeason, log)
	return h
}

// createLeague creates a league owned by "commish" and joins the given members
func (h *harness) createLeague(t *testing.T, req domain.CreateLeagueRequest, members ...string) *domain.League {
	t.Helper()
	ctx := context.Background()
	if req.Name == "" {
		req.Name = "Office Pool"
	}
	league, err := h.leagues.CreateLeague(ctx, &domain.UserProfile{Sub: "commish", Name: "Commish"}, &req)
	require.NoError(t, err)
	for _, m := range members {
		_, err := h.leagues.JoinLeague(ctx, league.ID, &domain.UserProfile{Sub: m, Name: m}, &domain.JoinLeagueRequest{})
		require.NoError(t, err)
	}
	return league
}

func (h *harness) submit(leagueID, userID string, week, team, pickNumber int) (*domain.Pick, error) {
	return h.picks.SubmitPick(context.Background(), leagueID, userID, &domain.SubmitPickRequest{
		Week: week, TeamID: team, PickNumber: pickNumber,
	})
}

func (h *harness) member(t *testing.T, leagueID, userID string) *domain.Member {
	t.Helper()
	m, err := h.store.GetMember(context.Background(), leagueID, userID)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m
}
