package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survivor-api/internal/domain"
	"survivor-api/internal/engine"
	"survivor-api/pkg/errors"
)

func requireRule(t *testing.T, err error, errType errors.ErrorType, rule string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, errType, appErr.Type)
	assert.Equal(t, rule, appErr.Rule)
}

func TestSubmitPick(t *testing.T) {
	h := newHarness(t)
	league := h.createLeague(t, domain.CreateLeagueRequest{MaxStrikes: 2}, "alice", "bob")

	h.schedule.set(3, scheduled("w3a", 4, 6, testKickoff), scheduled("w3b", 20, 21, testKickoff))
	h.schedule.set(5, scheduled("w5a", 4, 8, testKickoff.Add(14*24*time.Hour)))

	pick, err := h.submit(league.ID, "alice", 3, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, "w3a", pick.GameID)
	assert.Equal(t, domain.ResultPending, pick.Result)
	assert.Equal(t, 1, h.events.count())

	t.Run("team reuse in a later week is a conflict", func(t *testing.T) {
		_, err := h.submit(league.ID, "alice", 5, 4, 1)
		requireRule(t, err, errors.ErrorTypeConflict, engine.RuleTeamAlreadyUsed)
	})

	t.Run("re-submitting the same slot is an idempotent edit", func(t *testing.T) {
		again, err := h.submit(league.ID, "alice", 3, 4, 1)
		require.NoError(t, err)
		assert.Equal(t, pick.ID, again.ID)
	})

	t.Run("changing the slot before kickoff replaces the team", func(t *testing.T) {
		changed, err := h.submit(league.ID, "alice", 3, 20, 0)
		require.NoError(t, err)
		assert.Equal(t, pick.ID, changed.ID)

		picks, err := h.store.ListMemberPicks(context.Background(), league.ID, "alice")
		require.NoError(t, err)
		require.Len(t, picks, 1)
		assert.Equal(t, 20, picks[0].TeamID)
	})

	t.Run("team on bye", func(t *testing.T) {
		_, err := h.submit(league.ID, "bob", 3, 30, 1)
		requireRule(t, err, errors.ErrorTypeInvalidArgument, engine.RuleTeamOnBye)
	})

	t.Run("game already started", func(t *testing.T) {
		h.clock.Set(testKickoff.Add(time.Minute))
		defer h.clock.Set(testKickoff.Add(-24 * time.Hour))

		_, err := h.submit(league.ID, "bob", 3, 6, 1)
		requireRule(t, err, errors.ErrorTypeConflict, engine.RuleGameStarted)
	})

	t.Run("week out of range", func(t *testing.T) {
		_, err := h.submit(league.ID, "bob", 23, 6, 1)
		requireRule(t, err, errors.ErrorTypeInvalidArgument, engine.RuleWeekOutOfRange)
	})

	t.Run("outsider cannot pick", func(t *testing.T) {
		_, err := h.submit(league.ID, "mallory", 3, 6, 1)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeForbidden))
	})

	t.Run("unknown league", func(t *testing.T) {
		_, err := h.submit("nope", "bob", 3, 6, 1)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	})
}

func TestSubmitPick_EliminatedMember(t *testing.T) {
	h := newHarness(t)
	league := h.createLeague(t, domain.CreateLeagueRequest{MaxStrikes: 1}, "alice")
	h.schedule.set(2, scheduled("w2", 4, 6, testKickoff))

	_, err := h.commissioner.SetMemberStrikes(context.Background(), league.ID, "commish", "alice",
		&domain.SetMemberStrikesRequest{Action: domain.StrikeAdd, Week: 1})
	require.NoError(t, err)

	_, err = h.submit(league.ID, "alice", 2, 4, 1)
	requireRule(t, err, errors.ErrorTypeForbidden, engine.RuleMemberEliminated)
}

func TestSubmitPick_ScheduleUnavailable(t *testing.T) {
	h := newHarness(t)
	league := h.createLeague(t, domain.CreateLeagueRequest{}, "alice")
	h.schedule.setDown(4, true)

	_, err := h.submit(league.ID, "alice", 4, 12, 1)
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeUpstreamUnavailable, appErr.Type)
	assert.True(t, appErr.Retryable)
}

func TestSubmitPick_DoublePickWeek(t *testing.T) {
	h := newHarness(t)
	league := h.createLeague(t, domain.CreateLeagueRequest{DoublePickWeeks: []int{10}}, "alice")
	h.schedule.set(10,
		scheduled("w10a", 5, 11, testKickoff),
		scheduled("w10b", 9, 13, testKickoff),
	)

	_, err := h.submit(league.ID, "alice", 10, 5, 1)
	require.NoError(t, err)

	_, err = h.submit(league.ID, "alice", 10, 5, 2)
	requireRule(t, err, errors.ErrorTypeConflict, engine.RuleDuplicateTeamInWeek)
	assert.Contains(t, err.Error(), "cannot pick the same team twice in one week")

	second, err := h.submit(league.ID, "alice", 10, 9, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, second.PickNumber)

	h.schedule.set(11, scheduled("w11", 5, 9, testKickoff))
	_, err = h.submit(league.ID, "alice", 11, 9, 2)
	requireRule(t, err, errors.ErrorTypeInvalidArgument, engine.RulePickNumberNotAllowed)
}

func TestSubmitPick_ConcurrentReuseSucceedsOnce(t *testing.T) {
	h := newHarness(t)
	league := h.createLeague(t, domain.CreateLeagueRequest{}, "alice")
	for week := 1; week <= 8; week++ {
		h.schedule.set(week, scheduled("g", 7, 8, testKickoff.Add(time.Duration(week)*7*24*time.Hour)))
	}

	var (
		wg        sync.WaitGroup
		successes int32
	)
	for week := 1; week <= 8; week++ {
		wg.Add(1)
		go func(week int) {
			defer wg.Done()
			if _, err := h.submit(league.ID, "alice", week, 7, 1); err == nil {
				atomic.AddInt32(&successes, 1)
			} else {
				assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))
			}
		}(week)
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes)
	picks, err := h.store.ListMemberPicks(context.Background(), league.ID, "alice")
	require.NoError(t, err)
	assert.Len(t, picks, 1)
}

func TestMemberHistory(t *testing.T) {
	h := newHarness(t)
	league := h.createLeague(t, domain.CreateLeagueRequest{}, "alice")
	h.schedule.set(1, scheduled("w1", 12, 3, testKickoff))
	h.schedule.set(2,
		scheduled("w2a", 12, 7, testKickoff.Add(7*24*time.Hour)),
		scheduled("w2b", 3, 9, testKickoff.Add(7*24*time.Hour)),
	)

	_, err := h.submit(league.ID, "alice", 1, 12, 1)
	require.NoError(t, err)

	history, err := h.picks.MemberHistory(context.Background(), league.ID, "alice", 2)
	require.NoError(t, err)
	assert.Len(t, history.Picks, 1)
	assert.Equal(t, []int{12}, history.UsedTeams)
	assert.Equal(t, []int{3, 7, 9}, history.AvailableTeams)

	h.schedule.setDown(2, true)
	history, err = h.picks.MemberHistory(context.Background(), league.ID, "alice", 2)
	require.NoError(t, err)
	assert.Nil(t, history.AvailableTeams)
}
