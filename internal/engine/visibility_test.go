package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survivor-api/internal/domain"
)

func TestVisiblePicks(t *testing.T) {
	before := kickoff.Add(-time.Hour)
	after := kickoff.Add(time.Minute)
	week5 := domain.NewWeekSchedule([]domain.Game{scheduledGame("g5", 20, 21, kickoff)})
	picks := []domain.Pick{pick(5, 1, 20, domain.ResultPending)}

	tests := []struct {
		name       string
		week       int
		targetWeek int
		owner      bool
		now        time.Time
		schedule   domain.WeekSchedule
		wantLen    int
		wantHidden bool
	}{
		{name: "current week hidden from others before kickoff", week: 5, targetWeek: 5, now: before, schedule: week5, wantLen: 1, wantHidden: true},
		{name: "current week visible to others at kickoff", week: 5, targetWeek: 5, now: kickoff, schedule: week5, wantLen: 1},
		{name: "current week visible to others after kickoff", week: 5, targetWeek: 5, now: after, schedule: week5, wantLen: 1},
		{name: "owner always sees current week", week: 5, targetWeek: 5, owner: true, now: before, schedule: week5, wantLen: 1},
		{name: "earlier week hidden from others until its kickoff", week: 5, targetWeek: 6, now: before, schedule: week5, wantLen: 1, wantHidden: true},
		{name: "earlier week visible to others after its kickoff", week: 5, targetWeek: 6, now: after, schedule: week5, wantLen: 1},
		{name: "owner sees earlier week before kickoff", week: 5, targetWeek: 6, owner: true, now: before, schedule: week5, wantLen: 1},
		{name: "unknown game keeps current week hidden", week: 5, targetWeek: 5, now: after, schedule: nil, wantLen: 1, wantHidden: true},
		{name: "future weeks are never surfaced", week: 5, targetWeek: 4, owner: true, now: after, schedule: week5, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VisiblePicks(picks, tt.week, tt.targetWeek, tt.owner, tt.schedule, tt.now)
			require.Len(t, got, tt.wantLen)
			if tt.wantLen == 0 {
				return
			}
			assert.Equal(t, tt.wantHidden, got[0].Hidden)
			if tt.wantHidden {
				assert.Nil(t, got[0].TeamID)
				assert.Nil(t, got[0].Result)
				assert.Nil(t, got[0].EffectiveResult)
			} else {
				require.NotNil(t, got[0].TeamID)
				assert.Equal(t, 20, *got[0].TeamID)
			}
			assert.Equal(t, 1, got[0].PickNumber)
		})
	}
}

func TestVisiblePicks_InProgressGameIsVisible(t *testing.T) {
	live := domain.NewWeekSchedule([]domain.Game{{
		ID: "g5", HomeTeamID: 20, AwayTeamID: 21, State: domain.GameInProgress,
		Kickoff: kickoff.Add(time.Hour),
	}})
	got := VisiblePicks([]domain.Pick{pick(5, 1, 20, domain.ResultPending)}, 5, 5, false, live, kickoff)
	require.Len(t, got, 1)
	assert.False(t, got[0].Hidden)
}

func TestVisiblePicks_StoredResultVisibleWithoutSchedule(t *testing.T) {
	got := VisiblePicks([]domain.Pick{pick(5, 1, 20, domain.ResultLoss)}, 5, 7, false, nil, kickoff)
	require.Len(t, got, 1)
	assert.False(t, got[0].Hidden)
	require.NotNil(t, got[0].Result)
	assert.Equal(t, domain.ResultLoss, *got[0].Result)
}
