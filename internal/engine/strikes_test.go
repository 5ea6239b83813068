package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"survivor-api/internal/domain"
)

func TestEffectiveStrikes(t *testing.T) {
	league := testLeague()
	schedule := domain.SeasonSchedule{
		1: domain.NewWeekSchedule([]domain.Game{finalGame("w1", 12, 3, 20, 17)}),
		2: domain.NewWeekSchedule([]domain.Game{finalGame("w2", 7, 8, 14, 14)}),
		3: domain.NewWeekSchedule([]domain.Game{finalGame("w3", 5, 9, 10, 31)}),
	}

	tests := []struct {
		name       string
		stored     int
		picks      []domain.Pick
		targetWeek int
		startWeek  int
		expected   int
	}{
		{
			name:       "win adds nothing",
			picks:      []domain.Pick{pick(1, 1, 12, domain.ResultPending)},
			targetWeek: 1,
			expected:   0,
		},
		{
			name:       "pending tie adds a strike",
			picks:      []domain.Pick{pick(1, 1, 12, domain.ResultPending), pick(2, 1, 7, domain.ResultPending)},
			targetWeek: 2,
			expected:   1,
		},
		{
			name:       "stored loss is not counted twice",
			stored:     1,
			picks:      []domain.Pick{pick(2, 1, 7, domain.ResultLoss)},
			targetWeek: 2,
			expected:   1,
		},
		{
			name:       "weeks after target are ignored",
			picks:      []domain.Pick{pick(3, 1, 5, domain.ResultPending)},
			targetWeek: 2,
			expected:   0,
		},
		{
			name:       "weeks before start are ignored",
			picks:      []domain.Pick{pick(2, 1, 7, domain.ResultPending), pick(3, 1, 5, domain.ResultPending)},
			targetWeek: 3,
			startWeek:  3,
			expected:   1,
		},
		{
			name:       "missing schedule counts as pending",
			picks:      []domain.Pick{pick(4, 1, 5, domain.ResultPending)},
			targetWeek: 4,
			expected:   0,
		},
		{
			name:       "result is not capped at max strikes",
			stored:     2,
			picks:      []domain.Pick{pick(2, 1, 7, domain.ResultPending), pick(3, 1, 5, domain.ResultPending)},
			targetWeek: 3,
			expected:   4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := *league
			if tt.startWeek > 0 {
				l.StartWeek = tt.startWeek
			}
			member := &domain.Member{UserID: "alice", Strikes: tt.stored}
			assert.Equal(t, tt.expected, EffectiveStrikes(member, tt.picks, &l, tt.targetWeek, schedule))
		})
	}
}

func TestEffectiveStrikes_RepeatedCallsDoNotAccumulate(t *testing.T) {
	league := testLeague()
	schedule := domain.SeasonSchedule{
		2: domain.NewWeekSchedule([]domain.Game{finalGame("w2", 7, 8, 14, 14)}),
	}
	member := &domain.Member{UserID: "alice"}
	picks := []domain.Pick{pick(2, 1, 7, domain.ResultPending)}

	for i := 0; i < 3; i++ {
		assert.Equal(t, 1, EffectiveStrikes(member, picks, league, 2, schedule))
	}
	assert.Equal(t, 0, member.Strikes)
}

func TestTieEliminatesBeforeReconciliation(t *testing.T) {
	league := testLeague()
	league.MaxStrikes = 1
	league.DoublePickWeeks = nil

	schedule := domain.SeasonSchedule{
		1: domain.NewWeekSchedule([]domain.Game{finalGame("w1", 12, 3, 20, 17)}),
		2: domain.NewWeekSchedule([]domain.Game{finalGame("w2", 7, 8, 14, 14)}),
	}
	member := &domain.Member{UserID: "alice", DisplayName: "Alice"}

	week1 := []domain.Pick{pick(1, 1, 12, domain.ResultPending)}
	row := BuildStandingsRow(member, week1, league, 1, "alice", schedule, kickoff)
	assert.Equal(t, 0, row.EffectiveStrikes)
	assert.Equal(t, domain.MemberActive, row.EffectiveStatus)
	assert.Equal(t, domain.ResultWin, *row.Weeks[0].Picks[0].EffectiveResult)

	both := append(week1, pick(2, 1, 7, domain.ResultPending))
	row = BuildStandingsRow(member, both, league, 2, "alice", schedule, kickoff)
	assert.Equal(t, 1, row.EffectiveStrikes)
	assert.Equal(t, domain.MemberEliminated, row.EffectiveStatus)
	assert.Equal(t, domain.ResultLoss, *row.Weeks[1].Picks[0].EffectiveResult)
	assert.Equal(t, 0, row.StoredStrikes)
}
