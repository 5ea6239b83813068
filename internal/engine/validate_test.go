package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survivor-api/internal/domain"
	"survivor-api/pkg/errors"
)

func TestValidatePick(t *testing.T) {
	league := testLeague()
	league.StartWeek = 2
	before := kickoff.Add(-time.Hour)

	week5 := domain.NewWeekSchedule([]domain.Game{
		scheduledGame("g5a", 20, 21, kickoff),
		scheduledGame("g5b", 4, 6, kickoff),
	})
	week10 := domain.NewWeekSchedule([]domain.Game{
		scheduledGame("g10a", 5, 11, kickoff),
		scheduledGame("g10b", 9, 13, kickoff),
	})
	existing := []domain.Pick{
		pick(3, 1, 4, domain.ResultWin),
		pick(10, 1, 5, domain.ResultPending),
	}

	tests := []struct {
		name         string
		eliminated   bool
		week         int
		team         int
		pickNumber   int
		game         *domain.TeamGame
		now          time.Time
		commissioner bool
		wantType     errors.ErrorType
		wantRule     string
	}{
		{name: "valid pick", week: 5, team: 20, pickNumber: 1, game: week5.Team(20), now: before},
		{name: "eliminated member", eliminated: true, week: 1, team: 20, pickNumber: 3, now: before, wantType: errors.ErrorTypeForbidden, wantRule: RuleMemberEliminated},
		{name: "week before start", week: 1, team: 20, pickNumber: 1, game: week5.Team(20), now: before, wantType: errors.ErrorTypeInvalidArgument, wantRule: RuleWeekOutOfRange},
		{name: "week past postseason", week: 23, team: 20, pickNumber: 1, game: week5.Team(20), now: before, wantType: errors.ErrorTypeInvalidArgument, wantRule: RuleWeekOutOfRange},
		{name: "second pick outside double week", week: 5, team: 20, pickNumber: 2, game: week5.Team(20), now: before, wantType: errors.ErrorTypeInvalidArgument, wantRule: RulePickNumberNotAllowed},
		{name: "pick number zero", week: 5, team: 20, pickNumber: 0, game: week5.Team(20), now: before, wantType: errors.ErrorTypeInvalidArgument, wantRule: RulePickNumberNotAllowed},
		{name: "team on bye", week: 5, team: 30, pickNumber: 1, game: week5.Team(30), now: before, wantType: errors.ErrorTypeInvalidArgument, wantRule: RuleTeamOnBye},
		{name: "kickoff passed", week: 5, team: 20, pickNumber: 1, game: week5.Team(20), now: kickoff, wantType: errors.ErrorTypeConflict, wantRule: RuleGameStarted},
		{name: "team used in another week", week: 5, team: 4, pickNumber: 1, game: week5.Team(4), now: before, wantType: errors.ErrorTypeConflict, wantRule: RuleTeamAlreadyUsed},
		{name: "same team in both slots", week: 10, team: 5, pickNumber: 2, game: week10.Team(5), now: before, wantType: errors.ErrorTypeConflict, wantRule: RuleDuplicateTeamInWeek},
		{name: "second slot with a different team", week: 10, team: 9, pickNumber: 2, game: week10.Team(9), now: before},
		{name: "re-picking the same slot", week: 10, team: 5, pickNumber: 1, game: week10.Team(5), now: before},
		{name: "commissioner ignores kickoff", week: 5, team: 20, pickNumber: 1, game: week5.Team(20), now: kickoff, commissioner: true},
		{name: "commissioner ignores bye", week: 5, team: 30, pickNumber: 1, now: before, commissioner: true},
		{name: "commissioner still blocked on reuse", week: 5, team: 4, pickNumber: 1, now: kickoff, commissioner: true, wantType: errors.ErrorTypeConflict, wantRule: RuleTeamAlreadyUsed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			member := &domain.Member{UserID: "alice"}
			if tt.eliminated {
				member.Status = domain.MemberEliminated
			}
			err := ValidatePick(PickInput{
				League:       league,
				Member:       member,
				Week:         tt.week,
				TeamID:       tt.team,
				PickNumber:   tt.pickNumber,
				Existing:     existing,
				Game:         tt.game,
				Now:          tt.now,
				Commissioner: tt.commissioner,
			})

			if tt.wantRule == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := errors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, appErr.Type)
			assert.Equal(t, tt.wantRule, appErr.Rule)
		})
	}
}

func TestValidatePick_ReuseNamesConflictingWeek(t *testing.T) {
	err := ValidatePick(PickInput{
		League:     testLeague(),
		Member:     &domain.Member{UserID: "alice"},
		Week:       5,
		TeamID:     4,
		PickNumber: 1,
		Existing:   []domain.Pick{pick(3, 1, 4, domain.ResultWin)},
		Game:       domain.NewWeekSchedule([]domain.Game{scheduledGame("g", 4, 6, kickoff)}).Team(4),
		Now:        kickoff.Add(-time.Hour),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "week 3")
}

func TestUsedTeams(t *testing.T) {
	used := UsedTeams([]domain.Pick{
		pick(4, 1, 9, domain.ResultWin),
		pick(1, 1, 12, domain.ResultWin),
		pick(4, 2, 3, domain.ResultPending),
	})
	assert.Equal(t, []int{12, 9, 3}, used)
}

func TestValidatePick_StartedSlotCannotBeSwapped(t *testing.T) {
	week5 := domain.NewWeekSchedule([]domain.Game{
		{ID: "early", HomeTeamID: 20, AwayTeamID: 21, State: domain.GameInProgress, Kickoff: kickoff},
		scheduledGame("late", 4, 6, kickoff.Add(3*time.Hour)),
	})
	in := PickInput{
		League:     testLeague(),
		Member:     &domain.Member{UserID: "alice"},
		Week:       5,
		TeamID:     4,
		PickNumber: 1,
		Existing:   []domain.Pick{pick(5, 1, 20, domain.ResultPending)},
		Game:       week5.Team(4),
		SlotGame:   week5.Team(20),
		Now:        kickoff.Add(time.Hour),
	}

	err := ValidatePick(in)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, RuleGameStarted, appErr.Rule)

	in.Commissioner = true
	assert.NoError(t, ValidatePick(in))
}

func TestValidateSlot_SkipsScheduleRules(t *testing.T) {
	err := ValidateSlot(PickInput{
		League:     testLeague(),
		Member:     &domain.Member{UserID: "alice"},
		Week:       5,
		TeamID:     99,
		PickNumber: 1,
	})
	assert.NoError(t, err)
}
