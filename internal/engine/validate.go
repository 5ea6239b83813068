package engine

import (
	"fmt"
	"time"

	"survivor-api/internal/domain"
	"survivor-api/pkg/errors"
)

// Rule identifiers reported on rejected picks
const (
	RuleMemberEliminated     = "member_eliminated"
	RuleWeekOutOfRange       = "week_out_of_range"
	RulePickNumberNotAllowed = "pick_number_not_allowed"
	RuleTeamOnBye            = "team_on_bye"
	RuleGameStarted          = "game_started"
	RuleTeamAlreadyUsed      = "team_already_used"
	RuleDuplicateTeamInWeek  = "duplicate_team_in_week"
)

// PickInput is everything pick validation looks at
type PickInput struct {
	League     *domain.League
	Member     *domain.Member
	Week       int
	TeamID     int
	PickNumber int

	// Existing holds every pick the member has in the league
	Existing []domain.Pick

	// Game is the team's game in Week, nil when the team is on bye
	Game *domain.TeamGame

	// SlotGame is the game of the pick currently in the slot, if any
	SlotGame *domain.TeamGame
	Now      time.Time

	// Commissioner overrides skip the elimination, bye and kickoff checks
	Commissioner bool
}

// ValidateSlot checks the rules that need no schedule data: the member may still pick,
// the week is in range and the slot exists for that week.
func ValidateSlot(in PickInput) error {
	if !in.Commissioner && in.Member.IsEliminated() {
		return errors.NewForbiddenError("eliminated members cannot make picks").
			WithRule(RuleMemberEliminated)
	}

	if in.Week < in.League.StartWeek || in.Week > domain.MaxWeek {
		return errors.NewInvalidArgumentError(
			fmt.Sprintf("week %d is outside the league's weeks %d-%d", in.Week, in.League.StartWeek, domain.MaxWeek)).
			WithRule(RuleWeekOutOfRange).
			WithDetail("week", in.Week)
	}

	switch in.PickNumber {
	case 1:
	case 2:
		if !in.League.IsDoublePickWeek(in.Week) {
			return errors.NewInvalidArgumentError(
				fmt.Sprintf("week %d is not a double-pick week", in.Week)).
				WithRule(RulePickNumberNotAllowed).
				WithDetail("pick_number", in.PickNumber)
		}
	default:
		return errors.NewInvalidArgumentError(
			fmt.Sprintf("pick number must be 1 or 2, got %d", in.PickNumber)).
			WithRule(RulePickNumberNotAllowed).
			WithDetail("pick_number", in.PickNumber)
	}

	return nil
}

// ValidatePick runs the pick rules in order and returns the first violation
func ValidatePick(in PickInput) error {
	if err := ValidateSlot(in); err != nil {
		return err
	}

	if !in.Commissioner {
		if in.Game == nil {
			return errors.NewInvalidArgumentError(
				fmt.Sprintf("team %d is on bye in week %d", in.TeamID, in.Week)).
				WithRule(RuleTeamOnBye).
				WithDetail("team_id", in.TeamID)
		}
		if in.Game.HasStarted(in.Now) {
			return errors.NewConflictError(
				fmt.Sprintf("team %d's week %d game has already started", in.TeamID, in.Week)).
				WithRule(RuleGameStarted).
				WithDetail("game_id", in.Game.GameID)
		}
		if in.SlotGame != nil && in.SlotGame.TeamID != in.TeamID && in.SlotGame.HasStarted(in.Now) {
			return errors.NewConflictError(
				fmt.Sprintf("the current week %d pick is locked because its game has started", in.Week)).
				WithRule(RuleGameStarted).
				WithDetail("game_id", in.SlotGame.GameID)
		}
	}

	for _, p := range in.Existing {
		if p.TeamID == in.TeamID && p.Week != in.Week {
			return errors.NewConflictError(
				fmt.Sprintf("team %d was already used in week %d", in.TeamID, p.Week)).
				WithRule(RuleTeamAlreadyUsed).
				WithDetail("used_week", p.Week)
		}
	}

	for _, p := range in.Existing {
		if p.Week == in.Week && p.PickNumber != in.PickNumber && p.TeamID == in.TeamID {
			return errors.NewConflictError("cannot pick the same team twice in one week").
				WithRule(RuleDuplicateTeamInWeek).
				WithDetail("pick_number", p.PickNumber)
		}
	}

	return nil
}

// SlotPick returns the member's existing pick in (week, pickNumber), if any
func SlotPick(existing []domain.Pick, week, pickNumber int) *domain.Pick {
	for i := range existing {
		if existing[i].Week == week && existing[i].PickNumber == pickNumber {
			return &existing[i]
		}
	}
	return nil
}

// UsedTeams returns the distinct teams a member has picked, in week order
func UsedTeams(existing []domain.Pick) []int {
	byWeek := domain.PicksByWeek(existing)
	seen := make(map[int]bool)
	var used []int
	for week := domain.MinWeek; week <= domain.MaxWeek; week++ {
		for _, p := range byWeek[week] {
			if !seen[p.TeamID] {
				seen[p.TeamID] = true
				used = append(used, p.TeamID)
			}
		}
	}
	return used
}
