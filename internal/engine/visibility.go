package engine

import (
	"time"

	"survivor-api/internal/domain"
)

// VisiblePicks filters one week of a member's picks for a viewer.
//
// The owner always sees their picks. Everyone else sees a pick only once its game has kicked
// off or its result is stored, whatever week they ask for; until then it is replaced by a
// placeholder so "hidden" stays distinct from "no pick". Weeks after targetWeek are never
// returned.
func VisiblePicks(picks []domain.Pick, week, targetWeek int, viewerIsOwner bool, schedule domain.WeekSchedule, now time.Time) []domain.VisiblePick {
	if week > targetWeek {
		return nil
	}

	out := make([]domain.VisiblePick, 0, len(picks))
	for _, p := range picks {
		if p.Week != week {
			continue
		}

		game := schedule.Team(p.TeamID)
		if !viewerIsOwner && !p.Result.IsFinal() && !kickedOff(game, now) {
			out = append(out, domain.VisiblePick{
				Week:       p.Week,
				PickNumber: p.PickNumber,
				Hidden:     true,
			})
			continue
		}

		teamID := p.TeamID
		stored := p.Result
		effective := ResolveEffectiveResult(p.Result, game)
		out = append(out, domain.VisiblePick{
			Week:            p.Week,
			PickNumber:      p.PickNumber,
			TeamID:          &teamID,
			Result:          &stored,
			EffectiveResult: &effective,
		})
	}

	return out
}

// kickedOff treats an unknown game as not started so a fetch failure never leaks a pick.
func kickedOff(game *domain.TeamGame, now time.Time) bool {
	if game == nil {
		return false
	}
	return game.HasStarted(now)
}
