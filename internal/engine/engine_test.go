package engine

import (
	"time"

	"survivor-api/internal/domain"
)

var kickoff = time.Date(2025, 10, 5, 17, 0, 0, 0, time.UTC)

func finalGame(gameID string, home, away, homeScore, awayScore int) domain.Game {
	return domain.Game{
		ID:         gameID,
		HomeTeamID: home,
		AwayTeamID: away,
		State:      domain.GameFinal,
		Kickoff:    kickoff,
		HomeScore:  homeScore,
		AwayScore:  awayScore,
	}
}

func scheduledGame(gameID string, home, away int, at time.Time) domain.Game {
	return domain.Game{
		ID:         gameID,
		HomeTeamID: home,
		AwayTeamID: away,
		State:      domain.GameScheduled,
		Kickoff:    at,
	}
}

func testLeague() *domain.League {
	return &domain.League{
		ID:              "league-1",
		Name:            "Office Pool",
		CommissionerID:  "commish",
		Season:          2025,
		MaxStrikes:      2,
		StartWeek:       1,
		DoublePickWeeks: []int{10},
	}
}

func pick(week, pickNumber, teamID int, result domain.PickResult) domain.Pick {
	return domain.Pick{
		LeagueID:   "league-1",
		UserID:     "alice",
		Week:       week,
		PickNumber: pickNumber,
		TeamID:     teamID,
		Result:     result,
	}
}
