package domain

import (
	"fmt"
	"time"
)

// GameState is the progress of an NFL game
type GameState int

const (
	GameScheduled GameState = iota
	GameInProgress
	GameFinal
)

func (s GameState) String() string {
	switch s {
	case GameScheduled:
		return "scheduled"
	case GameInProgress:
		return "in-progress"
	case GameFinal:
		return "final"
	default:
		return fmt.Sprintf("GameState(%d)", int(s))
	}
}

func (s GameState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *GameState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "scheduled":
		*s = GameScheduled
	case "in-progress":
		*s = GameInProgress
	case "final":
		*s = GameFinal
	default:
		return fmt.Errorf("unknown game state %q", string(b))
	}
	return nil
}

// Game is one scheduled NFL game as reported by the schedule source
type Game struct {
	ID         string    `json:"id"`
	HomeTeamID int       `json:"home_team_id"`
	AwayTeamID int       `json:"away_team_id"`
	State      GameState `json:"state"`
	Kickoff    time.Time `json:"kickoff"`
	HomeScore  int       `json:"home_score"`
	AwayScore  int       `json:"away_score"`
}

// TeamGame is a game seen from one team's side
type TeamGame struct {
	GameID        string    `json:"game_id"`
	TeamID        int       `json:"team_id"`
	OpponentID    int       `json:"opponent_id"`
	State         GameState `json:"state"`
	Kickoff       time.Time `json:"kickoff"`
	TeamScore     int       `json:"team_score"`
	OpponentScore int       `json:"opponent_score"`
}

// HasStarted reports whether the game is locked for member picks at now
func (g *TeamGame) HasStarted(now time.Time) bool {
	if g.State != GameScheduled {
		return true
	}
	return !g.Kickoff.IsZero() && !now.Before(g.Kickoff)
}

// WeekSchedule indexes one week's games by team id
type WeekSchedule map[int]TeamGame

// NewWeekSchedule builds the per-team index for a week of games. A team on bye has no entry.
func NewWeekSchedule(games []Game) WeekSchedule {
	ws := make(WeekSchedule, len(games)*2)
	for _, g := range games {
		ws[g.HomeTeamID] = TeamGame{
			GameID:        g.ID,
			TeamID:        g.HomeTeamID,
			OpponentID:    g.AwayTeamID,
			State:         g.State,
			Kickoff:       g.Kickoff,
			TeamScore:     g.HomeScore,
			OpponentScore: g.AwayScore,
		}
		ws[g.AwayTeamID] = TeamGame{
			GameID:        g.ID,
			TeamID:        g.AwayTeamID,
			OpponentID:    g.HomeTeamID,
			State:         g.State,
			Kickoff:       g.Kickoff,
			TeamScore:     g.AwayScore,
			OpponentScore: g.HomeScore,
		}
	}
	return ws
}

// Team looks up a team's game, returning nil when absent
func (ws WeekSchedule) Team(teamID int) *TeamGame {
	g, ok := ws[teamID]
	if !ok {
		return nil
	}
	return &g
}

// SeasonSchedule indexes week schedules by league week. Missing weeks are unknown, not empty.
type SeasonSchedule map[int]WeekSchedule

// Lookup returns the team's game in a week, or nil when the week or team is unknown
func (s SeasonSchedule) Lookup(week, teamID int) *TeamGame {
	ws, ok := s[week]
	if !ok {
		return nil
	}
	return ws.Team(teamID)
}

// SeasonType is the upstream's season phase
type SeasonType int

const (
	SeasonTypeRegular    SeasonType = 2
	SeasonTypePostseason SeasonType = 3
)

// UpstreamWeek translates a league week into the upstream's (season type, week) pair.
// League weeks 19-22 are the Wild Card, Divisional, Conference and Super Bowl rounds; the
// upstream numbers the Super Bowl as postseason week 5 because week 4 is the Pro Bowl.
func UpstreamWeek(week int) (SeasonType, int, error) {
	switch {
	case week >= MinWeek && week <= LastRegularSeasonWeek:
		return SeasonTypeRegular, week, nil
	case week >= 19 && week <= 21:
		return SeasonTypePostseason, week - LastRegularSeasonWeek, nil
	case week == MaxWeek:
		return SeasonTypePostseason, 5, nil
	default:
		return 0, 0, fmt.Errorf("week %d out of range %d-%d", week, MinWeek, MaxWeek)
	}
}
