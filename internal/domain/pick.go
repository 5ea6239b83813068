package domain

import (
	"fmt"
	"sort"
	"time"
)

// PickResult is the outcome of a pick
type PickResult int

const (
	ResultPending PickResult = iota
	ResultWin
	ResultLoss
)

func (r PickResult) String() string {
	switch r {
	case ResultPending:
		return "pending"
	case ResultWin:
		return "win"
	case ResultLoss:
		return "loss"
	default:
		return fmt.Sprintf("PickResult(%d)", int(r))
	}
}

// IsFinal reports whether the result is terminal
func (r PickResult) IsFinal() bool {
	switch r {
	case ResultWin, ResultLoss:
		return true
	case ResultPending:
		return false
	default:
		return false
	}
}

// ParsePickResult parses the stored representation of a pick result
func ParsePickResult(s string) (PickResult, error) {
	switch s {
	case "pending", "":
		return ResultPending, nil
	case "win":
		return ResultWin, nil
	case "loss":
		return ResultLoss, nil
	default:
		return ResultPending, fmt.Errorf("unknown pick result %q", s)
	}
}

func (r PickResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *PickResult) UnmarshalText(b []byte) error {
	parsed, err := ParsePickResult(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Pick is one team selection by one member for one week and slot
type Pick struct {
	ID         int64      `json:"id"`
	LeagueID   string     `json:"league_id"`
	UserID     string     `json:"user_id"`
	Week       int        `json:"week"`
	PickNumber int        `json:"pick_number"`
	TeamID     int        `json:"team_id"`
	GameID     string     `json:"game_id,omitempty"`
	Result     PickResult `json:"result"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// SubmitPickRequest is the payload for a member submitting a pick
type SubmitPickRequest struct {
	Week       int `json:"week"`
	TeamID     int `json:"team_id"`
	PickNumber int `json:"pick_number"`
}

// PicksByWeek groups a member's picks by week, each week ordered by pick number.
func PicksByWeek(picks []Pick) map[int][]Pick {
	byWeek := make(map[int][]Pick)
	for _, p := range picks {
		byWeek[p.Week] = append(byWeek[p.Week], p)
	}
	for week := range byWeek {
		sort.SliceStable(byWeek[week], func(i, j int) bool {
			return byWeek[week][i].PickNumber < byWeek[week][j].PickNumber
		})
	}
	return byWeek
}
