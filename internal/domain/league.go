package domain

import "time"

const (
	// MinWeek and MaxWeek bound league week numbers. Weeks 19-22 are the postseason rounds.
	MinWeek = 1
	MaxWeek = 22

	// LastRegularSeasonWeek is the final week a league may start on.
	LastRegularSeasonWeek = 18

	MinStrikes = 1
	MaxStrikes = 5
)

// League is a survivor pool
type League struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	CommissionerID   string    `json:"commissioner_id"`
	Season           int       `json:"season"`
	MaxStrikes       int       `json:"max_strikes"`
	StartWeek        int       `json:"start_week"`
	DoublePickWeeks  []int     `json:"double_pick_weeks"`
	EntryFee         int64     `json:"entry_fee"`
	PrizePotOverride *int64    `json:"prize_pot_override,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// IsDoublePickWeek reports whether the week requires two picks
func (l *League) IsDoublePickWeek(week int) bool {
	for _, w := range l.DoublePickWeeks {
		if w == week {
			return true
		}
	}
	return false
}

// PicksRequired returns how many pick slots a member fills in the given week
func (l *League) PicksRequired(week int) int {
	if l.IsDoublePickWeek(week) {
		return 2
	}
	return 1
}

// IsCommissioner reports whether userID owns the league
func (l *League) IsCommissioner(userID string) bool {
	return userID != "" && l.CommissionerID == userID
}

// PrizePot returns the override when set, otherwise entry fee times paying members.
func (l *League) PrizePot(paidMembers int) int64 {
	if l.PrizePotOverride != nil {
		return *l.PrizePotOverride
	}
	return l.EntryFee * int64(paidMembers)
}

// CreateLeagueRequest is the payload for creating a league
type CreateLeagueRequest struct {
	Name             string `json:"name"`
	Season           int    `json:"season"`
	MaxStrikes       int    `json:"max_strikes"`
	StartWeek        int    `json:"start_week"`
	DoublePickWeeks  []int  `json:"double_pick_weeks"`
	EntryFee         int64  `json:"entry_fee"`
	PrizePotOverride *int64 `json:"prize_pot_override,omitempty"`
	DisplayName      string `json:"display_name"`
}
