package domain

import "time"

// VisiblePick is a pick as shown to a particular viewer. Hidden picks carry no team or result.
type VisiblePick struct {
	Week            int         `json:"week"`
	PickNumber      int         `json:"pick_number"`
	Hidden          bool        `json:"hidden"`
	TeamID          *int        `json:"team_id,omitempty"`
	Result          *PickResult `json:"result,omitempty"`
	EffectiveResult *PickResult `json:"effective_result,omitempty"`
}

// WeekPicks is one week's column for a standings row
type WeekPicks struct {
	Week  int           `json:"week"`
	Picks []VisiblePick `json:"picks"`
}

// StandingsRow is one member's line in the standings table
type StandingsRow struct {
	UserID           string       `json:"user_id"`
	DisplayName      string       `json:"display_name"`
	HasPaid          bool         `json:"has_paid"`
	StoredStrikes    int          `json:"stored_strikes"`
	EffectiveStrikes int          `json:"effective_strikes"`
	EffectiveStatus  MemberStatus `json:"effective_status"`
	Weeks            []WeekPicks  `json:"weeks"`
}

// Standings is the standings view for one league at a target week
type Standings struct {
	LeagueID      string         `json:"league_id"`
	LeagueName    string         `json:"league_name"`
	TargetWeek    int            `json:"target_week"`
	MaxStrikes    int            `json:"max_strikes"`
	PrizePot      int64          `json:"prize_pot"`
	ActiveMembers int            `json:"active_members"`
	Rows          []StandingsRow `json:"rows"`
	Degraded      bool           `json:"degraded"`
	GeneratedAt   time.Time      `json:"generated_at"`
}

// MemberPickHistory is a member's own view of their season
type MemberPickHistory struct {
	Member         Member `json:"member"`
	Picks          []Pick `json:"picks"`
	UsedTeams      []int  `json:"used_teams"`
	AvailableTeams []int  `json:"available_teams,omitempty"`
}
