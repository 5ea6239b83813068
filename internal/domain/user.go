package domain

// UserProfile is the authenticated caller, taken from the bearer token claims
type UserProfile struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// LiveEvent is pushed to websocket subscribers of a league
type LiveEvent struct {
	Type     string `json:"type"`
	LeagueID string `json:"league_id"`
	Week     int    `json:"week,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

const (
	EventStandingsUpdated = "standings_updated"
)
