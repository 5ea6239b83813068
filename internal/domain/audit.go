package domain

import "time"

// AuditAction names a commissioner override
type AuditAction string

const (
	AuditSetPick      AuditAction = "set_pick"
	AuditAddStrike    AuditAction = "add_strike"
	AuditRemoveStrike AuditAction = "remove_strike"
	AuditMarkPaid     AuditAction = "mark_paid"
)

// AuditEntry records one commissioner override
type AuditEntry struct {
	ID           string      `json:"id"`
	LeagueID     string      `json:"league_id"`
	ActorID      string      `json:"actor_id"`
	TargetUserID string      `json:"target_user_id"`
	Action       AuditAction `json:"action"`
	Week         int         `json:"week"`
	TeamID       *int        `json:"team_id,omitempty"`
	Reason       string      `json:"reason"`
	CreatedAt    time.Time   `json:"created_at"`
}

// StrikeAction is the direction of a manual strike change
type StrikeAction string

const (
	StrikeAdd    StrikeAction = "add"
	StrikeRemove StrikeAction = "remove"
)

// SetMemberPickRequest is the commissioner payload for overriding a pick
type SetMemberPickRequest struct {
	Week       int    `json:"week"`
	TeamID     int    `json:"team_id"`
	PickNumber int    `json:"pick_number"`
	Reason     string `json:"reason"`
}

// SetMemberStrikesRequest is the commissioner payload for adjusting strikes
type SetMemberStrikesRequest struct {
	Action StrikeAction `json:"action"`
	Week   int          `json:"week"`
	Reason string       `json:"reason"`
}
