package domain

import (
	"fmt"
	"time"
)

// MemberStatus is a member's standing in a league
type MemberStatus int

const (
	MemberActive MemberStatus = iota
	MemberEliminated
)

func (s MemberStatus) String() string {
	switch s {
	case MemberActive:
		return "active"
	case MemberEliminated:
		return "eliminated"
	default:
		return fmt.Sprintf("MemberStatus(%d)", int(s))
	}
}

// ParseMemberStatus parses the stored representation of a member status
func ParseMemberStatus(s string) (MemberStatus, error) {
	switch s {
	case "active":
		return MemberActive, nil
	case "eliminated":
		return MemberEliminated, nil
	default:
		return MemberActive, fmt.Errorf("unknown member status %q", s)
	}
}

func (s MemberStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *MemberStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseMemberStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// StatusForStrikes derives the status a strike count implies
func StatusForStrikes(strikes, maxStrikes int) MemberStatus {
	if strikes >= maxStrikes {
		return MemberEliminated
	}
	return MemberActive
}

// Member is a user's participation in one league
type Member struct {
	LeagueID    string       `json:"league_id"`
	UserID      string       `json:"user_id"`
	DisplayName string       `json:"display_name"`
	Strikes     int          `json:"strikes"`
	Status      MemberStatus `json:"status"`
	HasPaid     bool         `json:"has_paid"`
	JoinedAt    time.Time    `json:"joined_at"`
}

// IsEliminated reports the stored elimination status
func (m *Member) IsEliminated() bool {
	return m.Status == MemberEliminated
}

// JoinLeagueRequest is the payload for joining a league
type JoinLeagueRequest struct {
	DisplayName string `json:"display_name"`
}

// MarkPaidRequest is the payload for recording a member's entry fee
type MarkPaidRequest struct {
	HasPaid bool   `json:"has_paid"`
	Reason  string `json:"reason"`
}
