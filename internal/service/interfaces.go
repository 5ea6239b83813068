package service

import (
	"context"

	"survivor-api/internal/domain"
)

// LeagueService defines league membership operations
type LeagueService interface {
	// CreateLeague creates a league with the caller as commissioner and first member
	CreateLeague(ctx context.Context, user *domain.UserProfile, req *domain.CreateLeagueRequest) (*domain.League, error)

	// GetLeague returns a league the caller belongs to
	GetLeague(ctx context.Context, leagueID, userID string) (*domain.League, error)

	// ListLeagues returns the caller's leagues
	ListLeagues(ctx context.Context, userID string) ([]domain.League, error)

	// JoinLeague adds the caller to a league
	JoinLeague(ctx context.Context, leagueID string, user *domain.UserProfile, req *domain.JoinLeagueRequest) (*domain.Member, error)

	// ListMembers returns the league's members
	ListMembers(ctx context.Context, leagueID, userID string) ([]domain.Member, error)
}

// PickService defines member pick operations
type PickService interface {
	// SubmitPick validates and records a member's pick
	SubmitPick(ctx context.Context, leagueID, userID string, req *domain.SubmitPickRequest) (*domain.Pick, error)

	// MemberHistory returns the caller's picks, used teams and the teams still open in week
	MemberHistory(ctx context.Context, leagueID, userID string, week int) (*domain.MemberPickHistory, error)
}

// StandingsService defines the standings query
type StandingsService interface {
	// GetStandings builds the league table as seen by viewerID at targetWeek
	GetStandings(ctx context.Context, leagueID, viewerID string, targetWeek int) (*domain.Standings, error)
}

// CommissionerService defines the commissioner overrides. Every method checks that the
// actor is the league's commissioner.
type CommissionerService interface {
	// SetMemberPick sets a member's pick, bypassing the kickoff lock
	SetMemberPick(ctx context.Context, leagueID, actorID, targetUserID string, req *domain.SetMemberPickRequest) (*domain.Pick, error)

	// SetMemberStrikes adds or removes one stored strike
	SetMemberStrikes(ctx context.Context, leagueID, actorID, targetUserID string, req *domain.SetMemberStrikesRequest) (*domain.Member, error)

	// MarkPaid records whether a member has paid the entry fee
	MarkPaid(ctx context.Context, leagueID, actorID, targetUserID string, req *domain.MarkPaidRequest) (*domain.Member, error)

	// AuditLog returns the newest override entries
	AuditLog(ctx context.Context, leagueID, actorID string, limit int) ([]domain.AuditEntry, error)
}

// ReconcileService defines background result reconciliation
type ReconcileService interface {
	// Start schedules periodic reconciliation
	Start(ctx context.Context) error

	// Stop waits for a running pass and stops the schedule
	Stop(ctx context.Context) error

	// ReconcilePendingPicks resolves pending picks whose games are final and returns how many changed
	ReconcilePendingPicks(ctx context.Context) (int, error)
}

// EventPublisher delivers live events to league subscribers
type EventPublisher interface {
	Publish(ctx context.Context, event domain.LiveEvent)
}

// Services aggregates all service interfaces
type Services struct {
	Auth         AuthService
	League       LeagueService
	Pick         PickService
	Standings    StandingsService
	Commissioner CommissionerService
	Reconcile    ReconcileService
}

// AuthService defines bearer token validation
type AuthService interface {
	// ValidateToken verifies a bearer token and returns the caller's profile
	ValidateToken(ctx context.Context, token string) (*domain.UserProfile, error)
}
