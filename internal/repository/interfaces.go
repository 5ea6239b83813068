package repository

import (
	"context"
	"errors"

	"survivor-api/internal/domain"
)

// ErrConflict is returned when a write violates a uniqueness constraint
var ErrConflict = errors.New("repository: unique constraint violated")

// Reader defines the read side of league, member and pick storage.
// Single-row getters return nil, nil when the row does not exist.
type Reader interface {
	// GetLeague retrieves a league by ID
	GetLeague(ctx context.Context, leagueID string) (*domain.League, error)

	// ListUserLeagues returns the leagues a user belongs to
	ListUserLeagues(ctx context.Context, userID string) ([]domain.League, error)

	// GetMember retrieves one member of a league
	GetMember(ctx context.Context, leagueID, userID string) (*domain.Member, error)

	// ListMembers returns every member of a league
	ListMembers(ctx context.Context, leagueID string) ([]domain.Member, error)

	// ListMemberPicks returns all of a member's picks in a league
	ListMemberPicks(ctx context.Context, leagueID, userID string) ([]domain.Pick, error)

	// ListLeaguePicks returns every pick in a league
	ListLeaguePicks(ctx context.Context, leagueID string) ([]domain.Pick, error)

	// ListPendingPicks returns up to limit unresolved picks across all leagues with an id
	// greater than afterID, in id order
	ListPendingPicks(ctx context.Context, afterID int64, limit int) ([]domain.Pick, error)

	// ListAudit returns the newest audit entries for a league
	ListAudit(ctx context.Context, leagueID string, limit int) ([]domain.AuditEntry, error)
}

// Writer defines the write side of league, member and pick storage
type Writer interface {
	// CreateLeague inserts a new league
	CreateLeague(ctx context.Context, league *domain.League) error

	// AddMember inserts a member, returning ErrConflict if they already joined
	AddMember(ctx context.Context, member *domain.Member) error

	// SetPaid updates a member's paid flag
	SetPaid(ctx context.Context, leagueID, userID string, paid bool) (*domain.Member, error)

	// UpsertPick replaces the pick in the (week, pick number) slot or inserts it.
	// Returns ErrConflict when the team is already used by the member.
	UpsertPick(ctx context.Context, pick *domain.Pick) error

	// ResolvePick moves a pending pick to a final result. It reports false when the
	// pick was no longer pending.
	ResolvePick(ctx context.Context, pickID int64, result domain.PickResult) (bool, error)

	// AdjustStrikes adds delta to a member's strikes, floors at zero and recomputes status.
	// With clamp set the count is also capped at the league's max strikes.
	AdjustStrikes(ctx context.Context, leagueID, userID string, delta int, clamp bool) (*domain.Member, error)

	// InsertAudit appends an audit entry
	InsertAudit(ctx context.Context, entry *domain.AuditEntry) error
}

// Tx is the set of operations available inside a transaction
type Tx interface {
	Reader
	Writer
}

// Store is the persistence boundary for the survivor pool
type Store interface {
	Tx

	// RunInTx runs fn in a transaction. A non-empty lockKey serializes every
	// transaction that uses the same key until commit or rollback.
	RunInTx(ctx context.Context, lockKey string, fn func(tx Tx) error) error

	// Health checks the backing store
	Health(ctx context.Context) error
}

// MemberLockKey is the lock key that serializes writes for one member of a league
func MemberLockKey(leagueID, userID string) string {
	return "member:" + leagueID + ":" + userID
}
