package repository

import (
	"context"
	"errors"
	"fmt"

	"survivor-api/internal/domain"
	"survivor-api/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// querier is satisfied by both the pool and a transaction
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgQueries implements Tx over any querier
type pgQueries struct {
	q querier
}

// PostgresStore is the pgx-backed Store
type PostgresStore struct {
	pgQueries
	db *database.PostgresDB
}

// NewPostgresStore creates a store on an open connection pool
func NewPostgresStore(db *database.PostgresDB) *PostgresStore {
	return &PostgresStore{
		pgQueries: pgQueries{q: db.Pool},
		db:        db,
	}
}

// RunInTx runs fn inside a transaction, holding a transaction-scoped advisory lock on lockKey
func (s *PostgresStore) RunInTx(ctx context.Context, lockKey string, fn func(tx Tx) error) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if lockKey != "" {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", lockKey); err != nil {
			return fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
		}
	}

	if err := fn(&pgQueries{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Health checks the database connection
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

const leagueColumns = `id, name, commissioner_id, season, max_strikes, start_week,
	double_pick_weeks, entry_fee, prize_pot_override, created_at`

func scanLeague(row pgx.Row) (*domain.League, error) {
	var l domain.League
	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.CommissionerID,
		&l.Season,
		&l.MaxStrikes,
		&l.StartWeek,
		&l.DoublePickWeeks,
		&l.EntryFee,
		&l.PrizePotOverride,
		&l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLeague retrieves a league by ID
func (r *pgQueries) GetLeague(ctx context.Context, leagueID string) (*domain.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE id = $1`

	league, err := scanLeague(r.q.QueryRow(ctx, query, leagueID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	return league, nil
}

// ListUserLeagues returns the leagues a user belongs to, newest first
func (r *pgQueries) ListUserLeagues(ctx context.Context, userID string) ([]domain.League, error) {
	query := `
		SELECT l.id, l.name, l.commissioner_id, l.season, l.max_strikes, l.start_week,
		       l.double_pick_weeks, l.entry_fee, l.prize_pot_override, l.created_at
		FROM leagues l
		JOIN league_members m ON m.league_id = l.id
		WHERE m.user_id = $1
		ORDER BY l.created_at DESC
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}
	defer rows.Close()

	var leagues []domain.League
	for rows.Next() {
		l, err := scanLeague(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, *l)
	}
	return leagues, rows.Err()
}

const memberColumns = `league_id, user_id, display_name, strikes, status, has_paid, joined_at`

func scanMember(row pgx.Row) (*domain.Member, error) {
	var (
		m      domain.Member
		status string
	)
	err := row.Scan(&m.LeagueID, &m.UserID, &m.DisplayName, &m.Strikes, &status, &m.HasPaid, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	if m.Status, err = domain.ParseMemberStatus(status); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMember retrieves one member of a league
func (r *pgQueries) GetMember(ctx context.Context, leagueID, userID string) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM league_members WHERE league_id = $1 AND user_id = $2`

	member, err := scanMember(r.q.QueryRow(ctx, query, leagueID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// ListMembers returns every member of a league in join order
func (r *pgQueries) ListMembers(ctx context.Context, leagueID string) ([]domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM league_members WHERE league_id = $1 ORDER BY joined_at, user_id`

	rows, err := r.q.Query(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// Legacy rows written before double-pick weeks have no pick number; they are slot 1.
const pickColumns = `id, league_id, user_id, week, COALESCE(pick_number, 1), team_id,
	COALESCE(game_id, ''), result, created_at, updated_at`

func scanPick(row pgx.Row) (*domain.Pick, error) {
	var (
		p      domain.Pick
		result string
	)
	err := row.Scan(
		&p.ID,
		&p.LeagueID,
		&p.UserID,
		&p.Week,
		&p.PickNumber,
		&p.TeamID,
		&p.GameID,
		&result,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Result, err = domain.ParsePickResult(result); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgQueries) listPicks(ctx context.Context, query string, args ...any) ([]domain.Pick, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	defer rows.Close()

	var picks []domain.Pick
	for rows.Next() {
		p, err := scanPick(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, *p)
	}
	return picks, rows.Err()
}

// ListMemberPicks returns all of a member's picks ordered by week and slot
func (r *pgQueries) ListMemberPicks(ctx context.Context, leagueID, userID string) ([]domain.Pick, error) {
	query := `SELECT ` + pickColumns + ` FROM picks
		WHERE league_id = $1 AND user_id = $2
		ORDER BY week, COALESCE(pick_number, 1)`
	return r.listPicks(ctx, query, leagueID, userID)
}

// ListLeaguePicks returns every pick in a league
func (r *pgQueries) ListLeaguePicks(ctx context.Context, leagueID string) ([]domain.Pick, error) {
	query := `SELECT ` + pickColumns + ` FROM picks
		WHERE league_id = $1
		ORDER BY user_id, week, COALESCE(pick_number, 1)`
	return r.listPicks(ctx, query, leagueID)
}

// ListPendingPicks returns one keyset page of unresolved picks
func (r *pgQueries) ListPendingPicks(ctx context.Context, afterID int64, limit int) ([]domain.Pick, error) {
	query := `SELECT ` + pickColumns + ` FROM picks
		WHERE result = 'pending' AND id > $1
		ORDER BY id
		LIMIT $2`
	return r.listPicks(ctx, query, afterID, limit)
}

// ListAudit returns the newest audit entries for a league
func (r *pgQueries) ListAudit(ctx context.Context, leagueID string, limit int) ([]domain.AuditEntry, error) {
	query := `
		SELECT id, league_id, actor_id, target_user_id, action, week, team_id, reason, created_at
		FROM audit_log
		WHERE league_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, leagueID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(
			&e.ID,
			&e.LeagueID,
			&e.ActorID,
			&e.TargetUserID,
			&e.Action,
			&e.Week,
			&e.TeamID,
			&e.Reason,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CreateLeague inserts a new league
func (r *pgQueries) CreateLeague(ctx context.Context, league *domain.League) error {
	query := `
		INSERT INTO leagues (
			id, name, commissioner_id, season, max_strikes, start_week,
			double_pick_weeks, entry_fee, prize_pot_override
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	weeks := league.DoublePickWeeks
	if weeks == nil {
		weeks = []int{}
	}

	err := r.q.QueryRow(ctx, query,
		league.ID,
		league.Name,
		league.CommissionerID,
		league.Season,
		league.MaxStrikes,
		league.StartWeek,
		weeks,
		league.EntryFee,
		league.PrizePotOverride,
	).Scan(&league.CreatedAt)

	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create league: %w", err)
	}
	return nil
}

// AddMember inserts a member
func (r *pgQueries) AddMember(ctx context.Context, member *domain.Member) error {
	query := `
		INSERT INTO league_members (league_id, user_id, display_name, strikes, status, has_paid)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING joined_at
	`

	err := r.q.QueryRow(ctx, query,
		member.LeagueID,
		member.UserID,
		member.DisplayName,
		member.Strikes,
		member.Status.String(),
		member.HasPaid,
	).Scan(&member.JoinedAt)

	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// SetPaid updates a member's paid flag
func (r *pgQueries) SetPaid(ctx context.Context, leagueID, userID string, paid bool) (*domain.Member, error) {
	query := `UPDATE league_members SET has_paid = $3
		WHERE league_id = $1 AND user_id = $2
		RETURNING ` + memberColumns

	member, err := scanMember(r.q.QueryRow(ctx, query, leagueID, userID, paid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set paid: %w", err)
	}
	return member, nil
}

// UpsertPick replaces the pick in its slot or inserts it
func (r *pgQueries) UpsertPick(ctx context.Context, pick *domain.Pick) error {
	update := `
		UPDATE picks
		SET team_id = $5, game_id = NULLIF($6, ''), result = $7, pick_number = $4, updated_at = NOW()
		WHERE league_id = $1 AND user_id = $2 AND week = $3 AND COALESCE(pick_number, 1) = $4
		RETURNING id, created_at, updated_at
	`
	args := []any{
		pick.LeagueID,
		pick.UserID,
		pick.Week,
		pick.PickNumber,
		pick.TeamID,
		pick.GameID,
		pick.Result.String(),
	}

	err := r.q.QueryRow(ctx, update, args...).Scan(&pick.ID, &pick.CreatedAt, &pick.UpdatedAt)
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to update pick: %w", err)
	}

	insert := `
		INSERT INTO picks (league_id, user_id, week, pick_number, team_id, game_id, result)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		RETURNING id, created_at, updated_at
	`
	err = r.q.QueryRow(ctx, insert, args...).Scan(&pick.ID, &pick.CreatedAt, &pick.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert pick: %w", err)
	}
	return nil
}

// ResolvePick writes a final result only while the pick is still pending
func (r *pgQueries) ResolvePick(ctx context.Context, pickID int64, result domain.PickResult) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE picks SET result = $2, updated_at = NOW() WHERE id = $1 AND result = 'pending'`,
		pickID, result.String())
	if err != nil {
		return false, fmt.Errorf("failed to resolve pick: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// AdjustStrikes changes a member's strike count and recomputes their status in one statement
func (r *pgQueries) AdjustStrikes(ctx context.Context, leagueID, userID string, delta int, clamp bool) (*domain.Member, error) {
	next := "GREATEST(m.strikes + $3, 0)"
	if clamp {
		next = "LEAST(GREATEST(m.strikes + $3, 0), l.max_strikes)"
	}

	query := `
		UPDATE league_members m
		SET strikes = ` + next + `,
		    status = CASE WHEN ` + next + ` >= l.max_strikes THEN 'eliminated' ELSE 'active' END
		FROM leagues l
		WHERE l.id = m.league_id AND m.league_id = $1 AND m.user_id = $2
		RETURNING m.league_id, m.user_id, m.display_name, m.strikes, m.status, m.has_paid, m.joined_at
	`

	member, err := scanMember(r.q.QueryRow(ctx, query, leagueID, userID, delta))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to adjust strikes: %w", err)
	}
	return member, nil
}

// InsertAudit appends an audit entry
func (r *pgQueries) InsertAudit(ctx context.Context, entry *domain.AuditEntry) error {
	query := `
		INSERT INTO audit_log (id, league_id, actor_id, target_user_id, action, week, team_id, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.ID,
		entry.LeagueID,
		entry.ActorID,
		entry.TargetUserID,
		string(entry.Action),
		entry.Week,
		entry.TeamID,
		entry.Reason,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ Store = (*PostgresStore)(nil)
