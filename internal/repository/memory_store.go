package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"survivor-api/internal/domain"
)

type memberKey struct {
	leagueID string
	userID   string
}

// memoryData holds the tables of a MemoryStore. Its methods assume the store mutex is held.
type memoryData struct {
	leagues  map[string]domain.League
	members  map[memberKey]domain.Member
	picks    map[int64]domain.Pick
	audit    []domain.AuditEntry
	nextPick int64
	now      func() time.Time
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		leagues:  make(map[string]domain.League, len(d.leagues)),
		members:  make(map[memberKey]domain.Member, len(d.members)),
		picks:    make(map[int64]domain.Pick, len(d.picks)),
		audit:    append([]domain.AuditEntry(nil), d.audit...),
		nextPick: d.nextPick,
		now:      d.now,
	}
	for k, v := range d.leagues {
		c.leagues[k] = v
	}
	for k, v := range d.members {
		c.members[k] = v
	}
	for k, v := range d.picks {
		c.picks[k] = v
	}
	return c
}

// MemoryStore is an in-process Store used for local runs without DATABASE_URL and in tests.
// Transactions are serialized on a single mutex and roll back by restoring a snapshot.
type MemoryStore struct {
	mu   sync.Mutex
	data *memoryData
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates an empty in-memory store that stamps rows with now
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		data: &memoryData{
			leagues: make(map[string]domain.League),
			members: make(map[memberKey]domain.Member),
			picks:   make(map[int64]domain.Pick),
			now:     now,
		},
	}
}

// RunInTx runs fn with exclusive access to the store, discarding its writes if it fails
func (s *MemoryStore) RunInTx(ctx context.Context, lockKey string, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(s.data); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// Health always succeeds for the in-memory store
func (s *MemoryStore) Health(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) GetLeague(ctx context.Context, leagueID string) (*domain.League, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.GetLeague(ctx, leagueID)
}

func (s *MemoryStore) ListUserLeagues(ctx context.Context, userID string) ([]domain.League, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListUserLeagues(ctx, userID)
}

func (s *MemoryStore) GetMember(ctx context.Context, leagueID, userID string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.GetMember(ctx, leagueID, userID)
}

func (s *MemoryStore) ListMembers(ctx context.Context, leagueID string) ([]domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListMembers(ctx, leagueID)
}

func (s *MemoryStore) ListMemberPicks(ctx context.Context, leagueID, userID string) ([]domain.Pick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListMemberPicks(ctx, leagueID, userID)
}

func (s *MemoryStore) ListLeaguePicks(ctx context.Context, leagueID string) ([]domain.Pick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListLeaguePicks(ctx, leagueID)
}

func (s *MemoryStore) ListPendingPicks(ctx context.Context, afterID int64, limit int) ([]domain.Pick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListPendingPicks(ctx, afterID, limit)
}

func (s *MemoryStore) ListAudit(ctx context.Context, leagueID string, limit int) ([]domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListAudit(ctx, leagueID, limit)
}

func (s *MemoryStore) CreateLeague(ctx context.Context, league *domain.League) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.CreateLeague(ctx, league)
}

func (s *MemoryStore) AddMember(ctx context.Context, member *domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.AddMember(ctx, member)
}

func (s *MemoryStore) SetPaid(ctx context.Context, leagueID, userID string, paid bool) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.SetPaid(ctx, leagueID, userID, paid)
}

func (s *MemoryStore) UpsertPick(ctx context.Context, pick *domain.Pick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.UpsertPick(ctx, pick)
}

func (s *MemoryStore) ResolvePick(ctx context.Context, pickID int64, result domain.PickResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ResolvePick(ctx, pickID, result)
}

func (s *MemoryStore) AdjustStrikes(ctx context.Context, leagueID, userID string, delta int, clamp bool) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.AdjustStrikes(ctx, leagueID, userID, delta, clamp)
}

func (s *MemoryStore) InsertAudit(ctx context.Context, entry *domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.InsertAudit(ctx, entry)
}

func (d *memoryData) GetLeague(_ context.Context, leagueID string) (*domain.League, error) {
	l, ok := d.leagues[leagueID]
	if !ok {
		return nil, nil
	}
	l.DoublePickWeeks = append([]int(nil), l.DoublePickWeeks...)
	return &l, nil
}

func (d *memoryData) ListUserLeagues(ctx context.Context, userID string) ([]domain.League, error) {
	var leagues []domain.League
	for key := range d.members {
		if key.userID != userID {
			continue
		}
		if l, _ := d.GetLeague(ctx, key.leagueID); l != nil {
			leagues = append(leagues, *l)
		}
	}
	sort.Slice(leagues, func(i, j int) bool {
		if !leagues[i].CreatedAt.Equal(leagues[j].CreatedAt) {
			return leagues[i].CreatedAt.After(leagues[j].CreatedAt)
		}
		return leagues[i].ID < leagues[j].ID
	})
	return leagues, nil
}

func (d *memoryData) GetMember(_ context.Context, leagueID, userID string) (*domain.Member, error) {
	m, ok := d.members[memberKey{leagueID, userID}]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (d *memoryData) ListMembers(_ context.Context, leagueID string) ([]domain.Member, error) {
	var members []domain.Member
	for key, m := range d.members {
		if key.leagueID == leagueID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if !members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].JoinedAt.Before(members[j].JoinedAt)
		}
		return members[i].UserID < members[j].UserID
	})
	return members, nil
}

func (d *memoryData) filterPicks(keep func(domain.Pick) bool) []domain.Pick {
	var picks []domain.Pick
	for _, p := range d.picks {
		if keep(p) {
			picks = append(picks, p)
		}
	}
	sort.Slice(picks, func(i, j int) bool {
		a, b := picks[i], picks[j]
		if a.LeagueID != b.LeagueID {
			return a.LeagueID < b.LeagueID
		}
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		return a.PickNumber < b.PickNumber
	})
	return picks
}

func (d *memoryData) ListMemberPicks(_ context.Context, leagueID, userID string) ([]domain.Pick, error) {
	return d.filterPicks(func(p domain.Pick) bool {
		return p.LeagueID == leagueID && p.UserID == userID
	}), nil
}

func (d *memoryData) ListLeaguePicks(_ context.Context, leagueID string) ([]domain.Pick, error) {
	return d.filterPicks(func(p domain.Pick) bool {
		return p.LeagueID == leagueID
	}), nil
}

func (d *memoryData) ListPendingPicks(_ context.Context, afterID int64, limit int) ([]domain.Pick, error) {
	picks := d.filterPicks(func(p domain.Pick) bool {
		return p.Result == domain.ResultPending && p.ID > afterID
	})
	sort.Slice(picks, func(i, j int) bool { return picks[i].ID < picks[j].ID })
	if limit > 0 && len(picks) > limit {
		picks = picks[:limit]
	}
	return picks, nil
}

func (d *memoryData) ListAudit(_ context.Context, leagueID string, limit int) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	for i := len(d.audit) - 1; i >= 0; i-- {
		if d.audit[i].LeagueID != leagueID {
			continue
		}
		entries = append(entries, d.audit[i])
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

func (d *memoryData) CreateLeague(_ context.Context, league *domain.League) error {
	if _, exists := d.leagues[league.ID]; exists {
		return ErrConflict
	}
	league.CreatedAt = d.now()
	stored := *league
	stored.DoublePickWeeks = append([]int(nil), league.DoublePickWeeks...)
	d.leagues[league.ID] = stored
	return nil
}

func (d *memoryData) AddMember(_ context.Context, member *domain.Member) error {
	key := memberKey{member.LeagueID, member.UserID}
	if _, exists := d.members[key]; exists {
		return ErrConflict
	}
	member.JoinedAt = d.now()
	d.members[key] = *member
	return nil
}

func (d *memoryData) SetPaid(_ context.Context, leagueID, userID string, paid bool) (*domain.Member, error) {
	key := memberKey{leagueID, userID}
	m, ok := d.members[key]
	if !ok {
		return nil, nil
	}
	m.HasPaid = paid
	d.members[key] = m
	return &m, nil
}

func (d *memoryData) UpsertPick(_ context.Context, pick *domain.Pick) error {
	var slot *domain.Pick
	for id, p := range d.picks {
		if p.LeagueID != pick.LeagueID || p.UserID != pick.UserID {
			continue
		}
		if p.Week == pick.Week && p.PickNumber == pick.PickNumber {
			existing := d.picks[id]
			slot = &existing
			continue
		}
		if p.TeamID == pick.TeamID {
			return ErrConflict
		}
	}

	now := d.now()
	if slot != nil {
		pick.ID = slot.ID
		pick.CreatedAt = slot.CreatedAt
	} else {
		d.nextPick++
		pick.ID = d.nextPick
		pick.CreatedAt = now
	}
	pick.UpdatedAt = now
	d.picks[pick.ID] = *pick
	return nil
}

func (d *memoryData) ResolvePick(_ context.Context, pickID int64, result domain.PickResult) (bool, error) {
	p, ok := d.picks[pickID]
	if !ok || p.Result != domain.ResultPending {
		return false, nil
	}
	p.Result = result
	p.UpdatedAt = d.now()
	d.picks[pickID] = p
	return true, nil
}

func (d *memoryData) AdjustStrikes(_ context.Context, leagueID, userID string, delta int, clamp bool) (*domain.Member, error) {
	key := memberKey{leagueID, userID}
	m, ok := d.members[key]
	if !ok {
		return nil, nil
	}
	league, ok := d.leagues[leagueID]
	if !ok {
		return nil, nil
	}

	next := m.Strikes + delta
	if next < 0 {
		next = 0
	}
	if clamp && next > league.MaxStrikes {
		next = league.MaxStrikes
	}
	m.Strikes = next
	m.Status = domain.StatusForStrikes(next, league.MaxStrikes)
	d.members[key] = m
	return &m, nil
}

func (d *memoryData) InsertAudit(_ context.Context, entry *domain.AuditEntry) error {
	entry.CreatedAt = d.now()
	d.audit = append(d.audit, *entry)
	return nil
}

var _ Store = (*MemoryStore)(nil)
