package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"survivor-api/internal/domain"
	"survivor-api/internal/repository"
	"survivor-api/pkg/errors"
	"survivor-api/pkg/logger"

	"github.com/google/uuid"
)

const maxDisplayNameLength = 40

type leagueService struct {
	store         repository.Store
	defaultSeason int
	logger        *logger.Logger
}

// NewLeagueService creates a new league service
func NewLeagueService(store repository.Store, defaultSeason int, log *logger.Logger) LeagueService {
	return &leagueService{
		store:         store,
		defaultSeason: defaultSeason,
		logger:        log.Component("league_service"),
	}
}

// CreateLeague creates a league and enrolls the creator as commissioner
func (s *leagueService) CreateLeague(ctx context.Context, user *domain.UserProfile, req *domain.CreateLeagueRequest) (*domain.League, error) {
	league, err := s.newLeague(user, req)
	if err != nil {
		return nil, err
	}

	displayName, err := normalizeDisplayName(req.DisplayName, user)
	if err != nil {
		return nil, err
	}

	err = s.store.RunInTx(ctx, "", func(tx repository.Tx) error {
		if err := tx.CreateLeague(ctx, league); err != nil {
			return err
		}
		return tx.AddMember(ctx, &domain.Member{
			LeagueID:    league.ID,
			UserID:      user.Sub,
			DisplayName: displayName,
			Status:      domain.MemberActive,
		})
	})
	if err != nil {
		return nil, storeError("failed to create league", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"league_id":     league.ID,
		"commissioner":  user.Sub,
		"max_strikes":   league.MaxStrikes,
		"start_week":    league.StartWeek,
		"double_weeks":  league.DoublePickWeeks,
		"entry_fee_cts": league.EntryFee,
	}).Info("League created")

	return league, nil
}

func (s *leagueService) newLeague(user *domain.UserProfile, req *domain.CreateLeagueRequest) (*domain.League, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.NewInvalidArgumentError("league name is required")
	}

	season := req.Season
	if season == 0 {
		season = s.defaultSeason
	}

	maxStrikes := req.MaxStrikes
	if maxStrikes == 0 {
		maxStrikes = domain.MinStrikes
	}
	if maxStrikes < domain.MinStrikes || maxStrikes > domain.MaxStrikes {
		return nil, errors.NewInvalidArgumentError(
			fmt.Sprintf("max strikes must be between %d and %d", domain.MinStrikes, domain.MaxStrikes))
	}

	startWeek := req.StartWeek
	if startWeek == 0 {
		startWeek = domain.MinWeek
	}
	if startWeek < domain.MinWeek || startWeek > domain.LastRegularSeasonWeek {
		return nil, errors.NewInvalidArgumentError(
			fmt.Sprintf("start week must be between %d and %d", domain.MinWeek, domain.LastRegularSeasonWeek))
	}

	seen := make(map[int]bool)
	var doubleWeeks []int
	for _, w := range req.DoublePickWeeks {
		if w < startWeek || w > domain.MaxWeek {
			return nil, errors.NewInvalidArgumentError(
				fmt.Sprintf("double-pick week %d is outside weeks %d-%d", w, startWeek, domain.MaxWeek))
		}
		if !seen[w] {
			seen[w] = true
			doubleWeeks = append(doubleWeeks, w)
		}
	}
	sort.Ints(doubleWeeks)

	if req.EntryFee < 0 {
		return nil, errors.NewInvalidArgumentError("entry fee cannot be negative")
	}
	if req.PrizePotOverride != nil && *req.PrizePotOverride < 0 {
		return nil, errors.NewInvalidArgumentError("prize pot cannot be negative")
	}

	return &domain.League{
		ID:               uuid.NewString(),
		Name:             name,
		CommissionerID:   user.Sub,
		Season:           season,
		MaxStrikes:       maxStrikes,
		StartWeek:        startWeek,
		DoublePickWeeks:  doubleWeeks,
		EntryFee:         req.EntryFee,
		PrizePotOverride: req.PrizePotOverride,
	}, nil
}

// GetLeague returns a league the caller belongs to
func (s *leagueService) GetLeague(ctx context.Context, leagueID, userID string) (*domain.League, error) {
	league, err := loadLeague(ctx, s.store, leagueID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.store, leagueID, userID); err != nil {
		return nil, err
	}
	return league, nil
}

// ListLeagues returns the caller's leagues
func (s *leagueService) ListLeagues(ctx context.Context, userID string) ([]domain.League, error) {
	leagues, err := s.store.ListUserLeagues(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list leagues", err)
	}
	if leagues == nil {
		leagues = []domain.League{}
	}
	return leagues, nil
}

// JoinLeague adds the caller to a league
func (s *leagueService) JoinLeague(ctx context.Context, leagueID string, user *domain.UserProfile, req *domain.JoinLeagueRequest) (*domain.Member, error) {
	if _, err := loadLeague(ctx, s.store, leagueID); err != nil {
		return nil, err
	}

	displayName, err := normalizeDisplayName(req.DisplayName, user)
	if err != nil {
		return nil, err
	}

	member := &domain.Member{
		LeagueID:    leagueID,
		UserID:      user.Sub,
		DisplayName: displayName,
		Status:      domain.MemberActive,
	}
	if err := s.store.AddMember(ctx, member); err != nil {
		if stderrors.Is(err, repository.ErrConflict) {
			return nil, errors.NewConflictError("you have already joined this league")
		}
		return nil, errors.NewInternalError("failed to join league", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"league_id": leagueID,
		"user_id":   user.Sub,
	}).Info("Member joined league")

	return member, nil
}

// ListMembers returns the league's members to another member
func (s *leagueService) ListMembers(ctx context.Context, leagueID, userID string) ([]domain.Member, error) {
	if _, err := loadLeague(ctx, s.store, leagueID); err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.store, leagueID, userID); err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx, leagueID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list members", err)
	}
	return members, nil
}

func normalizeDisplayName(name string, user *domain.UserProfile) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(user.Name)
	}
	if name == "" {
		name = user.Email
	}
	if name == "" {
		return "", errors.NewInvalidArgumentError("display name is required")
	}
	if len([]rune(name)) > maxDisplayNameLength {
		return "", errors.NewInvalidArgumentError(
			fmt.Sprintf("display name must be at most %d characters", maxDisplayNameLength))
	}
	return name, nil
}
