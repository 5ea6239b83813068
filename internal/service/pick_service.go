package service

import (
	"context"
	stderrors "errors"
	"sort"

	"survivor-api/internal/domain"
	"survivor-api/internal/engine"
	"survivor-api/internal/repository"
	"survivor-api/internal/schedule"
	"survivor-api/pkg/errors"
	"survivor-api/pkg/logger"
)

type pickService struct {
	store    repository.Store
	schedule schedule.Source
	events   EventPublisher
	now      Clock
	logger   *logger.Logger
}

// NewPickService creates a new pick service
func NewPickService(store repository.Store, src schedule.Source, events EventPublisher, now Clock, log *logger.Logger) PickService {
	return &pickService{
		store:    store,
		schedule: src,
		events:   publisherOrNoop(events),
		now:      clockOrNow(now),
		logger:   log.Component("pick_service"),
	}
}

// SubmitPick validates a pick against the league rules and writes it into its slot.
// Validation and the write run under the member's lock so two concurrent submissions
// cannot both claim the same team.
func (s *pickService) SubmitPick(ctx context.Context, leagueID, userID string, req *domain.SubmitPickRequest) (*domain.Pick, error) {
	if req.PickNumber == 0 {
		req.PickNumber = 1
	}

	league, err := loadLeague(ctx, s.store, leagueID)
	if err != nil {
		return nil, err
	}
	member, err := requireMember(ctx, s.store, leagueID, userID)
	if err != nil {
		return nil, err
	}

	input := engine.PickInput{
		League:     league,
		Member:     member,
		Week:       req.Week,
		TeamID:     req.TeamID,
		PickNumber: req.PickNumber,
	}
	if err := engine.ValidateSlot(input); err != nil {
		return nil, err
	}

	week, err := fetchWeek(ctx, s.schedule, league.Season, req.Week)
	if err != nil {
		return nil, err
	}

	pick := &domain.Pick{
		LeagueID:   leagueID,
		UserID:     userID,
		Week:       req.Week,
		PickNumber: req.PickNumber,
		TeamID:     req.TeamID,
		Result:     domain.ResultPending,
	}

	err = s.store.RunInTx(ctx, repository.MemberLockKey(leagueID, userID), func(tx repository.Tx) error {
		current, err := loadMember(ctx, tx, leagueID, userID)
		if err != nil {
			return err
		}
		existing, err := tx.ListMemberPicks(ctx, leagueID, userID)
		if err != nil {
			return errors.NewInternalError("failed to load picks", err)
		}

		input.Member = current
		input.Existing = existing
		input.Game = week.Team(req.TeamID)
		input.Now = s.now()
		if slot := engine.SlotPick(existing, req.Week, req.PickNumber); slot != nil {
			input.SlotGame = week.Team(slot.TeamID)
		}
		if err := engine.ValidatePick(input); err != nil {
			return err
		}

		pick.GameID = input.Game.GameID
		if err := tx.UpsertPick(ctx, pick); err != nil {
			if stderrors.Is(err, repository.ErrConflict) {
				return errors.NewConflictError("team already used this season").
					WithRule(engine.RuleTeamAlreadyUsed)
			}
			return errors.NewInternalError("failed to save pick", err)
		}
		return nil
	})
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok && appErr.Rule != "" {
			s.logger.WithLeague(leagueID, userID).WithFields(map[string]interface{}{
				"week":    req.Week,
				"team_id": req.TeamID,
				"rule":    appErr.Rule,
			}).Info("Pick rejected")
		}
		return nil, storeError("failed to submit pick", err)
	}

	s.logger.WithLeague(leagueID, userID).WithFields(map[string]interface{}{
		"week":        pick.Week,
		"pick_number": pick.PickNumber,
		"team_id":     pick.TeamID,
	}).Info("Pick submitted")

	s.events.Publish(ctx, domain.LiveEvent{
		Type:     domain.EventStandingsUpdated,
		LeagueID: leagueID,
		Week:     pick.Week,
		UserID:   userID,
		Reason:   "pick_submitted",
	})

	return pick, nil
}

// MemberHistory returns the caller's picks and, when week is set, the teams they can still pick
// that week. A schedule outage leaves AvailableTeams empty instead of failing the request.
func (s *pickService) MemberHistory(ctx context.Context, leagueID, userID string, week int) (*domain.MemberPickHistory, error) {
	league, err := loadLeague(ctx, s.store, leagueID)
	if err != nil {
		return nil, err
	}
	member, err := requireMember(ctx, s.store, leagueID, userID)
	if err != nil {
		return nil, err
	}

	picks, err := s.store.ListMemberPicks(ctx, leagueID, userID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load picks", err)
	}
	if picks == nil {
		picks = []domain.Pick{}
	}

	used := engine.UsedTeams(picks)
	if used == nil {
		used = []int{}
	}
	history := &domain.MemberPickHistory{
		Member:    *member,
		Picks:     picks,
		UsedTeams: used,
	}

	if week < league.StartWeek || week > domain.MaxWeek {
		return history, nil
	}

	ws, err := fetchWeek(ctx, s.schedule, league.Season, week)
	if err != nil {
		s.logger.WithLeague(leagueID, userID).WithError(err).WithField("week", week).Warn("Available teams unavailable")
		return history, nil
	}

	usedSet := make(map[int]bool, len(used))
	for _, t := range used {
		usedSet[t] = true
	}
	now := s.now()
	available := []int{}
	for teamID, game := range ws {
		if usedSet[teamID] || game.HasStarted(now) {
			continue
		}
		available = append(available, teamID)
	}
	sort.Ints(available)
	history.AvailableTeams = available

	return history, nil
}
