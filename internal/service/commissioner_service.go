package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"survivor-api/internal/domain"
	"survivor-api/internal/engine"
	"survivor-api/internal/repository"
	"survivor-api/internal/schedule"
	"survivor-api/pkg/errors"
	"survivor-api/pkg/logger"

	"github.com/google/uuid"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type commissionerService struct {
	store    repository.Store
	schedule schedule.Source
	events   EventPublisher
	now      Clock
	logger   *logger.Logger
}

// NewCommissionerService creates a new commissioner service
func NewCommissionerService(store repository.Store, src schedule.Source, events EventPublisher, now Clock, log *logger.Logger) CommissionerService {
	return &commissionerService{
		store:    store,
		schedule: src,
		events:   publisherOrNoop(events),
		now:      clockOrNow(now),
		logger:   log.Component("commissioner_service"),
	}
}

// SetMemberPick writes a pick on a member's behalf at any time. If the game is already final
// the pick is stored resolved and the member's strikes move in the same transaction.
func (s *commissionerService) SetMemberPick(ctx context.Context, leagueID, actorID, targetUserID string, req *domain.SetMemberPickRequest) (*domain.Pick, error) {
	if req.PickNumber == 0 {
		req.PickNumber = 1
	}

	league, err := loadLeague(ctx, s.store, leagueID)
	if err != nil {
		return nil, err
	}
	if err := requireCommissioner(league, actorID); err != nil {
		return nil, err
	}
	member, err := loadMember(ctx, s.store, leagueID, targetUserID)
	if err != nil {
		return nil, err
	}

	input := engine.PickInput{
		League:       league,
		Member:       member,
		Week:         req.Week,
		TeamID:       req.TeamID,
		PickNumber:   req.PickNumber,
		Commissioner: true,
	}
	if err := engine.ValidateSlot(input); err != nil {
		return nil, err
	}

	week, err := fetchWeek(ctx, s.schedule, league.Season, req.Week)
	if err != nil {
		return nil, err
	}
	game := week.Team(req.TeamID)

	pick := &domain.Pick{
		LeagueID:   leagueID,
		UserID:     targetUserID,
		Week:       req.Week,
		PickNumber: req.PickNumber,
		TeamID:     req.TeamID,
		Result:     engine.ResolveEffectiveResult(domain.ResultPending, game),
	}
	if game != nil {
		pick.GameID = game.GameID
	}

	var strikeDelta int
	err = s.store.RunInTx(ctx, repository.MemberLockKey(leagueID, targetUserID), func(tx repository.Tx) error {
		existing, err := tx.ListMemberPicks(ctx, leagueID, targetUserID)
		if err != nil {
			return errors.NewInternalError("failed to load picks", err)
		}

		input.Existing = existing
		input.Game = game
		input.Now = s.now()
		if err := engine.ValidatePick(input); err != nil {
			return err
		}

		previous := domain.ResultPending
		if slot := engine.SlotPick(existing, req.Week, req.PickNumber); slot != nil {
			previous = slot.Result
		}
		strikeDelta = lossCount(pick.Result) - lossCount(previous)

		if err := tx.UpsertPick(ctx, pick); err != nil {
			if stderrors.Is(err, repository.ErrConflict) {
				return errors.NewConflictError("team already used this season").
					WithRule(engine.RuleTeamAlreadyUsed)
			}
			return errors.NewInternalError("failed to save pick", err)
		}

		if strikeDelta != 0 {
			updated, err := tx.AdjustStrikes(ctx, leagueID, targetUserID, strikeDelta, false)
			if err != nil {
				return errors.NewInternalError("failed to update strikes", err)
			}
			if updated == nil {
				return errors.NewNotFoundError("member not found")
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeError("failed to set pick", err)
	}

	teamID := req.TeamID
	s.audit(ctx, &domain.AuditEntry{
		LeagueID:     leagueID,
		ActorID:      actorID,
		TargetUserID: targetUserID,
		Action:       domain.AuditSetPick,
		Week:         req.Week,
		TeamID:       &teamID,
		Reason:       req.Reason,
	})

	s.logger.WithFields(map[string]interface{}{
		"league_id":    leagueID,
		"actor_id":     actorID,
		"target":       targetUserID,
		"week":         req.Week,
		"team_id":      req.TeamID,
		"result":       pick.Result.String(),
		"strike_delta": strikeDelta,
	}).Info("Commissioner set pick")

	s.events.Publish(ctx, domain.LiveEvent{
		Type:     domain.EventStandingsUpdated,
		LeagueID: leagueID,
		Week:     req.Week,
		UserID:   targetUserID,
		Reason:   string(domain.AuditSetPick),
	})

	return pick, nil
}

// SetMemberStrikes adds (capped at max strikes) or removes (floored at zero) one stored strike
func (s *commissionerService) SetMemberStrikes(ctx context.Context, leagueID, actorID, targetUserID string, req *domain.SetMemberStrikesRequest) (*domain.Member, error) {
	var (
		delta  int
		action domain.AuditAction
	)
	switch req.Action {
	case domain.StrikeAdd:
		delta, action = 1, domain.AuditAddStrike
	case domain.StrikeRemove:
		delta, action = -1, domain.AuditRemoveStrike
	default:
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("unknown strike action %q", req.Action))
	}

	league, err := loadLeague(ctx, s.store, leagueID)
	if err != nil {
		return nil, err
	}
	if err := requireCommissioner(league, actorID); err != nil {
		return nil, err
	}
	if req.Week != 0 && (req.Week < domain.MinWeek || req.Week > domain.MaxWeek) {
		return nil, errors.NewInvalidArgumentError(
			fmt.Sprintf("week must be between %d and %d", domain.MinWeek, domain.MaxWeek))
	}

	var member *domain.Member
	err = s.store.RunInTx(ctx, repository.MemberLockKey(leagueID, targetUserID), func(tx repository.Tx) error {
		var err error
		member, err = tx.AdjustStrikes(ctx, leagueID, targetUserID, delta, true)
		if err != nil {
			return errors.NewInternalError("failed to update strikes", err)
		}
		if member == nil {
			return errors.NewNotFoundError("member not found").WithDetail("user_id", targetUserID)
		}
		return nil
	})
	if err != nil {
		return nil, storeError("failed to update strikes", err)
	}

	s.audit(ctx, &domain.AuditEntry{
		LeagueID:     leagueID,
		ActorID:      actorID,
		TargetUserID: targetUserID,
		Action:       action,
		Week:         req.Week,
		Reason:       req.Reason,
	})

	s.logger.WithFields(map[string]interface{}{
		"league_id": leagueID,
		"actor_id":  actorID,
		"target":    targetUserID,
		"action":    string(req.Action),
		"strikes":   member.Strikes,
		"status":    member.Status.String(),
	}).Info("Commissioner changed strikes")

	s.events.Publish(ctx, domain.LiveEvent{
		Type:     domain.EventStandingsUpdated,
		LeagueID: leagueID,
		Week:     req.Week,
		UserID:   targetUserID,
		Reason:   string(action),
	})

	return member, nil
}

// MarkPaid records a member's entry fee status
func (s *commissionerService) MarkPaid(ctx context.Context, leagueID, actorID, targetUserID string, req *domain.MarkPaidRequest) (*domain.Member, error) {
	league, err := loadLeague(ctx, s.store, leagueID)
	if err != nil {
		return nil, err
	}
	if err := requireCommissioner(league, actorID); err != nil {
		return nil, err
	}

	member, err := s.store.SetPaid(ctx, leagueID, targetUserID, req.HasPaid)
	if err != nil {
		return nil, errors.NewInternalError("failed to update payment", err)
	}
	if member == nil {
		return nil, errors.NewNotFoundError("member not found").WithDetail("user_id", targetUserID)
	}

	reason := req.Reason
	if reason == "" {
		reason = fmt.Sprintf("has_paid=%t", req.HasPaid)
	}
	s.audit(ctx, &domain.AuditEntry{
		LeagueID:     leagueID,
		ActorID:      actorID,
		TargetUserID: targetUserID,
		Action:       domain.AuditMarkPaid,
		Reason:       reason,
	})

	s.events.Publish(ctx, domain.LiveEvent{
		Type:     domain.EventStandingsUpdated,
		LeagueID: leagueID,
		UserID:   targetUserID,
		Reason:   string(domain.AuditMarkPaid),
	})

	return member, nil
}

// AuditLog returns the newest override entries to the commissioner
func (s *commissionerService) AuditLog(ctx context.Context, leagueID, actorID string, limit int) ([]domain.AuditEntry, error) {
	league, err := loadLeague(ctx, s.store, leagueID)
	if err != nil {
		return nil, err
	}
	if err := requireCommissioner(league, actorID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	entries, err := s.store.ListAudit(ctx, leagueID, limit)
	if err != nil {
		return nil, errors.NewInternalError("failed to load audit log", err)
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	return entries, nil
}

// audit records an override after its state change has committed. A failure here is logged only.
func (s *commissionerService) audit(ctx context.Context, entry *domain.AuditEntry) {
	entry.ID = uuid.NewString()
	if err := s.store.InsertAudit(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"league_id": entry.LeagueID,
			"actor_id":  entry.ActorID,
			"target":    entry.TargetUserID,
			"action":    string(entry.Action),
		}).Error("Failed to write audit entry")
	}
}

func lossCount(r domain.PickResult) int {
	if r == domain.ResultLoss {
		return 1
	}
	return 0
}
