package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"survivor-api/internal/domain"
	"survivor-api/internal/engine"
	"survivor-api/internal/repository"
	"survivor-api/internal/schedule"
	"survivor-api/pkg/logger"
	"survivor-api/pkg/redis"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const (
	// reconcileBatchSize is the page size for the pending pick scan
	reconcileBatchSize = 500

	// reconcilePassTimeout bounds one scheduled pass
	reconcilePassTimeout = 3 * time.Minute
)

type seasonWeek struct {
	season int
	week   int
}

type reconcileService struct {
	store    repository.Store
	schedule schedule.Source
	redis    *redis.Client
	events   EventPublisher
	logger   *logger.Logger

	spec      string
	cron      *cron.Cron
	batchSize int

	mu        sync.Mutex
	isRunning bool
	passMu    sync.Mutex
}

// NewReconcileService creates the background reconciler. spec is a standard five-field cron
// expression. A nil redis client skips the cross-instance run lock.
func NewReconcileService(store repository.Store, src schedule.Source, rc *redis.Client, events EventPublisher, spec string, log *logger.Logger) ReconcileService {
	return &reconcileService{
		store:    store,
		schedule: src,
		redis:    rc,
		events:   publisherOrNoop(events),
		logger:   log.Component("reconcile_service"),
		spec:      spec,
		cron:      cron.New(),
		batchSize: reconcileBatchSize,
	}
}

// Start schedules periodic reconciliation
func (s *reconcileService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.runScheduled); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.isRunning = true

	s.logger.WithField("schedule", s.spec).Info("Reconcile service started")
	return nil
}

// Stop stops the schedule and waits for a running pass to finish or ctx to expire
func (s *reconcileService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.logger.Info("Reconcile scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("Reconcile scheduler stop timed out")
	}

	s.isRunning = false
	return nil
}

func (s *reconcileService) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcilePassTimeout)
	defer cancel()

	if s.redis != nil {
		key := s.redis.KeyBuilder.KeyReconcileLock()
		token := uuid.NewString()

		ok, err := s.redis.AcquireLock(ctx, key, token, redis.TTLReconcileLock)
		if err != nil {
			s.logger.WithError(err).Warn("Reconcile lock unavailable, running without it")
		} else if !ok {
			s.logger.Debug("Another instance is reconciling, skipping pass")
			return
		} else {
			defer func() {
				if _, err := s.redis.ReleaseLock(context.Background(), key, token); err != nil {
					s.logger.WithError(err).Warn("Failed to release reconcile lock")
				}
			}()
		}
	}

	if _, err := s.ReconcilePendingPicks(ctx); err != nil {
		s.logger.WithError(err).Error("Reconcile pass failed")
	}
}

// ReconcilePendingPicks resolves every pending pick whose game is final, paging through all of
// them by id. Each pick moves from pending under a conditional update in the same transaction
// as its strike, so concurrent or repeated passes never count a loss twice. Weeks whose schedule
// cannot be fetched are skipped.
func (s *reconcileService) ReconcilePendingPicks(ctx context.Context) (int, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	start := time.Now()

	leagues := make(map[string]*domain.League)
	weeks := make(map[seasonWeek]domain.WeekSchedule)
	failedWeeks := make(map[seasonWeek]bool)
	touched := make(map[string]map[int]bool)

	scanned := 0
	updated := 0
	var afterID int64
	for {
		page, err := s.store.ListPendingPicks(ctx, afterID, s.batchSize)
		if err != nil {
			return updated, fmt.Errorf("failed to list pending picks: %w", err)
		}
		scanned += len(page)

		for _, p := range page {
			if err := ctx.Err(); err != nil {
				return updated, err
			}

			league, ok := leagues[p.LeagueID]
			if !ok {
				league, err = s.store.GetLeague(ctx, p.LeagueID)
				if err != nil {
					return updated, fmt.Errorf("failed to load league %s: %w", p.LeagueID, err)
				}
				leagues[p.LeagueID] = league
			}
			if league == nil {
				continue
			}

			key := seasonWeek{league.Season, p.Week}
			if failedWeeks[key] {
				continue
			}
			ws, ok := weeks[key]
			if !ok {
				games, err := s.schedule.WeekGames(ctx, key.season, key.week)
				if err != nil {
					failedWeeks[key] = true
					s.logger.WithError(err).WithFields(map[string]interface{}{
						"season": key.season,
						"week":   key.week,
					}).Warn("Skipping week, schedule unavailable")
					continue
				}
				ws = domain.NewWeekSchedule(games)
				weeks[key] = ws
			}

			result := engine.ResolveEffectiveResult(domain.ResultPending, ws.Team(p.TeamID))
			if !result.IsFinal() {
				continue
			}

			changed, err := s.resolve(ctx, league, p, result)
			if err != nil {
				s.logger.WithError(err).WithFields(map[string]interface{}{
					"pick_id":   p.ID,
					"league_id": p.LeagueID,
					"user_id":   p.UserID,
				}).Error("Failed to resolve pick")
				continue
			}
			if changed {
				updated++
				if touched[p.LeagueID] == nil {
					touched[p.LeagueID] = make(map[int]bool)
				}
				touched[p.LeagueID][p.Week] = true
			}
		}

		if len(page) < s.batchSize {
			break
		}
		afterID = page[len(page)-1].ID
	}

	for leagueID, ws := range touched {
		for week := range ws {
			s.events.Publish(ctx, domain.LiveEvent{
				Type:     domain.EventStandingsUpdated,
				LeagueID: leagueID,
				Week:     week,
				Reason:   "results_reconciled",
			})
		}
	}

	if scanned == 0 {
		s.logger.Debug("No pending picks to reconcile")
		return 0, nil
	}

	s.logger.WithFields(map[string]interface{}{
		"scanned":  scanned,
		"updated":  updated,
		"duration": time.Since(start).String(),
	}).Info("Reconcile pass complete")

	return updated, nil
}

// resolve applies one pick's result and, for a loss inside the counting window, its strike
func (s *reconcileService) resolve(ctx context.Context, league *domain.League, p domain.Pick, result domain.PickResult) (bool, error) {
	var changed bool
	err := s.store.RunInTx(ctx, repository.MemberLockKey(p.LeagueID, p.UserID), func(tx repository.Tx) error {
		ok, err := tx.ResolvePick(ctx, p.ID, result)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		changed = true

		if result == domain.ResultLoss && p.Week >= league.StartWeek {
			if _, err := tx.AdjustStrikes(ctx, p.LeagueID, p.UserID, 1, false); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}
