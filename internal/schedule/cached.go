package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"survivor-api/internal/domain"
	"survivor-api/pkg/errors"
	"survivor-api/pkg/logger"
	"survivor-api/pkg/redis"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CacheConfig tunes CachedSource
type CacheConfig struct {
	// TTL is how long a week with unfinished games stays fresh
	TTL time.Duration
	// FinalTTL is how long a week whose games are all final stays fresh
	FinalTTL time.Duration
	// StaleTTL is how long the last good copy is kept for fallback
	StaleTTL time.Duration
	// FetchTimeout bounds one upstream call
	FetchTimeout time.Duration
}

// DefaultCacheConfig returns the production cache settings
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:          redis.TTLScheduleWeek,
		FinalTTL:     24 * time.Hour,
		StaleTTL:     redis.TTLScheduleStale,
		FetchTimeout: 5 * time.Second,
	}
}

type weekKey struct {
	season int
	week   int
}

// CachedSource puts a Redis cache, a last-good fallback and request coalescing in front
// of an upstream Source. It returns an upstream_unavailable error only when no copy of
// the week exists anywhere.
type CachedSource struct {
	upstream Source
	redis    *redis.Client
	cfg      CacheConfig
	log      *logger.Logger

	group singleflight.Group

	mu       sync.RWMutex
	lastGood map[weekKey][]domain.Game
}

// NewCachedSource wraps upstream. A nil redis client keeps only the in-process copy.
func NewCachedSource(upstream Source, rc *redis.Client, cfg CacheConfig, log *logger.Logger) *CachedSource {
	return &CachedSource{
		upstream: upstream,
		redis:    rc,
		cfg:      cfg,
		log:      log.Component("schedule_cache"),
		lastGood: make(map[weekKey][]domain.Game),
	}
}

// WeekGames returns a week's games from cache, the upstream, or the last good copy
func (s *CachedSource) WeekGames(ctx context.Context, season, week int) ([]domain.Game, error) {
	if games, ok := s.readRedis(ctx, s.freshKey(season, week)); ok {
		return games, nil
	}

	key := fmt.Sprintf("%d:%d", season, week)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FetchTimeout)
		defer cancel()
		return s.upstream.WeekGames(fetchCtx, season, week)
	})
	if err == nil {
		games := v.([]domain.Game)
		s.store(ctx, season, week, games)
		return games, nil
	}

	if games, ok := s.fallback(ctx, season, week); ok {
		s.log.Warn("Serving stale schedule",
			zap.Int("season", season),
			zap.Int("week", week),
			zap.Error(err))
		return games, nil
	}

	return nil, errors.NewUpstreamUnavailableError(
		fmt.Sprintf("schedule for week %d is unavailable", week), err)
}

func (s *CachedSource) store(ctx context.Context, season, week int, games []domain.Game) {
	s.mu.Lock()
	s.lastGood[weekKey{season, week}] = games
	s.mu.Unlock()

	if s.redis == nil {
		return
	}

	payload, err := json.Marshal(games)
	if err != nil {
		s.log.WithError(err).Error("Failed to encode schedule")
		return
	}

	ttl := s.cfg.TTL
	if allFinal(games) {
		ttl = s.cfg.FinalTTL
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.redis.Set(writeCtx, s.freshKey(season, week), payload, ttl); err != nil {
		s.log.WithError(err).Warn("Failed to cache schedule")
	}
	if err := s.redis.Set(writeCtx, s.staleKey(season, week), payload, s.cfg.StaleTTL); err != nil {
		s.log.WithError(err).Warn("Failed to cache stale schedule")
	}
}

func (s *CachedSource) fallback(ctx context.Context, season, week int) ([]domain.Game, bool) {
	s.mu.RLock()
	games, ok := s.lastGood[weekKey{season, week}]
	s.mu.RUnlock()
	if ok {
		return games, true
	}
	return s.readRedis(ctx, s.staleKey(season, week))
}

func (s *CachedSource) readRedis(ctx context.Context, key string) ([]domain.Game, bool) {
	if s.redis == nil {
		return nil, false
	}

	val, err := s.redis.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	var games []domain.Game
	if err := json.Unmarshal([]byte(val), &games); err != nil {
		s.log.WithError(err).Warn("Discarding unreadable cached schedule")
		return nil, false
	}
	return games, true
}

func (s *CachedSource) freshKey(season, week int) string {
	if s.redis == nil {
		return ""
	}
	return s.redis.KeyBuilder.KeyScheduleWeek(season, week)
}

func (s *CachedSource) staleKey(season, week int) string {
	if s.redis == nil {
		return ""
	}
	return s.redis.KeyBuilder.KeyScheduleWeekStale(season, week)
}

func allFinal(games []domain.Game) bool {
	if len(games) == 0 {
		return false
	}
	for _, g := range games {
		if g.State != domain.GameFinal {
			return false
		}
	}
	return true
}
