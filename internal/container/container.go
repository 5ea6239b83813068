package container

import (
	"context"
	"fmt"

	"survivor-api/internal/config"
	"survivor-api/internal/realtime"
	"survivor-api/internal/repository"
	"survivor-api/internal/schedule"
	"survivor-api/internal/service"
	"survivor-api/internal/service/auth"
	"survivor-api/pkg/database"
	"survivor-api/pkg/logger"
	"survivor-api/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	DB          *database.PostgresDB
	Store       repository.Store
	Schedule    schedule.Source
	Hub         *realtime.Hub
	Services    *service.Services

	espn *schedule.ESPNClient
}

// New creates a new dependency injection container. Redis is optional; without a database
// URL the API runs on the in-memory store.
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Container, error) {
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			logger.Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, proceeding without caching")
	}

	var (
		db    *database.PostgresDB
		store repository.Store
	)
	if cfg.DatabaseURL != "" {
		poolOpts := database.DefaultPoolOptions()
		poolOpts.MaxConns = int32(cfg.DBMaxConns)
		pg, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, poolOpts)
		if err != nil {
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		db = pg
		store = repository.NewPostgresStore(pg)
		logger.Info("PostgreSQL store initialized")
	} else {
		store = repository.NewMemoryStore()
		logger.Warn("DATABASE_URL not configured, using in-memory store")
	}

	espn := schedule.NewESPNClient(cfg.ScheduleBaseURL, cfg.ScheduleTimeout, logger)
	cacheCfg := schedule.DefaultCacheConfig()
	cacheCfg.TTL = cfg.ScheduleCacheTTL
	cacheCfg.FetchTimeout = cfg.ScheduleTimeout
	src := schedule.NewCachedSource(espn, redisClient, cacheCfg, logger)

	hub := realtime.NewHub(redisClient, logger)

	services := &service.Services{
		Auth:         auth.NewService(cfg.JWTSecret, logger),
		League:       service.NewLeagueService(store, cfg.SeasonYear, logger),
		Pick:         service.NewPickService(store, src, hub, nil, logger),
		Standings:    service.NewStandingsService(store, src, nil, logger),
		Commissioner: service.NewCommissionerService(store, src, hub, nil, logger),
		Reconcile:    service.NewReconcileService(store, src, redisClient, hub, cfg.ReconcileCron, logger),
	}

	return &Container{
		Config:      cfg,
		Logger:      logger,
		RedisClient: redisClient,
		DB:          db,
		Store:       store,
		Schedule:    src,
		Hub:         hub,
		Services:    services,
		espn:        espn,
	}, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// ScheduleState reports the schedule upstream's circuit breaker state
func (c *Container) ScheduleState() string {
	if c.espn == nil {
		return "unknown"
	}
	return c.espn.BreakerState().String()
}

// Close releases the redis and database connections
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
