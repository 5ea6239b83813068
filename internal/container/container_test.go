package container

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survivor-api/internal/config"
	"survivor-api/internal/repository"
	"survivor-api/pkg/logger"
)

func testConfig(redisURL string) *config.Config {
	return &config.Config{
		Environment:      "test",
		RedisURL:         redisURL,
		JWTSecret:        "secret",
		SeasonYear:       2025,
		ScheduleCacheTTL: time.Minute,
		ScheduleTimeout:  time.Second,
		ReconcileCron:    "*/5 * * * *",
	}
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name        string
		redisURL    string
		expectRedis bool
	}{
		{name: "Container with Redis configured", redisURL: "redis://" + mr.Addr(), expectRedis: true},
		{name: "Container without Redis configured", redisURL: "", expectRedis: false},
		// Redis client initialization fails but container creation succeeds
		{name: "Container with invalid Redis URL", redisURL: "invalid://redis-url", expectRedis: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(context.Background(), testConfig(tt.redisURL), logger.NewNop())
			require.NoError(t, err)
			t.Cleanup(c.Close)

			assert.Equal(t, tt.expectRedis, c.HasRedis())
			assert.IsType(t, &repository.MemoryStore{}, c.Store)
			assert.Nil(t, c.DB)

			require.NotNil(t, c.Services)
			assert.NotNil(t, c.Services.Auth)
			assert.NotNil(t, c.Services.League)
			assert.NotNil(t, c.Services.Pick)
			assert.NotNil(t, c.Services.Standings)
			assert.NotNil(t, c.Services.Commissioner)
			assert.NotNil(t, c.Services.Reconcile)
			assert.NotNil(t, c.Hub)
			assert.Equal(t, "closed", c.ScheduleState())
		})
	}
}

func TestNew_BadDatabaseURL(t *testing.T) {
	cfg := testConfig("")
	cfg.DatabaseURL = "::not a url::"

	c, err := New(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
	assert.Nil(t, c)
}
