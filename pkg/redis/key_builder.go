package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// Schedule key builders
func (kb *KeyBuilder) KeyScheduleWeek(season, week int) string {
	return kb.BuildKey(fmt.Sprintf(KeyScheduleWeek, season, week))
}

func (kb *KeyBuilder) KeyScheduleWeekStale(season, week int) string {
	return kb.BuildKey(fmt.Sprintf(KeyScheduleWeekStale, season, week))
}

func (kb *KeyBuilder) KeyReconcileLock() string {
	return kb.BuildKey(KeyReconcileLock)
}

// ChannelLeagueEvents is the pub/sub channel carrying live league events
func (kb *KeyBuilder) ChannelLeagueEvents() string {
	return kb.BuildKey(ChannelLeagueEvents)
}
