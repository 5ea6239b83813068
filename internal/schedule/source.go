// Package schedule supplies NFL game data for league weeks.
package schedule

import (
	"context"

	"survivor-api/internal/domain"
)

// Source returns the games of one league week
type Source interface {
	WeekGames(ctx context.Context, season, week int) ([]domain.Game, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context, season, week int) ([]domain.Game, error)

func (f SourceFunc) WeekGames(ctx context.Context, season, week int) ([]domain.Game, error) {
	return f(ctx, season, week)
}
