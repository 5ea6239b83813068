package service

import (
	"context"
	"fmt"
	"time"

	"survivor-api/internal/domain"
	"survivor-api/internal/repository"
	"survivor-api/internal/schedule"
	"survivor-api/pkg/errors"
)

// Clock returns the current time
type Clock func() time.Time

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.LiveEvent) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func loadLeague(ctx context.Context, r repository.Reader, leagueID string) (*domain.League, error) {
	league, err := r.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load league", err)
	}
	if league == nil {
		return nil, errors.NewNotFoundError("league not found")
	}
	return league, nil
}

func loadMember(ctx context.Context, r repository.Reader, leagueID, userID string) (*domain.Member, error) {
	member, err := r.GetMember(ctx, leagueID, userID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load member", err)
	}
	if member == nil {
		return nil, errors.NewNotFoundError("member not found").WithDetail("user_id", userID)
	}
	return member, nil
}

// requireMember loads the caller's membership, reporting Forbidden for outsiders
func requireMember(ctx context.Context, r repository.Reader, leagueID, userID string) (*domain.Member, error) {
	member, err := r.GetMember(ctx, leagueID, userID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load member", err)
	}
	if member == nil {
		return nil, errors.NewForbiddenError("you are not a member of this league")
	}
	return member, nil
}

func requireCommissioner(league *domain.League, actorID string) error {
	if !league.IsCommissioner(actorID) {
		return errors.NewForbiddenError("only the league commissioner can do this")
	}
	return nil
}

// fetchWeek loads one week of games. Failures surface as upstream_unavailable.
func fetchWeek(ctx context.Context, src schedule.Source, season, week int) (domain.WeekSchedule, error) {
	games, err := src.WeekGames(ctx, season, week)
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		return nil, errors.NewUpstreamUnavailableError(fmt.Sprintf("schedule for week %d is unavailable", week), err)
	}
	return domain.NewWeekSchedule(games), nil
}

// storeError maps repository failures onto application errors
func storeError(message string, err error) error {
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	return errors.NewInternalError(message, err)
}
