package engine

import (
	"sort"
	"strings"
	"time"

	"survivor-api/internal/domain"
)

// BuildStandingsRow assembles one member's row for viewerID at targetWeek
func BuildStandingsRow(member *domain.Member, picks []domain.Pick, league *domain.League, targetWeek int, viewerID string, schedule domain.SeasonSchedule, now time.Time) domain.StandingsRow {
	effective := EffectiveStrikes(member, picks, league, targetWeek, schedule)
	byWeek := domain.PicksByWeek(picks)
	isOwner := viewerID != "" && viewerID == member.UserID

	var weeks []domain.WeekPicks
	if targetWeek >= league.StartWeek {
		weeks = make([]domain.WeekPicks, 0, targetWeek-league.StartWeek+1)
	}
	for week := league.StartWeek; week <= targetWeek; week++ {
		weeks = append(weeks, domain.WeekPicks{
			Week:  week,
			Picks: VisiblePicks(byWeek[week], week, targetWeek, isOwner, schedule[week], now),
		})
	}

	return domain.StandingsRow{
		UserID:           member.UserID,
		DisplayName:      member.DisplayName,
		HasPaid:          member.HasPaid,
		StoredStrikes:    member.Strikes,
		EffectiveStrikes: effective,
		EffectiveStatus:  EffectiveStatus(effective, league),
		Weeks:            weeks,
	}
}

// SortStandings orders rows by effective strikes, then case-insensitive display name.
// The sort is stable and works on a copy, so equal rows keep their input order.
func SortStandings(rows []domain.StandingsRow) []domain.StandingsRow {
	sorted := make([]domain.StandingsRow, len(rows))
	copy(sorted, rows)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EffectiveStrikes != sorted[j].EffectiveStrikes {
			return sorted[i].EffectiveStrikes < sorted[j].EffectiveStrikes
		}
		return strings.ToLower(sorted[i].DisplayName) < strings.ToLower(sorted[j].DisplayName)
	})

	return sorted
}
