package engine

import "survivor-api/internal/domain"

// EffectiveStrikes is the member's stored strikes plus one for every pick in the counting
// window (league start week through targetWeek) that is still stored as pending but has
// already resolved to a loss. A stored loss is already inside member.Strikes and is not
// counted again. The result is not capped at the league's max strikes.
func EffectiveStrikes(member *domain.Member, picks []domain.Pick, league *domain.League, targetWeek int, schedule domain.SeasonSchedule) int {
	total := member.Strikes
	byWeek := domain.PicksByWeek(picks)

	for week := league.StartWeek; week <= targetWeek; week++ {
		for _, p := range byWeek[week] {
			if p.Result.IsFinal() {
				continue
			}
			if ResolveEffectiveResult(p.Result, schedule.Lookup(week, p.TeamID)) == domain.ResultLoss {
				total++
			}
		}
	}

	return total
}

// EffectiveStatus derives elimination from an effective strike count
func EffectiveStatus(effectiveStrikes int, league *domain.League) domain.MemberStatus {
	return domain.StatusForStrikes(effectiveStrikes, league.MaxStrikes)
}
