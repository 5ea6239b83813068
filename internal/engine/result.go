// Package engine computes effective pick results, effective strikes, pick visibility and
// standings order from stored picks and live schedule data. Everything here is a pure
// function of its inputs; persistence and fetching live in the service layer.
package engine

import "survivor-api/internal/domain"

// ResolveEffectiveResult returns the result a pick should be treated as having right now.
// A stored win or loss is authoritative. Otherwise the live game decides: no game or a game
// that is not final is pending, and a final tie counts as a loss.
func ResolveEffectiveResult(stored domain.PickResult, game *domain.TeamGame) domain.PickResult {
	switch stored {
	case domain.ResultWin, domain.ResultLoss:
		return stored
	case domain.ResultPending:
	}

	if game == nil {
		return domain.ResultPending
	}

	switch game.State {
	case domain.GameFinal:
	case domain.GameScheduled, domain.GameInProgress:
		return domain.ResultPending
	default:
		return domain.ResultPending
	}

	if game.TeamScore > game.OpponentScore {
		return domain.ResultWin
	}
	return domain.ResultLoss
}
