package rules

import (
	"fmt"

	"github.com/rajachanda/rps/internal/model"
)

// TieMessage is shown when both players pick the same symbol
const TieMessage = "It's a tie!"

// Compare returns the outcome of player's choice against opponent's,
// from player's point of view
func Compare(player, opponent model.Choice) model.OutcomeKind {
	switch {
	case player == opponent:
		return model.OutcomeTie
	case player.Beats(opponent):
		return model.OutcomeWin
	default:
		return model.OutcomeLose
	}
}

// DetermineWinner resolves a round between two plays.
// Both choices must be valid; the dominance relation is total over
// distinct symbols, so exactly one of them wins unless they are equal.
func DetermineWinner(first, second model.Play) model.RoundOutcome {
	if first.Choice == second.Choice {
		return model.RoundOutcome{
			Kind:    model.OutcomeTie,
			Message: TieMessage,
		}
	}

	winner := second
	if first.Choice.Beats(second.Choice) {
		winner = first
	}

	id := winner.ConnectionID
	return model.RoundOutcome{
		WinnerID:   &id,
		Kind:       model.OutcomeWin,
		Message:    fmt.Sprintf("%s wins this round!", winner.Name),
		WinnerName: winner.Name,
	}
}

// PlaysFor collects the pending plays of a full room in seat order.
// ok is false unless every seated participant has chosen.
func PlaysFor(room *model.Room) (plays []model.Play, ok bool) {
	if !room.AllChosen() {
		return nil, false
	}
	plays = make([]model.Play, 0, len(room.Participants))
	for _, p := range room.Participants {
		plays = append(plays, model.Play{
			ConnectionID: p.ID,
			Name:         p.DisplayName,
			Choice:       room.PendingChoices[p.ID],
		})
	}
	return plays, true
}
