package game

import "github.com/skyraal/humanaiconnection/domain"

// MissedRounds lists the frozen rounds a late joiner never voted on: every
// card before the one on the table when they arrived, plus that card when it
// was already being discussed. Players seated from the lobby missed nothing.
// The result is rebuilt from history on every call.
func (r *Room) MissedRounds(playerID string) []domain.MissedCard {
	p, _ := r.player(playerID)
	if p == nil || !p.IsLateJoiner {
		return []domain.MissedCard{}
	}

	upTo := p.JoinedAtCardIndex
	if p.joinedAfterVote {
		upTo++
	}
	if upTo > len(r.history) {
		upTo = len(r.history)
	}

	missed := make([]domain.MissedCard, 0, upTo)
	for _, rd := range r.history[:upTo] {
		missed = append(missed, domain.MissedCard{
			CardIndex:         rd.cardIndex,
			CardText:          rd.card,
			Choices:           copyChoices(rd.byID),
			ChoicesByUsername: copyChoices(rd.byUsername),
		})
	}
	return missed
}
