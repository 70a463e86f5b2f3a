package game

import "elfern-game/internal/shared"

// HonorTally counts the honor cards (10, jack, queen, king, ace) a side
// ended the round with, keyed by rank. 7s, 8s and 9s are never tallied.
type HonorTally map[shared.Rank]int

// TallyHonors builds the honor tally for one side's hand.
func TallyHonors(hand []shared.CardHandle, deck *shared.Deck) HonorTally {
	tally := make(HonorTally)
	for _, h := range hand {
		c := deck.Card(h)
		if c.Rank.IsHonor() {
			tally[c.Rank]++
		}
	}
	return tally
}

// Total sums the honor counts across ranks. With 20 honor cards in the
// deck the two sides' totals always sum to 20.
func (t HonorTally) Total() int {
	total := 0
	for _, n := range t {
		total += n
	}
	return total
}

// RoundPoints converts an honor-count total into round points. Eleven
// honors is the bare majority and wins the hand; more than eleven wins
// double; all twenty wins triple. Below eleven wins nothing.
func RoundPoints(honorTotal int) int {
	switch {
	case honorTotal == 11:
		return 1
	case honorTotal > 11 && honorTotal < 20:
		return 2
	case honorTotal == 20:
		return 3
	default:
		return 0
	}
}

// MatchScore is the cumulative state of a match. Points persist across
// rounds and reset only when a brand-new match begins.
type MatchScore struct {
	CurrentRound   int `json:"current_round"`
	MaxRounds      int `json:"max_rounds"`
	PlayerPoints   int `json:"player_points"`
	OpponentPoints int `json:"opponent_points"`
}

// Winner returns the match winner once all rounds are played. The second
// return is false on a drawn match.
func (s MatchScore) Winner() (shared.Side, bool) {
	switch {
	case s.PlayerPoints > s.OpponentPoints:
		return shared.SidePlayer, true
	case s.OpponentPoints > s.PlayerPoints:
		return shared.SideOpponent, true
	default:
		return "", false
	}
}
