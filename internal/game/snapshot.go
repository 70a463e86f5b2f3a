package game

import (
	"errors"

	"elfern-game/internal/shared"
)

// SessionSnapshot is the persistable mid-round state: the round's deck
// sequence, the three resting zones as handle arrays, and who leads the
// current trick. A snapshot is always taken between tricks: any card
// still in play when a session is stored returns to the hand that
// committed it, abandoning the interrupted trick.
type SessionSnapshot struct {
	Deck         []shared.Card       `json:"deck"`
	Stock        []shared.CardHandle `json:"stock"`
	PlayerHand   []shared.CardHandle `json:"player"`
	OpponentHand []shared.CardHandle `json:"opponent"`
	BatchDealer  shared.Side         `json:"batch_dealer"`
}

// ErrBadSnapshot marks a snapshot that does not describe a valid round
// state. Callers fall back to a fresh match instead of failing.
var ErrBadSnapshot = errors.New("session snapshot is malformed")

// restore rebuilds deck and ledger from a snapshot.
func (s SessionSnapshot) restore() (*shared.Deck, *shared.Ledger, error) {
	deck := &shared.Deck{Cards: append([]shared.Card(nil), s.Deck...)}
	if !deck.Valid() {
		return nil, nil, ErrBadSnapshot
	}
	if !s.BatchDealer.Valid() {
		return nil, nil, ErrBadSnapshot
	}
	ledger, ok := shared.RestoredLedger(s.Stock, s.PlayerHand, s.OpponentHand)
	if !ok {
		return nil, nil, ErrBadSnapshot
	}
	return deck, ledger, nil
}
