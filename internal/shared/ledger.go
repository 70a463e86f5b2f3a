package shared

import "log"

// Ledger tracks which zone every card of the current round occupies:
// the face-down stock, either hand, or the in-play slots of the trick
// being contested. The four zones are a partition of the deck: a handle
// lives in exactly one zone at any instant, and the ledger re-checks
// that after every mutation. A broken partition is a programming error
// and aborts the match rather than corrupting later scoring.
type Ledger struct {
	Stock        []CardHandle // ordered, top of the pile is the last element
	PlayerHand   []CardHandle
	OpponentHand []CardHandle
	inPlay       map[Side]CardHandle
}

// NewLedger creates a ledger with all 32 handles in the stock, bottom
// (handle of deck position 0) first.
func NewLedger() *Ledger {
	stock := make([]CardHandle, DeckSize)
	for i := range stock {
		stock[i] = i
	}
	return &Ledger{
		Stock:  stock,
		inPlay: make(map[Side]CardHandle, 2),
	}
}

// RestoredLedger rebuilds a ledger from persisted zone arrays. It returns
// false when the arrays do not form a valid partition of the deck, in
// which case the caller falls back to a fresh round. A stored session
// never has cards in play: play is committed trick by trick.
func RestoredLedger(stock, playerHand, opponentHand []CardHandle) (*Ledger, bool) {
	l := &Ledger{
		Stock:        append([]CardHandle(nil), stock...),
		PlayerHand:   append([]CardHandle(nil), playerHand...),
		OpponentHand: append([]CardHandle(nil), opponentHand...),
		inPlay:       make(map[Side]CardHandle, 2),
	}
	if !l.partitionHolds() {
		return nil, false
	}
	return l, true
}

// Hand returns the hand zone of a side. The returned slice is the
// ledger's own storage; callers must not mutate it.
func (l *Ledger) Hand(side Side) []CardHandle {
	if side == SidePlayer {
		return l.PlayerHand
	}
	return l.OpponentHand
}

// InPlay returns the handle a side has committed to the current trick,
// or -1 if that side has not committed one.
func (l *Ledger) InPlay(side Side) CardHandle {
	if h, ok := l.inPlay[side]; ok {
		return h
	}
	return -1
}

// StockRemaining returns the number of cards left in the stock.
func (l *Ledger) StockRemaining() int {
	return len(l.Stock)
}

// DealTopOfStock removes the top card of the stock and appends it to the
// given side's hand, returning the dealt handle. When the stock is empty
// this is a logged no-op: callers are expected to check first, and an
// empty stock is an ordinary end-of-phase condition, not an error.
func (l *Ledger) DealTopOfStock(to Side) (CardHandle, bool) {
	if len(l.Stock) == 0 {
		log.Printf("Attempted to deal from an empty stock to %s; skipping.", to)
		return -1, false
	}
	top := l.Stock[len(l.Stock)-1]
	l.Stock = l.Stock[:len(l.Stock)-1]
	if to == SidePlayer {
		l.PlayerHand = append(l.PlayerHand, top)
	} else {
		l.OpponentHand = append(l.OpponentHand, top)
	}
	l.mustHoldPartition("DealTopOfStock")
	return top, true
}

// MoveToInPlay removes a handle from the given side's hand and marks it
// as that side's committed card for the current trick. The handle must
// currently be in that hand and the side must not already have a card in
// play; violating either is a fatal programming error.
func (l *Ledger) MoveToInPlay(handle CardHandle, from Side) {
	if _, busy := l.inPlay[from]; busy {
		log.Panicf("Error: side %s already has a card in play.", from)
	}
	hand := l.Hand(from)
	idx := -1
	for i, h := range hand {
		if h == handle {
			idx = i
			break
		}
	}
	if idx < 0 {
		log.Panicf("Error: card handle %d is not in the %s hand.", handle, from)
	}
	if from == SidePlayer {
		l.PlayerHand = append(l.PlayerHand[:idx], l.PlayerHand[idx+1:]...)
	} else {
		l.OpponentHand = append(l.OpponentHand[:idx], l.OpponentHand[idx+1:]...)
	}
	l.inPlay[from] = handle
	l.mustHoldPartition("MoveToInPlay")
}

// ResolveInPlay moves both committed cards into the winner's hand and
// clears the in-play slots. Both sides must have committed a card. The
// move is atomic from the perspective of any observer: the ledger is
// never seen with only one card moved.
func (l *Ledger) ResolveInPlay(winner Side) {
	playerCard, pOK := l.inPlay[SidePlayer]
	opponentCard, oOK := l.inPlay[SideOpponent]
	if !pOK || !oOK {
		log.Panicf("Error: cannot resolve a trick with %d card(s) in play.", len(l.inPlay))
	}
	if winner == SidePlayer {
		l.PlayerHand = append(l.PlayerHand, playerCard, opponentCard)
	} else {
		l.OpponentHand = append(l.OpponentHand, playerCard, opponentCard)
	}
	delete(l.inPlay, SidePlayer)
	delete(l.inPlay, SideOpponent)
	l.mustHoldPartition("ResolveInPlay")
}

// ReturnInPlay moves any committed cards back into their owners' hands
// and clears the in-play slots. Used at round end, where the round-ending
// rule says a committed lead stays with the side that committed it.
func (l *Ledger) ReturnInPlay() {
	if h, ok := l.inPlay[SidePlayer]; ok {
		l.PlayerHand = append(l.PlayerHand, h)
		delete(l.inPlay, SidePlayer)
	}
	if h, ok := l.inPlay[SideOpponent]; ok {
		l.OpponentHand = append(l.OpponentHand, h)
		delete(l.inPlay, SideOpponent)
	}
	l.mustHoldPartition("ReturnInPlay")
}

// HasSuit reports whether a side holds at least one card of the suit.
func (l *Ledger) HasSuit(side Side, suit Suit, deck *Deck) bool {
	for _, h := range l.Hand(side) {
		if deck.Card(h).Suit == suit {
			return true
		}
	}
	return false
}

// Holds reports whether the handle is currently in the side's hand.
func (l *Ledger) Holds(side Side, handle CardHandle) bool {
	for _, h := range l.Hand(side) {
		if h == handle {
			return true
		}
	}
	return false
}

func (l *Ledger) partitionHolds() bool {
	seen := make(map[CardHandle]bool, DeckSize)
	count := 0
	mark := func(handles []CardHandle) bool {
		for _, h := range handles {
			if h < 0 || h >= DeckSize || seen[h] {
				return false
			}
			seen[h] = true
			count++
		}
		return true
	}
	if !mark(l.Stock) || !mark(l.PlayerHand) || !mark(l.OpponentHand) {
		return false
	}
	for _, h := range l.inPlay {
		if h < 0 || h >= DeckSize || seen[h] {
			return false
		}
		seen[h] = true
		count++
	}
	return count == DeckSize
}

func (l *Ledger) mustHoldPartition(op string) {
	if !l.partitionHolds() {
		log.Panicf("Error: zone partition broken after %s: stock=%d player=%d opponent=%d inPlay=%d.",
			op, len(l.Stock), len(l.PlayerHand), len(l.OpponentHand), len(l.inPlay))
	}
}
