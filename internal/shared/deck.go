package shared

import (
	"log"
	"math/rand/v2"
)

// DeckSize is the number of cards in the Elfern deck.
const DeckSize = 32

// CardHandle is a card's positional index into the generated deck
// sequence. Handles are the stable identity of a card within a round;
// the zone ledger and the wire protocol both speak in handles.
type CardHandle = int

// Deck represents the ordered 32-card sequence of a single round.
type Deck struct {
	Cards []Card
}

// NewDeck creates a shuffled 32-card Elfern deck. A fresh deck is
// generated at every round start; handles from a previous round are
// meaningless against it.
func NewDeck() *Deck {
	cards := make([]Card, 0, DeckSize)
	for _, rank := range Ranks {
		for _, suit := range Suits {
			cards = append(cards, Card{Suit: suit, Rank: rank})
		}
	}

	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	log.Println("Deck shuffled.")

	return &Deck{Cards: cards}
}

// Card returns the card behind a handle.
func (d *Deck) Card(handle CardHandle) Card {
	if handle < 0 || handle >= len(d.Cards) {
		log.Panicf("Error: card handle %d out of range for deck of %d cards.", handle, len(d.Cards))
	}
	return d.Cards[handle]
}

// Valid reports whether every handle in the deck sequence is well formed.
// Used when restoring a persisted session, where the deck arrives from
// outside the process.
func (d *Deck) Valid() bool {
	if len(d.Cards) != DeckSize {
		return false
	}
	seen := make(map[Card]bool, DeckSize)
	for _, c := range d.Cards {
		if NormalizedRank(c.Rank) == 0 {
			return false
		}
		ok := false
		for _, s := range Suits {
			if c.Suit == s {
				ok = true
			}
		}
		if !ok || seen[c] {
			return false
		}
		seen[c] = true
	}
	return true
}
