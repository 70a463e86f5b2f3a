package game

import (
	"math/rand"

	"elfern-game/internal/shared"
)

// NoCardAvailable is returned by ChooseOpposingCard when the stock is
// exhausted and the opponent holds no card of the led suit. It is a
// defined game-ending signal, not an error.
const NoCardAvailable shared.CardHandle = -2

// aceLeadProbability is the chance the opponent leads a covered ace
// (one whose same-suit 7 it still holds). Below 1 so the opponent
// occasionally gives the player a head start.
const aceLeadProbability = 0.6

// ChoosePlayingCard picks the card the opponent leads a trick with.
//
// An ace whose matching 7 is also in hand is safe to lead: the only card
// that could take it is held back. Such an ace is led with probability
// aceLeadProbability; otherwise the highest-ranked non-ace card is led.
func ChoosePlayingCard(hand []shared.CardHandle, deck *shared.Deck, rng *rand.Rand) shared.CardHandle {
	var coveredAces []shared.CardHandle
	for _, h := range hand {
		c := deck.Card(h)
		if c.Rank != shared.RankAce {
			continue
		}
		for _, h7 := range hand {
			c7 := deck.Card(h7)
			if c7.Rank == shared.Rank7 && c7.Suit == c.Suit {
				coveredAces = append(coveredAces, h)
				break
			}
		}
	}
	if len(coveredAces) > 0 && rng.Float64() < aceLeadProbability {
		return coveredAces[rng.Intn(len(coveredAces))]
	}

	if h := maxRankCard(hand, deck, []shared.Rank{shared.RankAce}, nil, rng); h >= 0 {
		return h
	}
	// Nothing but aces left.
	return maxRankCard(hand, deck, nil, nil, rng)
}

// ChooseOpposingCard picks the card the opponent answers the led card
// with, or NoCardAvailable when the stock is exhausted and it cannot
// follow suit. The returned handle is always a member of hand.
func ChooseOpposingCard(ledHandle shared.CardHandle, hand []shared.CardHandle, deck *shared.Deck, stockRemaining int, rng *rand.Rand) shared.CardHandle {
	led := deck.Card(ledHandle)
	suitLocked := stockRemaining == 0

	if suitLocked && !suitExists(hand, led.Suit, deck) {
		return NoCardAvailable
	}

	// A led ace loses only to its own 7; playing it is a guaranteed win
	// at minimal cost.
	if led.Rank == shared.RankAce {
		for _, h := range hand {
			c := deck.Card(h)
			if c.Rank == shared.Rank7 && c.Suit == led.Suit {
				return h
			}
		}
	}

	// Cards that take the trick: same suit, higher rank.
	var beating []shared.CardHandle
	for _, h := range hand {
		c := deck.Card(h)
		if c.Suit == led.Suit && shared.NormalizedRank(c.Rank) > shared.NormalizedRank(led.Rank) {
			beating = append(beating, h)
		}
	}

	// Unnecessary cards are the worthless 8s and 9s; once the stock is
	// empty only those of the led suit are legal to shed.
	var unnecessary []shared.CardHandle
	for _, h := range hand {
		c := deck.Card(h)
		r := shared.NormalizedRank(c.Rank)
		if r >= 8 && r < 10 && (!suitLocked || c.Suit == led.Suit) {
			unnecessary = append(unnecessary, h)
		}
	}

	// Under suit lock every pick below must stay within the led suit.
	var lockedSuits []shared.Suit
	if suitLocked {
		lockedSuits = suitsExcept(led.Suit)
	}

	ledRank := shared.NormalizedRank(led.Rank)

	// The led card is worth winning: an honor, or the 7 that guards an ace.
	if ledRank >= 10 || led.Rank == shared.Rank7 {
		if len(beating) > 0 {
			return minRankCard(beating, deck, nil, nil, rng)
		}
		if len(unnecessary) > 0 {
			return minRankCard(unnecessary, deck, nil, lockedSuits, rng)
		}
		// Surrender the cheapest card, holding on to 7s if at all possible.
		if h := minRankCard(hand, deck, []shared.Rank{shared.Rank7}, lockedSuits, rng); h >= 0 {
			return h
		}
		return minRankCard(hand, deck, nil, lockedSuits, rng)
	}

	// The led card is an 8 or 9 and not worth fighting over.
	if len(unnecessary) > 0 {
		if suitLocked {
			return minRankCard(unnecessary, deck, nil, lockedSuits, rng)
		}
		// Prefer shedding a different suit so as not to hand over the
		// trick (and tip the hand's honors) for nothing.
		if h := minRankCard(unnecessary, deck, nil, []shared.Suit{led.Suit}, rng); h >= 0 {
			return h
		}
		return minRankCard(unnecessary, deck, nil, nil, rng)
	}
	if len(beating) > 0 {
		return minRankCard(beating, deck, nil, nil, rng)
	}
	// Forced to give up an honor; lose the cheapest one.
	return minRankCard(hand, deck, nil, lockedSuits, rng)
}

// minRankCard returns a card from hand with the lowest normalized rank,
// skipping excluded ranks and suits. Ties between equally ranked cards
// are broken uniformly at random. Returns -1 when the filters leave no
// candidate.
func minRankCard(hand []shared.CardHandle, deck *shared.Deck, excludeRanks []shared.Rank, excludeSuits []shared.Suit, rng *rand.Rand) shared.CardHandle {
	best := 15 // no card ranks higher than 14
	var candidates []shared.CardHandle
	for _, h := range hand {
		c := deck.Card(h)
		if rankIn(c.Rank, excludeRanks) || suitIn(c.Suit, excludeSuits) {
			continue
		}
		r := shared.NormalizedRank(c.Rank)
		if r < best {
			best = r
			candidates = candidates[:0]
		}
		if r == best {
			candidates = append(candidates, h)
		}
	}
	return pick(candidates, rng)
}

// maxRankCard is the mirror of minRankCard.
func maxRankCard(hand []shared.CardHandle, deck *shared.Deck, excludeRanks []shared.Rank, excludeSuits []shared.Suit, rng *rand.Rand) shared.CardHandle {
	best := 0 // no card ranks lower than 7
	var candidates []shared.CardHandle
	for _, h := range hand {
		c := deck.Card(h)
		if rankIn(c.Rank, excludeRanks) || suitIn(c.Suit, excludeSuits) {
			continue
		}
		r := shared.NormalizedRank(c.Rank)
		if r > best {
			best = r
			candidates = candidates[:0]
		}
		if r == best {
			candidates = append(candidates, h)
		}
	}
	return pick(candidates, rng)
}

func pick(candidates []shared.CardHandle, rng *rand.Rand) shared.CardHandle {
	switch len(candidates) {
	case 0:
		return -1
	case 1:
		return candidates[0]
	default:
		return candidates[rng.Intn(len(candidates))]
	}
}

func suitExists(hand []shared.CardHandle, suit shared.Suit, deck *shared.Deck) bool {
	for _, h := range hand {
		if deck.Card(h).Suit == suit {
			return true
		}
	}
	return false
}

func suitsExcept(s shared.Suit) []shared.Suit {
	out := make([]shared.Suit, 0, len(shared.Suits)-1)
	for _, suit := range shared.Suits {
		if suit != s {
			out = append(out, suit)
		}
	}
	return out
}

func rankIn(r shared.Rank, set []shared.Rank) bool {
	for _, x := range set {
		if x == r {
			return true
		}
	}
	return false
}

func suitIn(s shared.Suit, set []shared.Suit) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}
