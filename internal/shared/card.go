package shared

// Suit represents the suit of a card (e.g., Clubs, Diamonds, Hearts, Spades).
type Suit string

const (
	Clubs    Suit = "clubs"
	Diamonds Suit = "diamonds"
	Hearts   Suit = "hearts"
	Spades   Suit = "spades"
)

// Suits lists all four suits in a fixed order.
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

// Rank represents the rank of a card. Elfern plays with the 32-card
// piquet deck, so only "7" through "ace" exist.
type Rank string

const (
	Rank7     Rank = "7"
	Rank8     Rank = "8"
	Rank9     Rank = "9"
	Rank10    Rank = "10"
	RankJack  Rank = "jack"
	RankQueen Rank = "queen"
	RankKing  Rank = "king"
	RankAce   Rank = "ace"
)

// Ranks lists all eight ranks from lowest to highest.
var Ranks = []Rank{Rank7, Rank8, Rank9, Rank10, RankJack, RankQueen, RankKing, RankAce}

// Card represents a single card in the Elfern game.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// Total order used everywhere rank comparison matters: 7..10 map to
// themselves, jack=11, queen=12, king=13, ace=14.
var normalizedRanks = map[Rank]int{
	Rank7:     7,
	Rank8:     8,
	Rank9:     9,
	Rank10:    10,
	RankJack:  11,
	RankQueen: 12,
	RankKing:  13,
	RankAce:   14,
}

// NormalizedRank returns the numeric strength of a rank.
func NormalizedRank(r Rank) int {
	return normalizedRanks[r]
}

// IsHonor reports whether the rank contributes to scoring. Only 10, jack,
// queen, king and ace are honors; 7, 8 and 9 count for nothing.
func (r Rank) IsHonor() bool {
	return NormalizedRank(r) >= 10
}

func (c Card) String() string {
	return string(c.Rank) + " of " + string(c.Suit)
}
