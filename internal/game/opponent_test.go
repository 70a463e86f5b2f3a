package game

import (
	"math/rand"
	"testing"

	"elfern-game/internal/shared"
)

// testDeck builds an unshuffled deck so handles map predictably onto
// cards: handle = rankIndex*4 + suitIndex.
func testDeck() *shared.Deck {
	cards := make([]shared.Card, 0, shared.DeckSize)
	for _, rank := range shared.Ranks {
		for _, suit := range shared.Suits {
			cards = append(cards, shared.Card{Suit: suit, Rank: rank})
		}
	}
	return &shared.Deck{Cards: cards}
}

func handleOf(t *testing.T, rank shared.Rank, suit shared.Suit) shared.CardHandle {
	t.Helper()
	for ri, r := range shared.Ranks {
		for si, s := range shared.Suits {
			if r == rank && s == suit {
				return ri*4 + si
			}
		}
	}
	t.Fatalf("no such card: %s of %s", rank, suit)
	return -1
}

func handles(t *testing.T, cards ...shared.Card) []shared.CardHandle {
	t.Helper()
	out := make([]shared.CardHandle, len(cards))
	for i, c := range cards {
		out[i] = handleOf(t, c.Rank, c.Suit)
	}
	return out
}

func TestChoosePlayingCardLeadsHighestWithoutAces(t *testing.T) {
	deck := testDeck()
	hand := handles(t,
		shared.Card{Suit: shared.Clubs, Rank: shared.RankKing},
		shared.Card{Suit: shared.Hearts, Rank: shared.Rank9},
		shared.Card{Suit: shared.Spades, Rank: shared.RankQueen},
	)

	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		got := ChoosePlayingCard(hand, deck, rng)
		if got != handleOf(t, shared.RankKing, shared.Clubs) {
			t.Fatalf("seed %d: led %v, want king of clubs", seed, deck.Card(got))
		}
	}
}

func TestChoosePlayingCardNeverLeadsUncoveredAce(t *testing.T) {
	deck := testDeck()
	// Ace of clubs without the 7 of clubs: leading it risks the override.
	hand := handles(t,
		shared.Card{Suit: shared.Clubs, Rank: shared.RankAce},
		shared.Card{Suit: shared.Hearts, Rank: shared.RankKing},
		shared.Card{Suit: shared.Spades, Rank: shared.Rank8},
	)

	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		got := ChoosePlayingCard(hand, deck, rng)
		if got != handleOf(t, shared.RankKing, shared.Hearts) {
			t.Fatalf("seed %d: led %v, want king of hearts", seed, deck.Card(got))
		}
	}
}

func TestChoosePlayingCardLeadsCoveredAceSometimes(t *testing.T) {
	deck := testDeck()
	hand := handles(t,
		shared.Card{Suit: shared.Clubs, Rank: shared.RankAce},
		shared.Card{Suit: shared.Clubs, Rank: shared.Rank7},
		shared.Card{Suit: shared.Hearts, Rank: shared.RankKing},
	)
	ace := handleOf(t, shared.RankAce, shared.Clubs)
	king := handleOf(t, shared.RankKing, shared.Hearts)

	sawAce, sawKing := false, false
	for seed := int64(0); seed < 100; seed++ {
		rng := rand.New(rand.NewSource(seed))
		switch got := ChoosePlayingCard(hand, deck, rng); got {
		case ace:
			sawAce = true
		case king:
			sawKing = true
		default:
			t.Fatalf("seed %d: led %v, want covered ace or king", seed, deck.Card(got))
		}
	}
	if !sawAce || !sawKing {
		t.Errorf("covered ace lead should be probabilistic, saw ace=%t king=%t", sawAce, sawKing)
	}
}

func TestChoosePlayingCardWithOnlyAces(t *testing.T) {
	deck := testDeck()
	hand := handles(t,
		shared.Card{Suit: shared.Clubs, Rank: shared.RankAce},
		shared.Card{Suit: shared.Hearts, Rank: shared.RankAce},
	)
	rng := rand.New(rand.NewSource(3))

	got := ChoosePlayingCard(hand, deck, rng)
	if deck.Card(got).Rank != shared.RankAce {
		t.Errorf("hand of aces led %v", deck.Card(got))
	}
}

func TestChooseOpposingCard(t *testing.T) {
	deck := testDeck()

	tests := []struct {
		name  string
		led   shared.Card
		hand  []shared.Card
		stock int
		want  shared.Card // zero value means NoCardAvailable
	}{
		{
			name: "suit locked and void ends the round",
			led:  shared.Card{Suit: shared.Hearts, Rank: shared.RankQueen},
			hand: []shared.Card{
				{Suit: shared.Clubs, Rank: shared.RankKing},
				{Suit: shared.Spades, Rank: shared.Rank8},
			},
			stock: 0,
		},
		{
			name: "led ace falls to its own seven",
			led:  shared.Card{Suit: shared.Hearts, Rank: shared.RankAce},
			hand: []shared.Card{
				{Suit: shared.Hearts, Rank: shared.Rank7},
				{Suit: shared.Hearts, Rank: shared.RankKing},
				{Suit: shared.Clubs, Rank: shared.RankAce},
			},
			stock: 5,
			want:  shared.Card{Suit: shared.Hearts, Rank: shared.Rank7},
		},
		{
			name: "honor is taken with the cheapest beating card",
			led:  shared.Card{Suit: shared.Hearts, Rank: shared.RankQueen},
			hand: []shared.Card{
				{Suit: shared.Hearts, Rank: shared.RankKing},
				{Suit: shared.Hearts, Rank: shared.RankAce},
				{Suit: shared.Clubs, Rank: shared.Rank8},
			},
			stock: 4,
			want:  shared.Card{Suit: shared.Hearts, Rank: shared.RankKing},
		},
		{
			name: "led seven is worth beating",
			led:  shared.Card{Suit: shared.Hearts, Rank: shared.Rank7},
			hand: []shared.Card{
				{Suit: shared.Hearts, Rank: shared.Rank8},
				{Suit: shared.Clubs, Rank: shared.RankKing},
			},
			stock: 10,
			want:  shared.Card{Suit: shared.Hearts, Rank: shared.Rank8},
		},
		{
			name: "worthless lead shed from a different suit while stock lasts",
			led:  shared.Card{Suit: shared.Hearts, Rank: shared.Rank9},
			hand: []shared.Card{
				{Suit: shared.Clubs, Rank: shared.Rank8},
				{Suit: shared.Hearts, Rank: shared.Rank10},
				{Suit: shared.Spades, Rank: shared.RankKing},
			},
			stock: 6,
			want:  shared.Card{Suit: shared.Clubs, Rank: shared.Rank8},
		},
		{
			name: "worthless lead shed in suit when nothing else is cheap",
			led:  shared.Card{Suit: shared.Hearts, Rank: shared.Rank8},
			hand: []shared.Card{
				{Suit: shared.Hearts, Rank: shared.Rank9},
				{Suit: shared.Clubs, Rank: shared.RankAce},
			},
			stock: 8,
			want:  shared.Card{Suit: shared.Hearts, Rank: shared.Rank9},
		},
		{
			name: "suit lock restricts shedding to the led suit",
			led:  shared.Card{Suit: shared.Hearts, Rank: shared.Rank9},
			hand: []shared.Card{
				{Suit: shared.Hearts, Rank: shared.Rank8},
				{Suit: shared.Hearts, Rank: shared.RankAce},
				{Suit: shared.Clubs, Rank: shared.RankKing},
			},
			stock: 0,
			want:  shared.Card{Suit: shared.Hearts, Rank: shared.Rank8},
		},
		{
			name: "surrender keeps sevens back when possible",
			led:  shared.Card{Suit: shared.Hearts, Rank: shared.RankKing},
			hand: []shared.Card{
				{Suit: shared.Clubs, Rank: shared.Rank7},
				{Suit: shared.Spades, Rank: shared.RankJack},
				{Suit: shared.Diamonds, Rank: shared.RankQueen},
			},
			stock: 3,
			want:  shared.Card{Suit: shared.Spades, Rank: shared.RankJack},
		},
		{
			name: "suit lock can force the guarded seven out",
			led:  shared.Card{Suit: shared.Hearts, Rank: shared.RankKing},
			hand: []shared.Card{
				{Suit: shared.Hearts, Rank: shared.Rank7},
				{Suit: shared.Clubs, Rank: shared.RankAce},
			},
			stock: 0,
			want:  shared.Card{Suit: shared.Hearts, Rank: shared.Rank7},
		},
		{
			name: "worthless lead still beaten when there is nothing to shed",
			led:  shared.Card{Suit: shared.Hearts, Rank: shared.Rank8},
			hand: []shared.Card{
				{Suit: shared.Hearts, Rank: shared.Rank10},
				{Suit: shared.Clubs, Rank: shared.RankAce},
			},
			stock: 5,
			want:  shared.Card{Suit: shared.Hearts, Rank: shared.Rank10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			led := handleOf(t, tt.led.Rank, tt.led.Suit)
			hand := handles(t, tt.hand...)
			rng := rand.New(rand.NewSource(1))

			got := ChooseOpposingCard(led, hand, deck, tt.stock, rng)

			if (tt.want == shared.Card{}) {
				if got != NoCardAvailable {
					t.Fatalf("got %v, want NoCardAvailable", deck.Card(got))
				}
				return
			}
			want := handleOf(t, tt.want.Rank, tt.want.Suit)
			if got != want {
				t.Errorf("got %v, want %v", deck.Card(got), tt.want)
			}
		})
	}
}

func TestChooseOpposingCardAlwaysPlaysFromHand(t *testing.T) {
	deck := testDeck()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		perm := rng.Perm(shared.DeckSize)
		hand := perm[:6]
		led := perm[6]
		stock := 0
		if i%2 == 0 {
			stock = 1 + rng.Intn(19)
		}

		got := ChooseOpposingCard(led, hand, deck, stock, rng)

		if got == NoCardAvailable {
			if stock > 0 {
				t.Fatalf("case %d: NoCardAvailable while the stock holds %d cards", i, stock)
			}
			if suitExists(hand, deck.Card(led).Suit, deck) {
				t.Fatalf("case %d: NoCardAvailable while holding the led suit", i)
			}
			continue
		}

		inHand := false
		for _, h := range hand {
			if h == got {
				inHand = true
			}
		}
		if !inHand {
			t.Fatalf("case %d: chose handle %d outside the hand %v", i, got, hand)
		}
		if stock == 0 && deck.Card(got).Suit != deck.Card(led).Suit {
			t.Fatalf("case %d: broke suit under lock, led %v answered %v", i, deck.Card(led), deck.Card(got))
		}
	}
}
