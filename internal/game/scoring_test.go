package game

import (
	"testing"

	"elfern-game/internal/shared"
)

func TestRoundPoints(t *testing.T) {
	tests := []struct {
		honors int
		points int
	}{
		{0, 0},
		{4, 0},
		{9, 0},
		{10, 0},
		{11, 1},
		{12, 2},
		{15, 2},
		{19, 2},
		{20, 3},
	}

	for _, tt := range tests {
		if got := RoundPoints(tt.honors); got != tt.points {
			t.Errorf("RoundPoints(%d) = %d, want %d", tt.honors, got, tt.points)
		}
	}
}

func TestTallyHonors(t *testing.T) {
	deck := testDeck()
	hand := handles(t,
		shared.Card{Suit: shared.Clubs, Rank: shared.RankAce},
		shared.Card{Suit: shared.Hearts, Rank: shared.RankAce},
		shared.Card{Suit: shared.Clubs, Rank: shared.Rank10},
		shared.Card{Suit: shared.Spades, Rank: shared.RankQueen},
		shared.Card{Suit: shared.Diamonds, Rank: shared.Rank7},
		shared.Card{Suit: shared.Hearts, Rank: shared.Rank9},
	)

	tally := TallyHonors(hand, deck)

	if tally[shared.RankAce] != 2 {
		t.Errorf("ace count %d, want 2", tally[shared.RankAce])
	}
	if tally[shared.Rank10] != 1 || tally[shared.RankQueen] != 1 {
		t.Errorf("unexpected tally %v", tally)
	}
	if _, ok := tally[shared.Rank7]; ok {
		t.Error("7 must never be tallied")
	}
	if got := tally.Total(); got != 4 {
		t.Errorf("Total() = %d, want 4", got)
	}
}

func TestHonorTotalsSumToTwenty(t *testing.T) {
	deck := testDeck()
	l := shared.NewLedger()
	for l.StockRemaining() > 16 {
		l.DealTopOfStock(shared.SidePlayer)
	}
	for l.StockRemaining() > 0 {
		l.DealTopOfStock(shared.SideOpponent)
	}

	player := TallyHonors(l.Hand(shared.SidePlayer), deck).Total()
	opponent := TallyHonors(l.Hand(shared.SideOpponent), deck).Total()
	if player+opponent != 20 {
		t.Errorf("honor totals %d+%d do not sum to 20", player, opponent)
	}
}

func TestMatchScoreWinner(t *testing.T) {
	tests := []struct {
		name    string
		score   MatchScore
		winner  shared.Side
		decided bool
	}{
		{"player ahead", MatchScore{PlayerPoints: 3, OpponentPoints: 1}, shared.SidePlayer, true},
		{"opponent ahead", MatchScore{PlayerPoints: 0, OpponentPoints: 2}, shared.SideOpponent, true},
		{"tie is a draw", MatchScore{PlayerPoints: 2, OpponentPoints: 2}, "", false},
		{"scoreless tie is a draw", MatchScore{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, decided := tt.score.Winner()
			if winner != tt.winner || decided != tt.decided {
				t.Errorf("Winner() = (%q, %t), want (%q, %t)", winner, decided, tt.winner, tt.decided)
			}
		})
	}
}
