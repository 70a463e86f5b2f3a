package server

import (
	"encoding/json"
	"testing"

	"elfern-game/internal/database"
	"elfern-game/internal/shared"
)

func validSessionRow(t *testing.T) database.SessionRow {
	t.Helper()
	cards := make([]shared.Card, 0, shared.DeckSize)
	for _, rank := range shared.Ranks {
		for _, suit := range shared.Suits {
			cards = append(cards, shared.Card{Suit: suit, Rank: rank})
		}
	}
	stock := make([]shared.CardHandle, 0, 20)
	for h := 0; h < 20; h++ {
		stock = append(stock, h)
	}
	player := []shared.CardHandle{20, 21, 22, 23, 24, 25}
	opponent := []shared.CardHandle{26, 27, 28, 29, 30, 31}

	deckBlob, _ := json.Marshal(cards)
	stockBlob, _ := json.Marshal(stock)
	playerBlob, _ := json.Marshal(player)
	opponentBlob, _ := json.Marshal(opponent)

	return database.SessionRow{
		Player:        "alice",
		Deck:          string(deckBlob),
		Stock:         string(stockBlob),
		PlayerHand:    string(playerBlob),
		OpponentHand:  string(opponentBlob),
		BatchDealer:   string(shared.SideOpponent),
		CurrentRound:  2,
		MaxRounds:     3,
		PlayerScore:   1,
		OpponentScore: 2,
	}
}

func TestRestoreFromRow(t *testing.T) {
	row := validSessionRow(t)

	g, err := restoreFromRow("client-1", "alice", row)
	if err != nil {
		t.Fatalf("restore of a valid row failed: %v", err)
	}
	if g.BatchDealer != shared.SideOpponent {
		t.Errorf("restored dealer %s, want opponent", g.BatchDealer)
	}
	if g.Score.CurrentRound != 2 || g.Score.MaxRounds != 3 {
		t.Errorf("restored round %d/%d, want 2/3", g.Score.CurrentRound, g.Score.MaxRounds)
	}
	if g.Score.PlayerPoints != 1 || g.Score.OpponentPoints != 2 {
		t.Errorf("restored score %d/%d, want 1/2", g.Score.PlayerPoints, g.Score.OpponentPoints)
	}
	if g.Ledger.StockRemaining() != 20 {
		t.Errorf("restored stock holds %d cards, want 20", g.Ledger.StockRemaining())
	}
}

func TestRestoreFromRowRejectsBadBlobs(t *testing.T) {
	tests := []struct {
		name   string
		mangle func(*database.SessionRow)
	}{
		{"deck is not JSON", func(r *database.SessionRow) { r.Deck = "{" }},
		{"stock is not JSON", func(r *database.SessionRow) { r.Stock = "nope" }},
		{"player hand is not JSON", func(r *database.SessionRow) { r.PlayerHand = "[1," }},
		{"opponent hand is not JSON", func(r *database.SessionRow) { r.OpponentHand = "x" }},
		{"zones overlap", func(r *database.SessionRow) { r.PlayerHand = r.OpponentHand }},
		{"dealer unknown", func(r *database.SessionRow) { r.BatchDealer = "dealer" }},
		{"round out of range", func(r *database.SessionRow) { r.CurrentRound = 9 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validSessionRow(t)
			tt.mangle(&row)
			if _, err := restoreFromRow("client-1", "alice", row); err == nil {
				t.Error("malformed row restored without error")
			}
		})
	}
}
