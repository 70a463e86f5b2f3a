package database

// GameResult is a persisted row of a concluded match.
type GameResult struct {
	ID            string `json:"id"`
	CreatedAt     string `json:"created_at"`
	Player        string `json:"player"`
	Winner        string `json:"winner"` // "player", "opponent" or "draw"
	PlayerScore   int    `json:"player_score"`
	OpponentScore int    `json:"opponent_score"`
	Rounds        int    `json:"rounds"`
}

// SessionRow is a persisted interrupted session for one player. Progress
// (deck sequence and zone handle arrays) is stored as JSON blobs; the
// engine validates them on restore and falls back to a fresh match when
// they are malformed.
type SessionRow struct {
	Player        string `json:"player"`
	CreatedAt     string `json:"created_at"`
	Deck          string `json:"deck"`          // JSON array of cards
	Stock         string `json:"stock"`         // JSON array of handles
	PlayerHand    string `json:"player_hand"`   // JSON array of handles
	OpponentHand  string `json:"opponent_hand"` // JSON array of handles
	BatchDealer   string `json:"batch_dealer"`
	CurrentRound  int    `json:"current_round"`
	MaxRounds     int    `json:"max_rounds"`
	PlayerScore   int    `json:"player_score"`
	OpponentScore int    `json:"opponent_score"`
}
