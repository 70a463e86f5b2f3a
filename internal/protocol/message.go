package protocol

import (
	"encoding/json"

	"elfern-game/internal/shared"
)

// Message represents a generic WebSocket message structure.
type Message struct {
	Type    string          `json:"type"`              // Type of the message (e.g., "start_game", "play_card")
	Payload json.RawMessage `json:"payload,omitempty"` // Raw JSON payload, allows flexible structures
}

// --- Client -> Server Payload Structs ---

type HelloPayload struct {
	Name string `json:"name"`
}

type StartGamePayload struct {
	Name      string `json:"name"`
	MaxRounds int    `json:"max_rounds"`
}

type ResumeGamePayload struct {
	Name string `json:"name"`
}

type PlayCardPayload struct {
	CardHandle shared.CardHandle `json:"card_handle"`
}

// --- Server -> Client Payload Structs ---

type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SessionAvailablePayload struct {
	Available bool `json:"available"`
}

type GameStartPayload struct {
	GameID        string     `json:"game_id"`
	Player        PlayerInfo `json:"player"`
	MaxRounds     int        `json:"max_rounds"`
	CurrentRound  int        `json:"current_round"`
	PlayerScore   int        `json:"player_score"`
	OpponentScore int        `json:"opponent_score"`
	Resumed       bool       `json:"resumed"`
}

type RoundStartPayload struct {
	Round       int           `json:"round"`
	MaxRounds   int           `json:"max_rounds"`
	Deck        []shared.Card `json:"deck"`
	BatchDealer shared.Side   `json:"batch_dealer"`
}

type CardDealtPayload struct {
	To     shared.Side       `json:"to"`
	Handle shared.CardHandle `json:"handle"`
}

type CardPlayedPayload struct {
	Side   shared.Side       `json:"side"`
	Handle shared.CardHandle `json:"handle"`
	Card   shared.Card       `json:"card"`
}

type YourTurnPayload struct {
	// LedHandle is the card the opponent led, or -1 when the player leads.
	LedHandle shared.CardHandle `json:"led_handle"`
}

type TrickEndPayload struct {
	Winner         shared.Side       `json:"winner"`
	LeadHandle     shared.CardHandle `json:"lead_handle"`
	FollowHandle   shared.CardHandle `json:"follow_handle"`
	StockRemaining int               `json:"stock_remaining"`
}

type RoundEndPayload struct {
	// Reason is currently always "no_card_available".
	Reason string      `json:"reason"`
	Side   shared.Side `json:"side"` // the side that could not answer
}

type HonorsPayload struct {
	Player        map[shared.Rank]int `json:"player"`
	Opponent      map[shared.Rank]int `json:"opponent"`
	PlayerTotal   int                 `json:"player_total"`
	OpponentTotal int                 `json:"opponent_total"`
}

type RoundPointsPayload struct {
	PlayerPoints   int  `json:"player_points"`
	OpponentPoints int  `json:"opponent_points"`
	PlayerScore    int  `json:"player_score"`
	OpponentScore  int  `json:"opponent_score"`
	Round          int  `json:"round"`
	LastRound      bool `json:"last_round"`
}

type MatchOverPayload struct {
	Winner        shared.Side `json:"winner,omitempty"` // empty on a draw
	Draw          bool        `json:"draw"`
	PlayerScore   int         `json:"player_score"`
	OpponentScore int         `json:"opponent_score"`
}

type GameStatePayload struct {
	Flow           string            `json:"flow"`
	Turn           shared.Side       `json:"turn"`
	BatchDealer    shared.Side       `json:"batch_dealer"`
	LedHandle      shared.CardHandle `json:"led_handle"`
	StockRemaining int               `json:"stock_remaining"`
	Round          int               `json:"round"`
	PlayerScore    int               `json:"player_score"`
	OpponentScore  int               `json:"opponent_score"`
}

type RejectedPayload struct {
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Helper function to create a JSON message
func NewMessage(msgType string, payload interface{}) ([]byte, error) {
	// Handle nil payload specifically
	if payload == nil {
		msg := Message{
			Type:    msgType,
			Payload: nil, // Explicitly set Payload to nil for clarity
		}
		return json.Marshal(msg)
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	msg := Message{
		Type:    msgType,
		Payload: payloadBytes,
	}
	return json.Marshal(msg)
}
