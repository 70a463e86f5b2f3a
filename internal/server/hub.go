package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"elfern-game/internal/database"
	"elfern-game/internal/game"
	"elfern-game/internal/protocol"
	"elfern-game/internal/shared"

	"github.com/google/uuid"
)

// clientMessage is a helper struct to pass messages along with the client reference.
type clientMessage struct {
	client  *Client
	message protocol.Message
}

const defaultMaxRounds = 1

// Hub manages active WebSocket connections and the match each one is
// playing. Every connection gets its own Game instance against the
// scripted opponent, so there are no lobbies or rooms to coordinate.
type Hub struct {
	db             *database.Service
	clients        map[*Client]bool
	games          map[*Client]*game.Game // Map client to its active match
	processMessage chan clientMessage
	register       chan *Client
	unregister     chan *Client
	clientMu       sync.RWMutex
	gameMu         sync.RWMutex
}

// NewHub creates a new Hub instance backed by the given database service.
func NewHub(db *database.Service) *Hub {
	return &Hub{
		db:             db,
		clients:        make(map[*Client]bool),
		games:          make(map[*Client]*game.Game),
		processMessage: make(chan clientMessage),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
	}
}

// Run starts the Hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			client.ID = uuid.NewString() // Assign a unique ID upon registration
			log.Printf("Client %s (%s) connected", client.ID, client.conn.RemoteAddr())
			h.clientMu.Lock()
			h.clients[client] = true
			h.clientMu.Unlock()

		case client := <-h.unregister:
			h.clientMu.Lock()
			_, clientExists := h.clients[client]
			if clientExists {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Client %s (%s) disconnected", client.ID, client.Name)
			}
			h.clientMu.Unlock()

			if clientExists {
				h.dropGame(client, true)
			}

		case clientMsg := <-h.processMessage:
			h.handleMessage(clientMsg.client, clientMsg.message)
		}
	}
}

// handleMessage processes a message received from a client.
func (h *Hub) handleMessage(client *Client, msg protocol.Message) {
	switch msg.Type {
	case "hello":
		h.handleHello(client, msg)
	case "start_game":
		h.handleStartGame(client, msg)
	case "resume_game":
		h.handleResumeGame(client, msg)
	case "play_card", "next_round":
		h.handleGameAction(client, msg)
	case "store_session":
		h.handleStoreSession(client)
	case "ping":
		pongMsg, _ := protocol.NewMessage("pong", nil)
		client.send <- pongMsg
	default:
		log.Printf("Received unknown message type '%s' from client %s (%s)", msg.Type, client.ID, client.Name)
		h.sendErrorToClient(client, "Unknown message type.")
	}
}

// handleHello identifies the player and tells the shell whether an
// interrupted session is waiting for them.
func (h *Hub) handleHello(client *Client, msg protocol.Message) {
	var payload protocol.HelloPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("Error unmarshalling hello payload from client %s: %v", client.ID, err)
		h.sendErrorToClient(client, "Invalid hello message format.")
		return
	}
	if payload.Name == "" {
		h.sendErrorToClient(client, "Name cannot be empty.")
		return
	}

	h.clientMu.Lock()
	client.Name = payload.Name
	h.clientMu.Unlock()

	_, err := h.db.LoadSession(payload.Name)
	available := err == nil
	log.Printf("Client %s identified as '%s' (stored session: %t)", client.ID, payload.Name, available)

	reply, _ := protocol.NewMessage("session_available", protocol.SessionAvailablePayload{Available: available})
	h.sendMessageToClient(client.ID, reply)
}

// handleStartGame creates a fresh match for the client. Any stored
// session for the player is superseded and removed.
func (h *Hub) handleStartGame(client *Client, msg protocol.Message) {
	var payload protocol.StartGamePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("Error unmarshalling start_game payload from client %s: %v", client.ID, err)
		h.sendErrorToClient(client, "Invalid start_game message format.")
		return
	}
	if payload.Name == "" {
		h.sendErrorToClient(client, "Name cannot be empty.")
		return
	}
	maxRounds := payload.MaxRounds
	if maxRounds < 1 {
		maxRounds = defaultMaxRounds
	}

	h.clientMu.Lock()
	client.Name = payload.Name
	h.clientMu.Unlock()

	// An abandoned match on this connection is simply replaced.
	h.dropGame(client, false)

	if err := h.db.DeleteSession(payload.Name); err != nil {
		log.Printf("Error deleting stored session for '%s': %v", payload.Name, err)
	}

	h.attachGame(client, game.NewGame(client.ID, payload.Name, maxRounds))
}

// handleResumeGame rebuilds the client's stored session. A missing row
// is an error back to the shell; a malformed one falls back to a fresh
// match over the same number of rounds.
func (h *Hub) handleResumeGame(client *Client, msg protocol.Message) {
	var payload protocol.ResumeGamePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("Error unmarshalling resume_game payload from client %s: %v", client.ID, err)
		h.sendErrorToClient(client, "Invalid resume_game message format.")
		return
	}
	if payload.Name == "" {
		h.sendErrorToClient(client, "Name cannot be empty.")
		return
	}

	h.clientMu.Lock()
	client.Name = payload.Name
	h.clientMu.Unlock()

	row, err := h.db.LoadSession(payload.Name)
	if err != nil {
		log.Printf("Client %s requested resume but no session stored for '%s': %v", client.ID, payload.Name, err)
		h.sendErrorToClient(client, "No stored session found.")
		return
	}

	h.dropGame(client, false)

	restored, err := restoreFromRow(client.ID, payload.Name, row)
	if err != nil {
		log.Printf("Stored session for '%s' is malformed (%v), starting fresh.", payload.Name, err)
		if delErr := h.db.DeleteSession(payload.Name); delErr != nil {
			log.Printf("Error deleting malformed session for '%s': %v", payload.Name, delErr)
		}
		maxRounds := row.MaxRounds
		if maxRounds < 1 {
			maxRounds = defaultMaxRounds
		}
		restored = game.NewGame(client.ID, payload.Name, maxRounds)
	}

	h.attachGame(client, restored)
}

// restoreFromRow decodes the persisted zone blobs and rebuilds the match.
func restoreFromRow(clientID, playerName string, row database.SessionRow) (*game.Game, error) {
	var snap game.SessionSnapshot
	if err := json.Unmarshal([]byte(row.Deck), &snap.Deck); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(row.Stock), &snap.Stock); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(row.PlayerHand), &snap.PlayerHand); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(row.OpponentHand), &snap.OpponentHand); err != nil {
		return nil, err
	}
	snap.BatchDealer = shared.Side(row.BatchDealer)

	score := game.MatchScore{
		CurrentRound:   row.CurrentRound,
		MaxRounds:      row.MaxRounds,
		PlayerPoints:   row.PlayerScore,
		OpponentPoints: row.OpponentScore,
	}
	return game.RestoreGame(clientID, playerName, snap, score)
}

// attachGame registers the match for the client and starts its loop.
func (h *Hub) attachGame(client *Client, g *game.Game) {
	g.OnMatchOver(h.recordResult)

	h.gameMu.Lock()
	h.games[client] = g
	h.gameMu.Unlock()

	log.Printf("Game %s attached to client %s (%s)", g.ID, client.ID, client.Name)
	go g.StartGameLoop(h.sendMessageToClient)
}

// handleGameAction forwards play_card and next_round to the client's match.
func (h *Hub) handleGameAction(client *Client, msg protocol.Message) {
	h.gameMu.RLock()
	gameInstance, inGame := h.games[client]
	h.gameMu.RUnlock()

	if !inGame {
		log.Printf("Received '%s' from client %s with no active game.", msg.Type, client.ID)
		h.sendErrorToClient(client, "You are not in an active game.")
		return
	}

	gameInstance.HandlePlayerAction(client.ID, msg)
}

// handleStoreSession persists the client's current match so it can be
// resumed later.
func (h *Hub) handleStoreSession(client *Client) {
	h.gameMu.RLock()
	gameInstance, inGame := h.games[client]
	h.gameMu.RUnlock()

	if !inGame {
		h.sendErrorToClient(client, "You are not in an active game.")
		return
	}

	if !h.saveSession(client.Name, gameInstance) {
		h.sendErrorToClient(client, "Nothing to store, the match is over.")
		return
	}

	reply, _ := protocol.NewMessage("session_stored", nil)
	h.sendMessageToClient(client.ID, reply)
}

// saveSession snapshots the match and writes it to the database. Returns
// false when the match has nothing left worth storing.
func (h *Hub) saveSession(playerName string, g *game.Game) bool {
	snap, score, ok := g.Snapshot()
	if !ok {
		return false
	}

	deckBlob, err := json.Marshal(snap.Deck)
	if err != nil {
		log.Printf("Error marshalling deck for '%s': %v", playerName, err)
		return false
	}
	stockBlob, _ := json.Marshal(snap.Stock)
	playerBlob, _ := json.Marshal(snap.PlayerHand)
	opponentBlob, _ := json.Marshal(snap.OpponentHand)

	row := database.SessionRow{
		Player:        playerName,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		Deck:          string(deckBlob),
		Stock:         string(stockBlob),
		PlayerHand:    string(playerBlob),
		OpponentHand:  string(opponentBlob),
		BatchDealer:   string(snap.BatchDealer),
		CurrentRound:  score.CurrentRound,
		MaxRounds:     score.MaxRounds,
		PlayerScore:   score.PlayerPoints,
		OpponentScore: score.OpponentPoints,
	}
	if err := h.db.SaveSession(row); err != nil {
		log.Printf("Error saving session for '%s': %v", playerName, err)
		return false
	}
	log.Printf("Session for '%s' stored (round %d/%d).", playerName, score.CurrentRound, score.MaxRounds)
	return true
}

// dropGame detaches the client's match, optionally persisting it first
// so the player can pick it up again after a disconnect.
func (h *Hub) dropGame(client *Client, persist bool) {
	h.gameMu.Lock()
	gameInstance, inGame := h.games[client]
	if inGame {
		delete(h.games, client)
	}
	h.gameMu.Unlock()

	if !inGame {
		return
	}

	if persist && client.Name != "" {
		h.saveSession(client.Name, gameInstance)
	}
	go gameInstance.HandlePlayerDisconnect(client.ID)
}

// recordResult persists a concluded match and clears the stored session.
// Passed to each Game as the match-over callback.
func (h *Hub) recordResult(result game.MatchResult) {
	winner := "draw"
	if !result.Draw {
		winner = string(result.Winner)
	}

	row := database.GameResult{
		ID:            result.GameID,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		Player:        result.PlayerName,
		Winner:        winner,
		PlayerScore:   result.PlayerScore,
		OpponentScore: result.OpponentScore,
		Rounds:        result.Rounds,
	}
	if err := h.db.Insert(row); err != nil {
		log.Printf("Error inserting result for game %s: %v", result.GameID, err)
		return
	}
	if err := h.db.DeleteSession(result.PlayerName); err != nil {
		log.Printf("Error clearing session for '%s' after match %s: %v", result.PlayerName, result.GameID, err)
	}
	log.Printf("Result for game %s recorded (%s, %d/%d).", result.GameID, winner, result.PlayerScore, result.OpponentScore)
}

// sendMessageToClient allows the game logic to send messages back via
// the hub/client. This is passed as a callback to the game instance.
func (h *Hub) sendMessageToClient(clientID string, message []byte) {
	h.clientMu.RLock()
	// Find the client pointer using the ID
	var targetClient *Client
	for client := range h.clients {
		if client.ID == clientID {
			targetClient = client
			break
		}
	}
	h.clientMu.RUnlock()

	if targetClient != nil {
		// Use a non-blocking send with select to avoid blocking the hub/game goroutine
		select {
		case targetClient.send <- message:
			// Message sent successfully
		default:
			// Channel is blocked or closed, assume client disconnected
			log.Printf("Failed to send message to client %s (channel full or closed), initiating cleanup.", clientID)
			// Use a goroutine to avoid potential deadlock if Run loop is busy
			go func() {
				h.clientMu.RLock()
				_, stillConnected := h.clients[targetClient]
				h.clientMu.RUnlock()
				if stillConnected {
					h.unregister <- targetClient
				}
			}()
		}
	} else {
		log.Printf("Could not find client %s to send message (already disconnected?).", clientID)
	}
}

// sendErrorToClient sends a generic error message to a specific client.
func (h *Hub) sendErrorToClient(client *Client, errorMsg string) {
	payload := protocol.ErrorPayload{Message: errorMsg}
	msgBytes, err := protocol.NewMessage("error", payload)
	if err != nil {
		log.Printf("Error creating error message for client %s: %v", client.ID, err)
		return
	}
	h.sendMessageToClient(client.ID, msgBytes)
}
