package game

import (
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"elfern-game/internal/protocol"
	"elfern-game/internal/shared"

	"github.com/google/uuid"
)

// FlowState represents where the turn/flow state machine currently is.
type FlowState string

const (
	AwaitingLead   FlowState = "AwaitingLead"   // batch dealer must commit a card
	AwaitingFollow FlowState = "AwaitingFollow" // other side must answer the led card
	Resolving      FlowState = "Resolving"      // both cards committed, trick being resolved
	RoundEnd       FlowState = "RoundEnd"       // a side could not answer; scoring shown
	MatchOver      FlowState = "MatchOver"      // all rounds played
)

const initialHandSize = 6

// MessageSender defines the function signature for sending messages back
// to the connected client. The Hub provides an implementation of this.
type MessageSender func(clientID string, message []byte)

// MatchResult describes a concluded match for whoever records results.
type MatchResult struct {
	GameID        string
	PlayerName    string
	Winner        shared.Side // empty on a draw
	Draw          bool
	PlayerScore   int
	OpponentScore int
	Rounds        int
}

// Game represents the Elfern state machine for one match of a human
// against the scripted opponent. All transitions happen under the mutex
// in response to discrete events: a play request, a scheduled opponent
// move, or a next-round signal. Legality is always evaluated against the
// state at the moment the event is processed, never a stale snapshot.
type Game struct {
	ID         string
	PlayerID   string
	PlayerName string

	Deck        *shared.Deck
	Ledger      *shared.Ledger
	BatchDealer shared.Side       // side leading the current trick
	Flow        FlowState
	Turn        shared.Side       // side expected to act in AwaitingLead/AwaitingFollow
	LedHandle   shared.CardHandle // committed lead while AwaitingFollow, else -1
	Score       MatchScore

	lastTrickWinner shared.Side
	resumed         bool

	mu          sync.Mutex
	sendMessage MessageSender
	onMatchOver func(MatchResult)

	rng        *rand.Rand
	scheduler  Scheduler
	pending    Task
	pendingSeq int
}

// NewGame initializes a fresh match of maxRounds rounds.
func NewGame(playerID, playerName string, maxRounds int) *Game {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &Game{
		ID:         uuid.NewString(),
		PlayerID:   playerID,
		PlayerName: playerName,
		Flow:       AwaitingLead,
		LedHandle:  -1,
		Score: MatchScore{
			CurrentRound: 1,
			MaxRounds:    maxRounds,
		},
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		scheduler: NewScheduler(),
	}
}

// RestoreGame rebuilds an interrupted match from a stored session. A
// malformed snapshot returns ErrBadSnapshot and the caller starts fresh.
func RestoreGame(playerID, playerName string, snap SessionSnapshot, score MatchScore) (*Game, error) {
	deck, ledger, err := snap.restore()
	if err != nil {
		return nil, err
	}
	if score.MaxRounds < 1 || score.CurrentRound < 1 || score.CurrentRound > score.MaxRounds {
		return nil, ErrBadSnapshot
	}
	g := NewGame(playerID, playerName, score.MaxRounds)
	g.Deck = deck
	g.Ledger = ledger
	g.BatchDealer = snap.BatchDealer
	g.Score = score
	g.resumed = true
	return g, nil
}

// OnMatchOver registers a callback invoked once when the match concludes.
func (g *Game) OnMatchOver(fn func(MatchResult)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onMatchOver = fn
}

// StartGameLoop announces the match and starts (or resumes) the first
// round. Called once by the Hub after the client is wired up.
func (g *Game) StartGameLoop(sender MessageSender) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sendMessage = sender
	log.Printf("Game %s: starting for player %s (%s).", g.ID, g.PlayerName, g.PlayerID)

	startPayload := protocol.GameStartPayload{
		GameID:        g.ID,
		Player:        protocol.PlayerInfo{ID: g.PlayerID, Name: g.PlayerName},
		MaxRounds:     g.Score.MaxRounds,
		CurrentRound:  g.Score.CurrentRound,
		PlayerScore:   g.Score.PlayerPoints,
		OpponentScore: g.Score.OpponentPoints,
		Resumed:       g.resumed,
	}
	startMsg, _ := protocol.NewMessage("game_start", startPayload)
	g.send(startMsg)

	if g.resumed {
		g.resumeRound()
	} else {
		g.startRound(shared.SidePlayer)
	}
}

// startRound begins a new round: fresh deck and ledger, six cards to
// each side, the rest face down in the stock. Assumes lock is held.
func (g *Game) startRound(dealer shared.Side) {
	log.Printf("Game %s: starting round %d/%d, %s deals.", g.ID, g.Score.CurrentRound, g.Score.MaxRounds, dealer)
	g.Deck = shared.NewDeck()
	g.Ledger = shared.NewLedger()
	g.BatchDealer = dealer
	g.LedHandle = -1

	g.emitRoundStart()

	for i := 0; i < initialHandSize; i++ {
		g.dealTo(shared.SidePlayer)
	}
	for i := 0; i < initialHandSize; i++ {
		g.dealTo(shared.SideOpponent)
	}

	g.beginTrick()
}

// resumeRound picks up a restored round mid-way: the shell is replayed
// the deck and hand contents so it can rebuild the table. Assumes lock
// is held.
func (g *Game) resumeRound() {
	log.Printf("Game %s: resuming round %d/%d, %s deals.", g.ID, g.Score.CurrentRound, g.Score.MaxRounds, g.BatchDealer)
	g.LedHandle = -1
	g.emitRoundStart()
	for _, h := range g.Ledger.Hand(shared.SidePlayer) {
		g.emitCardDealt(shared.SidePlayer, h)
	}
	for _, h := range g.Ledger.Hand(shared.SideOpponent) {
		g.emitCardDealt(shared.SideOpponent, h)
	}
	g.beginTrick()
}

// beginTrick hands the lead to the batch dealer. Assumes lock is held.
func (g *Game) beginTrick() {
	// A side that ran out of cards entirely cannot lead or answer.
	if len(g.Ledger.Hand(g.BatchDealer)) == 0 {
		g.endRound(g.BatchDealer)
		return
	}

	g.Flow = AwaitingLead
	g.Turn = g.BatchDealer
	g.LedHandle = -1
	g.broadcastGameState()

	if g.Turn == shared.SidePlayer {
		g.notifyYourTurn(-1)
	} else {
		g.scheduleOpponentMove()
	}
}

// HandlePlayerAction processes incoming actions from the player.
func (g *Game) HandlePlayerAction(clientID string, msg protocol.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if clientID != g.PlayerID {
		log.Printf("Game %s: action from unknown client %s.", g.ID, clientID)
		return
	}
	if g.Flow == MatchOver {
		g.reject("Match is already over.")
		return
	}

	switch msg.Type {
	case "play_card":
		var payload protocol.PlayCardPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			log.Printf("Game %s: bad play_card payload: %v", g.ID, err)
			g.reject("Invalid play_card message.")
			return
		}
		g.playCard(payload.CardHandle)

	case "next_round":
		g.nextRound()

	default:
		log.Printf("Game %s: unhandled action type '%s'.", g.ID, msg.Type)
	}
}

// playCard validates and applies the player's card. Illegal attempts are
// rejected with no state change: the UI should not offer illegal cards,
// but the engine re-validates every request. Assumes lock is held.
func (g *Game) playCard(handle shared.CardHandle) {
	if (g.Flow != AwaitingLead && g.Flow != AwaitingFollow) || g.Turn != shared.SidePlayer {
		g.reject("Not your turn.")
		return
	}
	if !g.Ledger.Holds(shared.SidePlayer, handle) {
		g.reject("Card not in your hand.")
		return
	}

	if g.Flow == AwaitingFollow && g.Ledger.StockRemaining() == 0 {
		ledSuit := g.Deck.Card(g.LedHandle).Suit
		if g.Deck.Card(handle).Suit != ledSuit && g.Ledger.HasSuit(shared.SidePlayer, ledSuit, g.Deck) {
			g.reject("You must follow suit.")
			return
		}
	}

	g.commitCard(shared.SidePlayer, handle)

	if g.Flow == AwaitingFollow {
		// Player answered the opponent's lead.
		g.resolveTrick()
		return
	}

	// Player led; the opponent answers after its thinking pause.
	g.LedHandle = handle
	g.Flow = AwaitingFollow
	g.Turn = shared.SideOpponent
	g.broadcastGameState()
	g.scheduleOpponentMove()
}

// commitCard moves a card into play and announces it. Assumes lock is
// held and the move has been validated.
func (g *Game) commitCard(side shared.Side, handle shared.CardHandle) {
	g.Ledger.MoveToInPlay(handle, side)
	card := g.Deck.Card(handle)
	log.Printf("Game %s: %s played %s.", g.ID, side, card)
	payload := protocol.CardPlayedPayload{Side: side, Handle: handle, Card: card}
	msg, _ := protocol.NewMessage("card_played", payload)
	g.send(msg)
}

// scheduleOpponentMove queues the opponent's move after a randomized
// thinking delay. Any previously pending move is cancelled; a stale
// timer that already fired is dropped by the sequence check, so a new
// round can never be hit by a move scheduled for an old one.
func (g *Game) scheduleOpponentMove() {
	g.cancelPending()
	seq := g.pendingSeq
	delay := opponentDelayMin + time.Duration(g.rng.Int63n(int64(opponentDelayMax-opponentDelayMin)+1))
	g.pending = g.scheduler.AfterFunc(delay, func() {
		g.opponentMove(seq)
	})
}

func (g *Game) cancelPending() {
	if g.pending != nil {
		g.pending.Stop()
		g.pending = nil
	}
	g.pendingSeq++
}

// opponentMove runs when the thinking timer fires.
func (g *Game) opponentMove(seq int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seq != g.pendingSeq {
		log.Printf("Game %s: dropping stale opponent move.", g.ID)
		return
	}
	if g.Turn != shared.SideOpponent {
		log.Printf("Game %s: opponent move fired in state %s/%s; ignoring.", g.ID, g.Flow, g.Turn)
		return
	}

	hand := g.Ledger.Hand(shared.SideOpponent)

	switch g.Flow {
	case AwaitingLead:
		handle := ChoosePlayingCard(hand, g.Deck, g.rng)
		if handle < 0 {
			g.endRound(shared.SideOpponent)
			return
		}
		g.commitCard(shared.SideOpponent, handle)
		g.LedHandle = handle
		g.Flow = AwaitingFollow
		g.Turn = shared.SidePlayer

		// With the stock exhausted the player may be unable to answer at
		// all; that ends the round before any play attempt.
		ledSuit := g.Deck.Card(handle).Suit
		if g.Ledger.StockRemaining() == 0 && !g.Ledger.HasSuit(shared.SidePlayer, ledSuit, g.Deck) {
			g.endRound(shared.SidePlayer)
			return
		}
		g.broadcastGameState()
		g.notifyYourTurn(handle)

	case AwaitingFollow:
		handle := ChooseOpposingCard(g.LedHandle, hand, g.Deck, g.Ledger.StockRemaining(), g.rng)
		if handle == NoCardAvailable {
			g.endRound(shared.SideOpponent)
			return
		}
		g.commitCard(shared.SideOpponent, handle)
		g.resolveTrick()

	default:
		log.Printf("Game %s: opponent move in unexpected flow state %s.", g.ID, g.Flow)
	}
}

// resolveTrick runs once both sides have committed a card: decide the
// winner, move both cards to the winner's hand, replenish from the stock
// while it lasts, and hand the next lead to the winner. Assumes lock is
// held.
func (g *Game) resolveTrick() {
	g.Flow = Resolving

	leader := g.BatchDealer
	leadHandle := g.Ledger.InPlay(leader)
	followHandle := g.Ledger.InPlay(leader.Other())
	if leadHandle < 0 || followHandle < 0 {
		log.Panicf("Game %s: resolving a trick without both cards in play.", g.ID)
	}

	winner := shared.ResolveTrick(leader, g.Deck.Card(leadHandle), g.Deck.Card(followHandle))
	g.Ledger.ResolveInPlay(winner)
	log.Printf("Game %s: trick (%s vs %s) won by %s.", g.ID, g.Deck.Card(leadHandle), g.Deck.Card(followHandle), winner)

	trickPayload := protocol.TrickEndPayload{
		Winner:         winner,
		LeadHandle:     leadHandle,
		FollowHandle:   followHandle,
		StockRemaining: g.Ledger.StockRemaining(),
	}
	trickMsg, _ := protocol.NewMessage("trick_end", trickPayload)
	g.send(trickMsg)

	// Replenishment: winner draws first, then the loser. Skipped once
	// the stock is out; that is the permanent switch to the suit-locked
	// phase, not an error.
	if g.Ledger.StockRemaining() > 0 {
		g.dealTo(winner)
		g.dealTo(winner.Other())
	}

	g.BatchDealer = winner
	g.lastTrickWinner = winner
	g.beginTrick()
}

// endRound finishes the round: the side that could not answer is named,
// honors are tallied from the hands as they stand, and round points are
// added to the match score. Assumes lock is held.
func (g *Game) endRound(outOfCards shared.Side) {
	g.cancelPending()
	g.Flow = RoundEnd
	g.Ledger.ReturnInPlay()
	log.Printf("Game %s: round %d ended, %s has no card available.", g.ID, g.Score.CurrentRound, outOfCards)

	endPayload := protocol.RoundEndPayload{Reason: "no_card_available", Side: outOfCards}
	endMsg, _ := protocol.NewMessage("round_end", endPayload)
	g.send(endMsg)

	playerTally := TallyHonors(g.Ledger.Hand(shared.SidePlayer), g.Deck)
	opponentTally := TallyHonors(g.Ledger.Hand(shared.SideOpponent), g.Deck)
	honorsPayload := protocol.HonorsPayload{
		Player:        playerTally,
		Opponent:      opponentTally,
		PlayerTotal:   playerTally.Total(),
		OpponentTotal: opponentTally.Total(),
	}
	honorsMsg, _ := protocol.NewMessage("honors", honorsPayload)
	g.send(honorsMsg)

	playerPoints := RoundPoints(playerTally.Total())
	opponentPoints := RoundPoints(opponentTally.Total())
	g.Score.PlayerPoints += playerPoints
	g.Score.OpponentPoints += opponentPoints
	log.Printf("Game %s: round points player=%d opponent=%d (totals %d/%d).",
		g.ID, playerPoints, opponentPoints, g.Score.PlayerPoints, g.Score.OpponentPoints)

	lastRound := g.Score.CurrentRound == g.Score.MaxRounds
	pointsPayload := protocol.RoundPointsPayload{
		PlayerPoints:   playerPoints,
		OpponentPoints: opponentPoints,
		PlayerScore:    g.Score.PlayerPoints,
		OpponentScore:  g.Score.OpponentPoints,
		Round:          g.Score.CurrentRound,
		LastRound:      lastRound,
	}
	pointsMsg, _ := protocol.NewMessage("round_points", pointsPayload)
	g.send(pointsMsg)

	if lastRound {
		g.concludeMatch()
	}
	// Otherwise wait for the player's next_round signal; the shell shows
	// the scoring screen in the meantime.
}

// concludeMatch declares the match result. Equal cumulative scores are a
// declared draw. Assumes lock is held.
func (g *Game) concludeMatch() {
	g.Flow = MatchOver
	winner, decided := g.Score.Winner()

	overPayload := protocol.MatchOverPayload{
		Winner:        winner,
		Draw:          !decided,
		PlayerScore:   g.Score.PlayerPoints,
		OpponentScore: g.Score.OpponentPoints,
	}
	overMsg, _ := protocol.NewMessage("match_over", overPayload)
	g.send(overMsg)
	if decided {
		log.Printf("Game %s: match over, %s wins %d/%d.", g.ID, winner, g.Score.PlayerPoints, g.Score.OpponentPoints)
	} else {
		log.Printf("Game %s: match over, drawn at %d points each.", g.ID, g.Score.PlayerPoints)
	}

	if g.onMatchOver != nil {
		result := MatchResult{
			GameID:        g.ID,
			PlayerName:    g.PlayerName,
			Winner:        winner,
			Draw:          !decided,
			PlayerScore:   g.Score.PlayerPoints,
			OpponentScore: g.Score.OpponentPoints,
			Rounds:        g.Score.MaxRounds,
		}
		// Recording results may touch the database; keep it off the
		// game's lock path.
		go g.onMatchOver(result)
	}
}

// nextRound advances past the scoring screen into a fresh round. The
// side that won the last resolved trick deals first. Assumes lock is
// held.
func (g *Game) nextRound() {
	if g.Flow != RoundEnd {
		g.reject("No round to advance.")
		return
	}
	if g.Score.CurrentRound >= g.Score.MaxRounds {
		g.reject("Match is already over.")
		return
	}
	g.Score.CurrentRound++
	dealer := g.lastTrickWinner
	if dealer == "" {
		dealer = g.BatchDealer
	}
	g.startRound(dealer)
}

// HandlePlayerDisconnect cancels any pending opponent move; the Hub
// stores the session separately.
func (g *Game) HandlePlayerDisconnect(clientID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if clientID != g.PlayerID {
		return
	}
	g.cancelPending()
	log.Printf("Game %s: player %s disconnected.", g.ID, clientID)
}

// Snapshot captures the current session for persistence. Any card still
// in play is folded back into the hand that committed it, so the stored
// state is always between tricks. The second return is false when there
// is nothing worth storing (the match already concluded).
func (g *Game) Snapshot() (SessionSnapshot, MatchScore, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Flow == MatchOver || g.Deck == nil || g.Ledger == nil {
		return SessionSnapshot{}, MatchScore{}, false
	}

	playerHand := append([]shared.CardHandle(nil), g.Ledger.Hand(shared.SidePlayer)...)
	opponentHand := append([]shared.CardHandle(nil), g.Ledger.Hand(shared.SideOpponent)...)
	if h := g.Ledger.InPlay(shared.SidePlayer); h >= 0 {
		playerHand = append(playerHand, h)
	}
	if h := g.Ledger.InPlay(shared.SideOpponent); h >= 0 {
		opponentHand = append(opponentHand, h)
	}

	snap := SessionSnapshot{
		Deck:         append([]shared.Card(nil), g.Deck.Cards...),
		Stock:        append([]shared.CardHandle(nil), g.Ledger.Stock...),
		PlayerHand:   playerHand,
		OpponentHand: opponentHand,
		BatchDealer:  g.BatchDealer,
	}
	return snap, g.Score, true
}

// --- Messaging helpers (assume lock is held) ---

func (g *Game) dealTo(side shared.Side) {
	handle, ok := g.Ledger.DealTopOfStock(side)
	if !ok {
		return
	}
	g.emitCardDealt(side, handle)
}

func (g *Game) emitCardDealt(side shared.Side, handle shared.CardHandle) {
	payload := protocol.CardDealtPayload{To: side, Handle: handle}
	msg, _ := protocol.NewMessage("card_dealt", payload)
	g.send(msg)
}

func (g *Game) emitRoundStart() {
	payload := protocol.RoundStartPayload{
		Round:       g.Score.CurrentRound,
		MaxRounds:   g.Score.MaxRounds,
		Deck:        g.Deck.Cards,
		BatchDealer: g.BatchDealer,
	}
	msg, _ := protocol.NewMessage("round_start", payload)
	g.send(msg)
}

func (g *Game) notifyYourTurn(led shared.CardHandle) {
	payload := protocol.YourTurnPayload{LedHandle: led}
	msg, _ := protocol.NewMessage("your_turn", payload)
	g.send(msg)
}

func (g *Game) broadcastGameState() {
	payload := protocol.GameStatePayload{
		Flow:           string(g.Flow),
		Turn:           g.Turn,
		BatchDealer:    g.BatchDealer,
		LedHandle:      g.LedHandle,
		StockRemaining: g.Ledger.StockRemaining(),
		Round:          g.Score.CurrentRound,
		PlayerScore:    g.Score.PlayerPoints,
		OpponentScore:  g.Score.OpponentPoints,
	}
	msg, _ := protocol.NewMessage("game_state_update", payload)
	g.send(msg)
}

func (g *Game) reject(reason string) {
	log.Printf("Game %s: rejected action: %s", g.ID, reason)
	payload := protocol.RejectedPayload{Reason: reason}
	msg, _ := protocol.NewMessage("rejected", payload)
	g.send(msg)
}

func (g *Game) send(message []byte) {
	if g.sendMessage == nil {
		return
	}
	g.sendMessage(g.PlayerID, message)
}
