// Basta!
//
// Players race to fill a shared list of categories with words starting from
// a random letter, then cross-validate each other's answers by voting.
//
// Features:
// - WebSockets per game ID: /basta/:gameid/ws
// - Game creation via POST /basta with settings (rounds, categories, times)
// - The creating player becomes host; only the host starts the game,
//   commits round scores, advances rounds, and kicks players
// - Players identified by cookie (playerID)
// - Round ends on the first "basta!" declaration or on timer expiry,
//   whichever happens first; losers of that race are ignored
// - Voting phase with per-category good/bad/great votes on peers' answers
// - Kicked players are notified and disconnected
// - Games torn down when the host leaves, or after a configurable idle
//   timeout
// - Short unambiguous game codes with server-side collision retry
// - In-browser QR button to share the current game, backed by go-qrcode

package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"basta/game"
	"basta/party"
	"basta/store"
)

// Messages coming from clients
type ClientMessage struct {
	Type     string            `json:"type"`               // "join", "ready", "start", "basta", "answers", "vote", "round", "commit", "advance", "kick", "leave", "settings"
	Name     string            `json:"name,omitempty"`     // join
	Ready    *bool             `json:"ready,omitempty"`    // ready
	Round    int               `json:"round,omitempty"`    // answers / vote / round / commit / advance
	Answers  map[string]string `json:"answers,omitempty"`  // answers
	Target   string            `json:"target,omitempty"`   // vote / kick
	Category string            `json:"category,omitempty"` // vote
	Vote     string            `json:"vote,omitempty"`     // vote: "good", "bad", "great"
	Settings *game.Settings    `json:"settings,omitempty"` // settings
}

// StateMessage carries a full snapshot of the game and roster, sent on
// every committed change.
type StateMessage struct {
	Type    string        `json:"type"` // "state"
	Game    game.Game     `json:"game"`
	Players []game.Player `json:"players"`
}

// RoundMessage answers a "round" request with the assembled answers and
// votes for one round, for the voting view.
type RoundMessage struct {
	Type  string         `json:"type"` // "round"
	Round int            `json:"round"`
	Data  game.RoundData `json:"data"`
}

// SessionInfoMessage is sent immediately on connect so the client knows
// who this cookie is within the game.
type SessionInfoMessage struct {
	Type     string `json:"type"` // "session_info"
	PlayerID string `json:"player_id"`
	IsHost   bool   `json:"is_host"`
	IsJoined bool   `json:"is_joined"`
}

// ErrorMessage reports a rejected operation to the client that sent it.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SimpleMessage is for generic notifications ("kicked", "closed").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func errorMessage(err error) ErrorMessage {
	code := "internal"
	var verr *game.ValidationError
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		code = "game_not_found"
	case errors.Is(err, game.ErrGameAlreadyStarted):
		code = "game_already_started"
	case errors.Is(err, game.ErrNotAuthorized):
		code = "not_authorized"
	case errors.Is(err, game.ErrInvalidState):
		code = "invalid_state"
	case errors.Is(err, game.ErrSelfVoteForbidden):
		code = "self_vote_forbidden"
	case errors.Is(err, game.ErrIDExhausted):
		code = "id_exhausted"
	case errors.As(err, &verr):
		code = "validation"
	}

	return ErrorMessage{
		Type:    "error",
		Code:    code,
		Message: err.Error(),
	}
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type opRequest struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id  string
	svc *party.Service

	register chan *Client
	unreg    chan *Client
	ops      chan opRequest
	removals chan string

	clients map[*Client]bool
	watcher *store.Watcher
	last    store.Event
	roster  map[string]bool

	timedRound int
	roundTimer *time.Timer

	// done is closed in shutdown so that goroutines sending into the hub
	// channels above never block on a loop that has already returned.
	done    chan struct{}
	cleanup func()
}

func newHub(gameID string, svc *party.Service, watcher *store.Watcher, initial store.Event, cleanup func()) *Hub {
	h := &Hub{
		id:       gameID,
		svc:      svc,
		register: make(chan *Client),
		unreg:    make(chan *Client),
		ops:      make(chan opRequest),
		removals: make(chan string),
		clients:  make(map[*Client]bool),
		watcher:  watcher,
		last:     initial,
		roster:   make(map[string]bool),
		done:     make(chan struct{}),
		cleanup:  cleanup,
	}
	for _, p := range initial.Players {
		h.roster[p.ID] = true
	}
	return h
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.handleRegister(c)

		case c := <-h.unreg:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			// Allow a grace period for refreshes before removing a
			// disconnected lobby player.
			if c.playerID != "" && c.playerID != h.last.Game.HostID {
				go h.scheduleRemoval(c.playerID, cfg.playerTimeout)
			}

		case op := <-h.ops:
			h.handleOp(cfg, op)

		case playerID := <-h.removals:
			h.handleRemoval(cfg, playerID)

		case ev, ok := <-h.watcher.C:
			if !ok || ev.Deleted {
				h.shutdown()
				return
			}
			h.handleEvent(ev)
		}
	}
}

func (h *Hub) handleRegister(c *Client) {
	h.clients[c] = true

	isJoined := false
	for _, p := range h.last.Players {
		if p.ID == c.playerID {
			isJoined = true
			break
		}
	}

	c.send <- SessionInfoMessage{
		Type:     "session_info",
		PlayerID: c.playerID,
		IsHost:   c.playerID == h.last.Game.HostID,
		IsJoined: isJoined,
	}
	c.send <- StateMessage{
		Type:    "state",
		Game:    h.last.Game,
		Players: h.last.Players,
	}
}

func (h *Hub) handleOp(cfg *Config, op opRequest) {
	c := op.client
	msg := op.msg
	sess := party.Session{PlayerID: c.playerID, GameID: h.id}
	ctx := context.Background()

	var err error
	switch msg.Type {
	case "join":
		err = h.svc.JoinGame(ctx, sess, strings.TrimSpace(msg.Name))
		if err == nil {
			logf(cfg, "GAMES: Player %q joined %s", msg.Name, h.id)
		}
	case "ready":
		ready := msg.Ready != nil && *msg.Ready
		err = h.svc.SetReady(ctx, sess, ready)
	case "start":
		err = h.svc.StartGame(ctx, sess)
		if err == nil {
			logf(cfg, "GAMES: Game %s started", h.id)
		}
	case "basta":
		err = h.svc.DeclareRoundEnd(ctx, sess)
	case "answers":
		err = h.svc.SubmitAnswers(ctx, sess, msg.Round, msg.Answers)
	case "vote":
		err = h.svc.SubmitVote(ctx, sess, msg.Round, msg.Target, msg.Category, game.Vote(msg.Vote))
	case "round":
		var rd game.RoundData
		rd, err = h.svc.Round(ctx, h.id, msg.Round)
		if err == nil {
			h.trySend(c, RoundMessage{Type: "round", Round: msg.Round, Data: rd})
		}
	case "commit":
		err = h.svc.CommitRoundScores(ctx, sess, msg.Round)
		if err == nil {
			logf(cfg, "GAMES: Scores committed for round %d of %s", msg.Round, h.id)
		}
	case "advance":
		err = h.svc.AdvanceRound(ctx, sess, msg.Round)
	case "kick":
		err = h.svc.KickPlayer(ctx, sess, msg.Target)
	case "leave":
		err = h.svc.LeaveGame(ctx, sess)
	case "settings":
		if msg.Settings == nil {
			err = &game.ValidationError{Field: "settings", Reason: "missing settings"}
			break
		}
		err = h.svc.UpdateSettings(ctx, sess, *msg.Settings)
	default:
		// ignore unknown types
		return
	}

	if err != nil {
		h.trySend(c, errorMessage(err))
	}
}

// handleRemoval fires after the disconnect grace period; the player is
// only removed if they have not reconnected and the game is still waiting
// in the lobby.
func (h *Hub) handleRemoval(cfg *Config, playerID string) {
	for c := range h.clients {
		if c.playerID == playerID {
			return
		}
	}
	if h.last.Game.Status != game.StatusLobby {
		return
	}
	err := h.svc.LeaveGame(context.Background(), party.Session{PlayerID: playerID, GameID: h.id})
	if err == nil {
		logf(cfg, "GAMES: Removed disconnected player %s from %s", playerID, h.id)
	}
}

func (h *Hub) handleEvent(ev store.Event) {
	newRoster := make(map[string]bool, len(ev.Players))
	for _, p := range ev.Players {
		newRoster[p.ID] = true
	}

	// Anyone who was on the roster and no longer is was kicked (or left
	// from another tab); tell them and cut the connection.
	for c := range h.clients {
		if h.roster[c.playerID] && !newRoster[c.playerID] {
			h.trySend(c, SimpleMessage{
				Type:    "kicked",
				Message: "You have been removed from the game.",
			})
			delete(h.clients, c)
			close(c.send)
		}
	}

	h.last = ev
	h.roster = newRoster
	h.updateRoundTimer(ev)

	msg := StateMessage{
		Type:    "state",
		Game:    ev.Game,
		Players: ev.Players,
	}
	for c := range h.clients {
		h.trySend(c, msg)
	}
}

// updateRoundTimer arms a timer when a round begins so that expiry
// converges on the same transition as a player's declaration; whichever
// happens first wins, and the second attempt is dropped as invalid state.
func (h *Hub) updateRoundTimer(ev store.Event) {
	if ev.Game.Status == game.StatusPlaying && ev.Game.CurrentRound != h.timedRound {
		h.timedRound = ev.Game.CurrentRound
		if h.roundTimer != nil {
			h.roundTimer.Stop()
		}
		d := time.Duration(ev.Game.Settings.RoundTime) * time.Second
		svc, id := h.svc, h.id
		h.roundTimer = time.AfterFunc(d, func() {
			_ = svc.DeclareRoundEnd(context.Background(), party.Session{GameID: id})
		})
	}
	if ev.Game.Status != game.StatusPlaying && h.roundTimer != nil {
		h.roundTimer.Stop()
		h.roundTimer = nil
	}
}

func (h *Hub) trySend(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	if h.roundTimer != nil {
		h.roundTimer.Stop()
	}
	for c := range h.clients {
		h.trySend(c, SimpleMessage{
			Type:    "closed",
			Message: "The game has ended.",
		})
	}
	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
	h.cleanup()
}

// scheduleRemoval waits for d, then asks the hub loop to drop the player
// if no connection with that playerID has returned.
func (h *Hub) scheduleRemoval(playerID string, d time.Duration) {
	time.Sleep(d)

	select {
	case h.removals <- playerID:
	case <-h.done:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "basta_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a hub per active game and owns the idle-game reaper.
type GameManager struct {
	mu   sync.Mutex
	hubs map[string]*Hub
	svc  *party.Service
	mem  *store.Memory
}

func newGameManager(cfg *Config, svc *party.Service, mem *store.Memory) *GameManager {
	gm := &GameManager{
		hubs: make(map[string]*Hub),
		svc:  svc,
		mem:  mem,
	}
	if cfg.sessionTimeout > 0 {
		go gm.reaperLoop(cfg)
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) (*Hub, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub, nil
	}

	watcher, err := gm.mem.Subscribe(gameID)
	if err != nil {
		return nil, err
	}

	// Subscribe buffers a snapshot of the current state as its first event.
	initial := <-watcher.C

	hub := newHub(gameID, gm.svc, watcher, initial, func() {
		gm.mu.Lock()
		delete(gm.hubs, gameID)
		gm.mu.Unlock()
	})
	gm.hubs[gameID] = hub
	go hub.run(cfg)
	return hub, nil
}

// reaperLoop periodically deletes games idle longer than the configured
// session timeout; their hubs observe the deletion and shut down.
func (gm *GameManager) reaperLoop(cfg *Config) {
	ticker := time.NewTicker(cfg.sessionTimeout / 2)
	for range ticker.C {
		for _, id := range gm.mem.Reap(time.Now().Add(-cfg.sessionTimeout)) {
			logf(cfg, "GAMES: Reaped idle game %s", id)
		}
	}
}

// createGame handles POST /basta: allocates a game with the caller as host.
func createGame(cfg *Config, svc *party.Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		playerID := getOrSetPlayerID(w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		var req struct {
			Name     string        `json:"name"`
			Settings game.Settings `json:"settings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		gameID, err := svc.CreateGame(r.Context(), playerID, strings.TrimSpace(req.Name), req.Settings)
		if err != nil {
			msg := errorMessage(err)
			status := http.StatusBadRequest
			if errors.Is(err, game.ErrIDExhausted) {
				status = http.StatusServiceUnavailable
			}
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(msg)
			return
		}

		logf(cfg, "GAMES: Created game /basta/%s", gameID)

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]string{"gameId": gameID})
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		hub, err := gm.getHub(cfg, gameID)
		if err != nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: playerID,
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			// the game was deleted between getHub and here
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case h.ops <- opRequest{client: c, msg: msg}:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func getIndexHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		data, err := assets.ReadFile("assets/basta/index.html")
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(data)
	}
}

// registerBastaGame sets up routes so that:
//   - $path                  → HTML client (create/join screen)
//   - POST $path             → allocate a new game
//   - $path/:gameid          → HTML client for that game
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerBastaGame(cfg *Config, path string, mux *httprouter.Router, svc *party.Service, mem *store.Memory) {
	gm := newGameManager(cfg, svc, mem)

	mux.GET(cfg.prefix+path, getIndexHandler(cfg))

	mux.POST(cfg.prefix+path, createGame(cfg, svc))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)
}
