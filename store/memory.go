package store

import (
	"context"
	"sync"
	"time"

	"basta/game"
)

// Event is a change notification for one game: a snapshot of the game and
// roster after a committed write, or a tombstone when the game is deleted.
type Event struct {
	Game    game.Game
	Players []game.Player
	Deleted bool
}

// Memory is an in-process Store. A single lock serializes transactions, so
// each Update observes a consistent state and commits atomically.
type Memory struct {
	mu       sync.RWMutex
	games    map[string]*session
	watchers map[string]map[int]chan Event
	nextID   int
}

type session struct {
	game    game.Game
	players []game.Player // join order
	rounds  map[int]*roundRecords
}

type roundRecords struct {
	scored bool
	sheets map[string]game.AnswerSheet
	votes  map[string]map[string]game.Ballot // target -> voter -> ballot
}

func NewMemory() *Memory {
	return &Memory{
		games:    make(map[string]*session),
		watchers: make(map[string]map[int]chan Event),
	}
}

func (m *Memory) Insert(_ context.Context, g game.Game, host game.Player) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.games[g.ID]; exists {
		return false, nil
	}

	g.LastActivity = time.Now()
	m.games[g.ID] = &session{
		game:    g,
		players: []game.Player{host},
		rounds:  make(map[int]*roundRecords),
	}
	m.notifyLocked(g.ID)
	return true, nil
}

func (m *Memory) View(_ context.Context, id string, fn func(Tx) error) error {
	m.mu.RLock()
	s, ok := m.games[id]
	var tx *memTx
	if ok {
		tx = newMemTx(s)
	}
	m.mu.RUnlock()

	if !ok {
		return game.ErrGameNotFound
	}
	return fn(tx)
}

func (m *Memory) Update(_ context.Context, id string, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.games[id]
	if !ok {
		return game.ErrGameNotFound
	}

	tx := newMemTx(s)
	if err := fn(tx); err != nil {
		return err
	}

	m.games[id] = tx.commit()
	m.notifyLocked(id)
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.games[id]; !ok {
		return game.ErrGameNotFound
	}
	m.dropLocked(id)
	return nil
}

// dropLocked removes a game and closes its watchers after sending each a
// tombstone.
func (m *Memory) dropLocked(id string) {
	delete(m.games, id)
	for _, ch := range m.watchers[id] {
		select {
		case ch <- Event{Deleted: true}:
		default:
		}
		close(ch)
	}
	delete(m.watchers, id)
}

// Reap deletes every game whose last committed write predates cutoff and
// returns the ids removed.
func (m *Memory) Reap(cutoff time.Time) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var reaped []string
	for id, s := range m.games {
		if s.game.LastActivity.Before(cutoff) {
			reaped = append(reaped, id)
		}
	}
	for _, id := range reaped {
		m.dropLocked(id)
	}
	return reaped
}

// Watcher delivers change notifications for one game on C. The channel is
// closed when the watcher is closed or the game is deleted. Events are
// dropped, not blocked on, when a consumer falls behind.
type Watcher struct {
	C <-chan Event

	m      *Memory
	gameID string
	id     int
}

// Subscribe starts watching a game. The first event on C is a snapshot of
// the current state.
func (m *Memory) Subscribe(gameID string) (*Watcher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.games[gameID]
	if !ok {
		return nil, game.ErrGameNotFound
	}

	ch := make(chan Event, 16)
	ch <- snapshotLocked(s)

	if m.watchers[gameID] == nil {
		m.watchers[gameID] = make(map[int]chan Event)
	}
	m.nextID++
	m.watchers[gameID][m.nextID] = ch

	return &Watcher{C: ch, m: m, gameID: gameID, id: m.nextID}, nil
}

func (w *Watcher) Close() {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()

	if ch, ok := w.m.watchers[w.gameID][w.id]; ok {
		delete(w.m.watchers[w.gameID], w.id)
		close(ch)
	}
}

func (m *Memory) notifyLocked(id string) {
	s, ok := m.games[id]
	if !ok {
		return
	}
	ev := snapshotLocked(s)
	for _, ch := range m.watchers[id] {
		select {
		case ch <- ev:
		default:
		}
	}
}

func snapshotLocked(s *session) Event {
	players := make([]game.Player, len(s.players))
	copy(players, s.players)
	return Event{Game: cloneGame(s.game), Players: players}
}

func cloneGame(g game.Game) game.Game {
	g.Settings.Categories = append([]string(nil), g.Settings.Categories...)
	return g
}

func cloneSheet(sheet game.AnswerSheet) game.AnswerSheet {
	answers := make(map[string]string, len(sheet.Answers))
	for category, answer := range sheet.Answers {
		answers[category] = answer
	}
	return game.AnswerSheet{PlayerID: sheet.PlayerID, Answers: answers}
}

func cloneRounds(rounds map[int]*roundRecords) map[int]*roundRecords {
	out := make(map[int]*roundRecords, len(rounds))
	for round, rec := range rounds {
		cp := &roundRecords{
			scored: rec.scored,
			sheets: make(map[string]game.AnswerSheet, len(rec.sheets)),
			votes:  make(map[string]map[string]game.Ballot, len(rec.votes)),
		}
		for id, sheet := range rec.sheets {
			cp.sheets[id] = cloneSheet(sheet)
		}
		for target, voters := range rec.votes {
			cp.votes[target] = make(map[string]game.Ballot, len(voters))
			for voter, ballot := range voters {
				b := make(game.Ballot, len(ballot))
				for category, vote := range ballot {
					b[category] = vote
				}
				cp.votes[target][voter] = b
			}
		}
		out[round] = cp
	}
	return out
}

// memTx works on a deep copy of the session so an aborted transaction
// leaves nothing behind.
type memTx struct {
	game    game.Game
	players []*game.Player
	scores  map[string]int
	rounds  map[int]*roundRecords
}

func newMemTx(s *session) *memTx {
	players := make([]*game.Player, len(s.players))
	for i := range s.players {
		p := s.players[i]
		players[i] = &p
	}
	return &memTx{
		game:    cloneGame(s.game),
		players: players,
		scores:  make(map[string]int),
		rounds:  cloneRounds(s.rounds),
	}
}

func (tx *memTx) commit() *session {
	players := make([]game.Player, len(tx.players))
	for i, p := range tx.players {
		players[i] = *p
		players[i].Score += tx.scores[p.ID]
	}
	tx.game.LastActivity = time.Now()
	return &session{
		game:    tx.game,
		players: players,
		rounds:  tx.rounds,
	}
}

func (tx *memTx) Game() *game.Game { return &tx.game }

func (tx *memTx) Players() []*game.Player { return tx.players }

func (tx *memTx) Player(id string) *game.Player {
	for _, p := range tx.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (tx *memTx) PutPlayer(p game.Player) {
	for _, existing := range tx.players {
		if existing.ID == p.ID {
			*existing = p
			return
		}
	}
	tx.players = append(tx.players, &p)
}

func (tx *memTx) RemovePlayer(id string) {
	dst := tx.players[:0]
	for _, p := range tx.players {
		if p.ID != id {
			dst = append(dst, p)
		}
	}
	tx.players = dst
	delete(tx.scores, id)
}

func (tx *memTx) AddScore(id string, delta int) {
	tx.scores[id] += delta
}

func (tx *memTx) round(round int) *roundRecords {
	rec, ok := tx.rounds[round]
	if !ok {
		rec = &roundRecords{
			sheets: make(map[string]game.AnswerSheet),
			votes:  make(map[string]map[string]game.Ballot),
		}
		tx.rounds[round] = rec
	}
	return rec
}

func (tx *memTx) PutAnswers(round int, sheet game.AnswerSheet) {
	tx.round(round).sheets[sheet.PlayerID] = cloneSheet(sheet)
}

func (tx *memTx) MergeVote(round int, targetID, voterID, category string, v game.Vote) {
	rec := tx.round(round)
	if rec.votes[targetID] == nil {
		rec.votes[targetID] = make(map[string]game.Ballot)
	}
	if rec.votes[targetID][voterID] == nil {
		rec.votes[targetID][voterID] = make(game.Ballot)
	}
	rec.votes[targetID][voterID][category] = v
}

func (tx *memTx) AnswerSheets(round int) []game.AnswerSheet {
	rec, ok := tx.rounds[round]
	if !ok {
		return nil
	}
	sheets := make([]game.AnswerSheet, 0, len(rec.sheets))
	for _, sheet := range rec.sheets {
		sheets = append(sheets, cloneSheet(sheet))
	}
	return sheets
}

func (tx *memTx) Ballots(round int) map[string]map[string]game.Ballot {
	rec, ok := tx.rounds[round]
	if !ok {
		return nil
	}
	out := make(map[string]map[string]game.Ballot, len(rec.votes))
	for target, voters := range rec.votes {
		out[target] = make(map[string]game.Ballot, len(voters))
		for voter, ballot := range voters {
			b := make(game.Ballot, len(ballot))
			for category, vote := range ballot {
				b[category] = vote
			}
			out[target][voter] = b
		}
	}
	return out
}

func (tx *memTx) Scored(round int) bool {
	rec, ok := tx.rounds[round]
	return ok && rec.scored
}

func (tx *memTx) MarkScored(round int) {
	tx.round(round).scored = true
}
