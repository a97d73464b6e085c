// Package party implements the game lifecycle: every legal transition from
// lobby through playing and voting to finished, with host privileges
// enforced by identity check. Each operation runs as a single atomic store
// transaction; a failed guard aborts with no partial writes.
package party

import (
	"context"

	"basta/game"
	"basta/store"
)

// maxCreateAttempts bounds the id collision retry loop in CreateGame.
const maxCreateAttempts = 10

// Session identifies the acting player and the game they address. It is
// resolved once per client connection and passed into every operation.
type Session struct {
	PlayerID string
	GameID   string
}

// Service exposes the round lifecycle operations over a Store.
type Service struct {
	store store.Store

	// Split selects the scoring split denominator (see game.SplitPolicy).
	Split game.SplitPolicy

	// newCode is swappable in tests to force id collisions.
	newCode func() string
}

func NewService(s store.Store) *Service {
	return &Service{
		store:   s,
		newCode: game.NewCode,
	}
}

// State returns a read snapshot of a game and its roster.
func (s *Service) State(ctx context.Context, gameID string) (game.Game, []game.Player, error) {
	var g game.Game
	var players []game.Player
	err := s.store.View(ctx, gameID, func(tx store.Tx) error {
		g = *tx.Game()
		for _, p := range tx.Players() {
			players = append(players, *p)
		}
		return nil
	})
	if err != nil {
		return game.Game{}, nil, err
	}
	return g, players, nil
}
