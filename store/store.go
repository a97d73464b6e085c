// Package store is the persistence collaborator for game sessions. It
// exposes the primitives the party layer needs (atomic per-game
// transactions, commutative score increments, field-scoped vote merges,
// change subscriptions, and batched teardown) behind the Store interface,
// plus Memory, an in-process implementation of it.
package store

import (
	"context"

	"basta/game"
)

// Tx is a consistent read-write view of one game and its subrecords.
// Mutations take effect only if the transaction function returns nil;
// any error aborts with no partial writes.
type Tx interface {
	// Game returns the game document. Mutations through the pointer are
	// persisted on commit.
	Game() *game.Game

	// Players returns the roster in join order. Mutations through the
	// pointers are persisted on commit.
	Players() []*game.Player

	// Player returns the roster entry with the given id, or nil.
	Player(id string) *game.Player

	// PutPlayer inserts or replaces a roster entry.
	PutPlayer(p game.Player)

	// RemovePlayer deletes a roster entry. Unknown ids are a no-op.
	RemovePlayer(id string)

	// AddScore records a relative score increment for a player, applied
	// at commit. Increments compose; they never overwrite.
	AddScore(id string, delta int)

	// PutAnswers upserts one player's answer sheet for a round,
	// replacing any earlier submission by the same player.
	PutAnswers(round int, sheet game.AnswerSheet)

	// MergeVote merges a single-category vote into the ballot the voter
	// holds against the target, leaving the voter's other categories
	// untouched.
	MergeVote(round int, targetID, voterID, category string, v game.Vote)

	// AnswerSheets returns all submitted sheets for a round.
	AnswerSheets(round int) []game.AnswerSheet

	// Ballots returns all votes for a round, keyed by target player id
	// and then voter id.
	Ballots(round int) map[string]map[string]game.Ballot

	// Scored reports whether a round's scores have been committed.
	Scored(round int) bool

	// MarkScored flags a round as committed.
	MarkScored(round int)
}

// Store is the persistence surface consumed by the party layer.
type Store interface {
	// Insert atomically creates a game with its host on the roster.
	// It returns false without writing when the id is already taken.
	Insert(ctx context.Context, g game.Game, host game.Player) (bool, error)

	// View runs fn over a read-only snapshot of the game. Mutations made
	// through the Tx are discarded. Returns game.ErrGameNotFound for
	// unknown ids.
	View(ctx context.Context, id string, fn func(Tx) error) error

	// Update runs fn atomically against the game. If fn returns an
	// error nothing is written. Returns game.ErrGameNotFound for
	// unknown ids.
	Update(ctx context.Context, id string, fn func(Tx) error) error

	// Delete tears down a game and all of its rounds, answers, votes
	// and players in one batch.
	Delete(ctx context.Context, id string) error
}
