package party

import (
	"context"

	"basta/game"
	"basta/store"
)

// JoinGame adds the session's player to a lobby. Joining a game that has
// left the lobby fails with game.ErrGameAlreadyStarted; rejoining while
// still in the lobby just rewrites the roster entry.
func (s *Service) JoinGame(ctx context.Context, sess Session, name string) error {
	if err := game.ValidateName(name); err != nil {
		return err
	}
	return s.store.Update(ctx, sess.GameID, func(tx store.Tx) error {
		if tx.Game().Status != game.StatusLobby {
			return game.ErrGameAlreadyStarted
		}
		tx.PutPlayer(game.Player{
			ID:   sess.PlayerID,
			Name: name,
		})
		return nil
	})
}

// SetReady toggles the session player's readiness. Lobby-only; a host
// calling it is a no-op, since readiness only gates non-host players.
func (s *Service) SetReady(ctx context.Context, sess Session, ready bool) error {
	return s.store.Update(ctx, sess.GameID, func(tx store.Tx) error {
		if tx.Game().Status != game.StatusLobby {
			return game.ErrInvalidState
		}
		p := tx.Player(sess.PlayerID)
		if p == nil {
			return game.ErrNotAuthorized
		}
		if p.IsHost {
			return nil
		}
		p.IsReady = ready
		return nil
	})
}

// DeclareRoundEnd moves a playing round into voting, recording who ended
// it. The first caller wins; a round-end already declared (by a player or
// by timer expiry, whichever came first) makes later attempts fail with
// game.ErrInvalidState, which callers treat as "already done".
func (s *Service) DeclareRoundEnd(ctx context.Context, sess Session) error {
	return s.store.Update(ctx, sess.GameID, func(tx store.Tx) error {
		g := tx.Game()
		if g.Status != game.StatusPlaying {
			return game.ErrInvalidState
		}
		g.Status = game.StatusVoting
		g.FinishedBy = sess.PlayerID
		return nil
	})
}

// SubmitAnswers upserts the session player's answer sheet for the current
// round. Legal while the round is open: during play, and still during
// voting so submissions racing the round-end declaration are not lost.
// Resubmission overwrites the earlier sheet.
func (s *Service) SubmitAnswers(ctx context.Context, sess Session, round int, answers map[string]string) error {
	return s.store.Update(ctx, sess.GameID, func(tx store.Tx) error {
		g := tx.Game()
		if g.Status != game.StatusPlaying && g.Status != game.StatusVoting {
			return game.ErrInvalidState
		}
		if round != g.CurrentRound {
			return game.ErrInvalidState
		}
		if tx.Player(sess.PlayerID) == nil {
			return game.ErrNotAuthorized
		}
		tx.PutAnswers(round, game.AnswerSheet{
			PlayerID: sess.PlayerID,
			Answers:  answers,
		})
		return nil
	})
}

// SubmitVote merges one single-category vote on the target player's answer
// into the voter's ballot. Voting-only; voting on your own answer fails
// with game.ErrSelfVoteForbidden and is never recorded. Only the three
// recognized vote values are accepted.
func (s *Service) SubmitVote(ctx context.Context, sess Session, round int, targetID, category string, v game.Vote) error {
	if !v.Valid() {
		return &game.ValidationError{Field: "vote", Reason: "must be good, bad or great"}
	}
	if sess.PlayerID == targetID {
		return game.ErrSelfVoteForbidden
	}
	return s.store.Update(ctx, sess.GameID, func(tx store.Tx) error {
		g := tx.Game()
		if g.Status != game.StatusVoting || round != g.CurrentRound {
			return game.ErrInvalidState
		}
		if tx.Player(sess.PlayerID) == nil {
			return game.ErrNotAuthorized
		}
		tx.MergeVote(round, targetID, sess.PlayerID, category, v)
		return nil
	})
}

// LeaveGame removes the session player's own roster entry. When the host
// leaves, the whole game is torn down: rounds, answers, votes, players and
// finally the game itself.
func (s *Service) LeaveGame(ctx context.Context, sess Session) error {
	var teardown bool
	err := s.store.Update(ctx, sess.GameID, func(tx store.Tx) error {
		if tx.Game().HostID == sess.PlayerID {
			teardown = true
			return nil
		}
		tx.RemovePlayer(sess.PlayerID)
		return nil
	})
	if err != nil {
		return err
	}
	if teardown {
		return s.store.Delete(ctx, sess.GameID)
	}
	return nil
}
