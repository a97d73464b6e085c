package party

import (
	"context"

	"basta/game"
	"basta/store"
)

// CreateGame allocates a fresh lobby with the creator as host and returns
// the new game id. Id collisions with active games are retried a bounded
// number of times before failing with game.ErrIDExhausted.
func (s *Service) CreateGame(ctx context.Context, playerID, hostName string, settings game.Settings) (string, error) {
	if err := game.ValidateName(hostName); err != nil {
		return "", err
	}
	settings.Normalize()
	if err := settings.Validate(); err != nil {
		return "", err
	}

	host := game.Player{
		ID:     playerID,
		Name:   hostName,
		IsHost: true,
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		id := s.newCode()
		ok, err := s.store.Insert(ctx, game.Game{
			ID:       id,
			Status:   game.StatusLobby,
			HostID:   playerID,
			Settings: settings,
		}, host)
		if err != nil {
			return "", err
		}
		if ok {
			return id, nil
		}
	}
	return "", game.ErrIDExhausted
}

// UpdateSettings replaces the game settings. Host-only, lobby-only.
func (s *Service) UpdateSettings(ctx context.Context, sess Session, settings game.Settings) error {
	settings.Normalize()
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.store.Update(ctx, sess.GameID, func(tx store.Tx) error {
		g := tx.Game()
		if g.HostID != sess.PlayerID {
			return game.ErrNotAuthorized
		}
		if g.Status != game.StatusLobby {
			return game.ErrInvalidState
		}
		g.Settings = settings
		return nil
	})
}

// StartGame begins round one. Host-only; requires a lobby where at least
// one non-host player exists and every non-host player is ready.
func (s *Service) StartGame(ctx context.Context, sess Session) error {
	return s.store.Update(ctx, sess.GameID, func(tx store.Tx) error {
		g := tx.Game()
		if g.HostID != sess.PlayerID {
			return game.ErrNotAuthorized
		}
		if g.Status != game.StatusLobby {
			return game.ErrInvalidState
		}
		roster := make([]game.Player, 0, len(tx.Players()))
		for _, p := range tx.Players() {
			roster = append(roster, *p)
		}
		if !game.Startable(roster) {
			return game.ErrInvalidState
		}
		g.Status = game.StatusPlaying
		g.CurrentRound = 1
		g.CurrentLetter = game.DrawLetter()
		return nil
	})
}

// CommitRoundScores assembles one round's answers and votes, scores them,
// and applies the deltas as relative increments. Host-only, voting-only,
// and at most once per round: a second commit observes the scored flag and
// fails with game.ErrInvalidState. A round nobody answered is marked scored
// and skipped without error.
func (s *Service) CommitRoundScores(ctx context.Context, sess Session, round int) error {
	return s.store.Update(ctx, sess.GameID, func(tx store.Tx) error {
		g := tx.Game()
		if g.HostID != sess.PlayerID {
			return game.ErrNotAuthorized
		}
		if g.Status != game.StatusVoting || round != g.CurrentRound {
			return game.ErrInvalidState
		}
		if tx.Scored(round) {
			return game.ErrInvalidState
		}

		rd := game.AssembleRound(tx.AnswerSheets(round), tx.Ballots(round))
		tx.MarkScored(round)
		if len(rd) == 0 {
			return nil
		}

		roster := make([]game.Player, 0, len(tx.Players()))
		for _, p := range tx.Players() {
			roster = append(roster, *p)
		}
		for playerID, delta := range game.ScoreRound(roster, rd, s.Split) {
			if delta > 0 {
				tx.AddScore(playerID, delta)
			}
		}
		return nil
	})
}

// AdvanceRound moves a scored round forward: to the next playing round with
// a fresh letter, or to finished once the configured round count is
// reached. Host-only.
func (s *Service) AdvanceRound(ctx context.Context, sess Session, round int) error {
	return s.store.Update(ctx, sess.GameID, func(tx store.Tx) error {
		g := tx.Game()
		if g.HostID != sess.PlayerID {
			return game.ErrNotAuthorized
		}
		if g.Status != game.StatusVoting || round != g.CurrentRound {
			return game.ErrInvalidState
		}
		if round >= g.Settings.Rounds {
			g.Status = game.StatusFinished
			g.CurrentLetter = ""
			return nil
		}
		g.Status = game.StatusPlaying
		g.CurrentRound = round + 1
		g.CurrentLetter = game.DrawLetter()
		g.FinishedBy = ""
		return nil
	})
}

// KickPlayer removes a non-host player from the roster. Host-only, legal
// any time before the game finishes. The host cannot be kicked; removing
// the host happens only through LeaveGame, which tears the game down.
func (s *Service) KickPlayer(ctx context.Context, sess Session, targetID string) error {
	return s.store.Update(ctx, sess.GameID, func(tx store.Tx) error {
		g := tx.Game()
		if g.HostID != sess.PlayerID {
			return game.ErrNotAuthorized
		}
		if targetID == g.HostID {
			return game.ErrNotAuthorized
		}
		if g.Status == game.StatusFinished {
			return game.ErrInvalidState
		}
		tx.RemovePlayer(targetID)
		return nil
	})
}
