package party

import (
	"context"

	"basta/game"
	"basta/store"
)

// Round assembles the stored answers and votes for one round of a game
// into the normalized shape the scoring engine and the voting view
// consume. Players who received no votes appear with an empty vote map; a
// round nobody answered yields an empty result.
func (s *Service) Round(ctx context.Context, gameID string, round int) (game.RoundData, error) {
	var rd game.RoundData
	err := s.store.View(ctx, gameID, func(tx store.Tx) error {
		rd = game.AssembleRound(tx.AnswerSheets(round), tx.Ballots(round))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rd, nil
}
