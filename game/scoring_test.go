package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func roster(ids ...string) []Player {
	players := make([]Player, len(ids))
	for i, id := range ids {
		players[i] = Player{ID: id, Name: "player " + id}
	}
	players[0].IsHost = true
	return players
}

// answered builds a PlayerRoundData for one player with the given answers
// and per-voter single-category ballots applied to every answered category.
func answered(playerID string, answers map[string]string, votes map[string]Ballot) PlayerRoundData {
	if votes == nil {
		votes = map[string]Ballot{}
	}
	return PlayerRoundData{PlayerID: playerID, Answers: answers, Votes: votes}
}

func TestScoreRoundTriplicateAnswer(t *testing.T) {
	t.Parallel()

	// Three players all answer "Sol"; the other two rate each one good.
	// Approval 2/2 makes all three valid, all duplicated: base 50 split
	// across two voters is 25, both voters paid in, so 50 each.
	players := roster("p1", "p2", "p3")
	rd := RoundData{}
	for _, p := range []string{"p1", "p2", "p3"} {
		votes := map[string]Ballot{}
		for _, v := range []string{"p1", "p2", "p3"} {
			if v != p {
				votes[v] = Ballot{"Cosa": VoteGood}
			}
		}
		rd[p] = answered(p, map[string]string{"Cosa": "Sol"}, votes)
	}

	deltas := ScoreRound(players, rd, SplitAllEligible)
	want := map[string]int{"p1": 50, "p2": 50, "p3": 50}
	if diff := cmp.Diff(want, deltas); diff != "" {
		t.Errorf("deltas mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreRoundUniqueAnswer(t *testing.T) {
	t.Parallel()

	players := roster("p1", "p2", "p3")
	rd := RoundData{
		"p1": answered("p1", map[string]string{"Animal": "Gato"}, map[string]Ballot{
			"p2": {"Animal": VoteGood},
			"p3": {"Animal": VoteGood},
		}),
	}

	deltas := ScoreRound(players, rd, SplitAllEligible)
	assert.Equal(t, 100, deltas["p1"], "unique valid answer pays the full base")
	assert.Equal(t, 0, deltas["p2"])
	assert.Equal(t, 0, deltas["p3"])
}

func TestScoreRoundGreatBonus(t *testing.T) {
	t.Parallel()

	players := roster("p1", "p2", "p3")
	rd := RoundData{
		"p1": answered("p1", map[string]string{"Animal": "Quetzal"}, map[string]Ballot{
			"p2": {"Animal": VoteGreat},
			"p3": {"Animal": VoteGood},
		}),
	}

	// base 100 over 2 voters: p2 pays 50+50 bonus, p3 pays 50.
	deltas := ScoreRound(players, rd, SplitAllEligible)
	assert.Equal(t, 150, deltas["p1"])
}

func TestScoreRoundMinorityRejected(t *testing.T) {
	t.Parallel()

	players := roster("p1", "p2", "p3")
	rd := RoundData{
		"p1": answered("p1", map[string]string{"Animal": "Xolo"}, map[string]Ballot{
			"p2": {"Animal": VoteGood},
			"p3": {"Animal": VoteBad},
		}),
	}

	// 1/2 approval is not a strict majority.
	deltas := ScoreRound(players, rd, SplitAllEligible)
	assert.Equal(t, 0, deltas["p1"])
}

func TestScoreRoundNormalizationGroupsDuplicates(t *testing.T) {
	t.Parallel()

	players := roster("p1", "p2", "p3")
	rd := RoundData{
		"p1": answered("p1", map[string]string{"Animal": "  GATO "}, map[string]Ballot{
			"p2": {"Animal": VoteGood},
			"p3": {"Animal": VoteGood},
		}),
		"p2": answered("p2", map[string]string{"Animal": "gato"}, map[string]Ballot{
			"p1": {"Animal": VoteGood},
			"p3": {"Animal": VoteGood},
		}),
	}

	deltas := ScoreRound(players, rd, SplitAllEligible)
	assert.Equal(t, 50, deltas["p1"], "case and surrounding space fold together")
	assert.Equal(t, 50, deltas["p2"])
}

func TestScoreRoundNoEligibleVoters(t *testing.T) {
	t.Parallel()

	players := roster("p1")
	rd := RoundData{
		"p1": answered("p1", map[string]string{"Animal": "Gato"}, nil),
	}

	deltas := ScoreRound(players, rd, SplitAllEligible)
	assert.Equal(t, 0, deltas["p1"], "an answer nobody can validate earns nothing")
}

func TestScoreRoundEmptyAnswersExcluded(t *testing.T) {
	t.Parallel()

	players := roster("p1", "p2", "p3")
	rd := RoundData{
		"p1": answered("p1", map[string]string{"Animal": "   "}, map[string]Ballot{
			"p2": {"Animal": VoteGreat},
			"p3": {"Animal": VoteGreat},
		}),
	}

	deltas := ScoreRound(players, rd, SplitAllEligible)
	assert.Equal(t, 0, deltas["p1"], "blank answers are not candidates, votes or not")
}

func TestScoreRoundAbsentPlayerGetsZero(t *testing.T) {
	t.Parallel()

	players := roster("p1", "p2", "p3")
	deltas := ScoreRound(players, RoundData{}, SplitAllEligible)

	want := map[string]int{"p1": 0, "p2": 0, "p3": 0}
	if diff := cmp.Diff(want, deltas); diff != "" {
		t.Errorf("deltas mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreRoundIgnoresDepartedVoters(t *testing.T) {
	t.Parallel()

	// p3 voted and then left before scoring; their ballot must not count,
	// leaving p1 with 1/1 approval among the remaining eligible voter.
	players := roster("p1", "p2")
	rd := RoundData{
		"p1": answered("p1", map[string]string{"Animal": "Gato"}, map[string]Ballot{
			"p2": {"Animal": VoteGood},
			"p3": {"Animal": VoteBad},
		}),
	}

	deltas := ScoreRound(players, rd, SplitAllEligible)
	assert.Equal(t, 100, deltas["p1"])
}

func TestScoreRoundDeterministic(t *testing.T) {
	t.Parallel()

	players := roster("p1", "p2", "p3", "p4")
	rd := RoundData{
		"p1": answered("p1", map[string]string{"Animal": "Gato", "Cosa": "Guitarra"}, map[string]Ballot{
			"p2": {"Animal": VoteGood, "Cosa": VoteGreat},
			"p3": {"Animal": VoteGreat},
			"p4": {"Animal": VoteGood, "Cosa": VoteGood},
		}),
		"p2": answered("p2", map[string]string{"Animal": "gato"}, map[string]Ballot{
			"p1": {"Animal": VoteGood},
			"p3": {"Animal": VoteGood},
			"p4": {"Animal": VoteBad},
		}),
		"p3": answered("p3", map[string]string{"Cosa": "Globo"}, map[string]Ballot{
			"p1": {"Cosa": VoteBad},
			"p2": {"Cosa": VoteBad},
		}),
	}

	first := ScoreRound(players, rd, SplitAllEligible)
	second := ScoreRound(players, rd, SplitAllEligible)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("scoring is not deterministic (-first +second):\n%s", diff)
	}
	for id, delta := range first {
		assert.GreaterOrEqual(t, delta, 0, "negative delta for %s", id)
	}
}

func TestScoreRoundSplitApprovingOnly(t *testing.T) {
	t.Parallel()

	players := roster("p1", "p2", "p3", "p4")
	rd := RoundData{
		"p1": answered("p1", map[string]string{"Animal": "Gato"}, map[string]Ballot{
			"p2": {"Animal": VoteGood},
			"p3": {"Animal": VoteGood},
			"p4": {"Animal": VoteBad},
		}),
	}

	// 2/3 approval, valid either way. All-eligible splits 100 across
	// three voters and pays two shares; approving-only splits across the
	// two approvers and pays the whole base.
	assert.Equal(t, 67, ScoreRound(players, rd, SplitAllEligible)["p1"])
	assert.Equal(t, 100, ScoreRound(players, rd, SplitApprovingOnly)["p1"])
}
