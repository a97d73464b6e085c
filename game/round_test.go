package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestAssembleRound(t *testing.T) {
	t.Parallel()

	sheets := []AnswerSheet{
		{PlayerID: "p1", Answers: map[string]string{"Animal": "Gato"}},
		{PlayerID: "p2", Answers: map[string]string{"Animal": "Perro", "City": ""}},
	}
	ballots := map[string]map[string]Ballot{
		"p1": {
			"p2": {"Animal": VoteGood},
			"p1": {"Animal": VoteGreat}, // stray self-vote, must be dropped
		},
		"p3": {
			"p1": {"Animal": VoteGood}, // votes on a player who never answered
		},
	}

	rd := AssembleRound(sheets, ballots)

	want := RoundData{
		"p1": {
			PlayerID: "p1",
			Answers:  map[string]string{"Animal": "Gato"},
			Votes:    map[string]Ballot{"p2": {"Animal": VoteGood}},
		},
		"p2": {
			PlayerID: "p2",
			Answers:  map[string]string{"Animal": "Perro", "City": ""},
			Votes:    map[string]Ballot{},
		},
	}
	if diff := cmp.Diff(want, rd); diff != "" {
		t.Errorf("round data mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleRoundEmpty(t *testing.T) {
	t.Parallel()

	rd := AssembleRound(nil, nil)
	assert.Empty(t, rd)
}

func TestAssembleRoundCopies(t *testing.T) {
	t.Parallel()

	sheets := []AnswerSheet{{PlayerID: "p1", Answers: map[string]string{"Animal": "Gato"}}}
	ballots := map[string]map[string]Ballot{"p1": {"p2": {"Animal": VoteGood}}}

	rd := AssembleRound(sheets, ballots)
	sheets[0].Answers["Animal"] = "changed"
	ballots["p1"]["p2"]["Animal"] = VoteBad

	assert.Equal(t, "Gato", rd["p1"].Answers["Animal"])
	assert.Equal(t, VoteGood, rd["p1"].Votes["p2"]["Animal"])
}

func TestNormalizeAnswer(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "gato", NormalizeAnswer("  GaTo "))
	assert.Equal(t, "", NormalizeAnswer("   "))
	assert.Equal(t, "", NormalizeAnswer(""))
}

func TestVoteApproving(t *testing.T) {
	t.Parallel()

	assert.True(t, VoteGood.Approving())
	assert.True(t, VoteGreat.Approving())
	assert.False(t, VoteBad.Approving())
}

func TestVoteValid(t *testing.T) {
	t.Parallel()

	assert.True(t, VoteBad.Valid())
	assert.True(t, VoteGood.Valid())
	assert.True(t, VoteGreat.Valid())
	assert.False(t, Vote("meh").Valid())
	assert.False(t, Vote("").Valid())
}
