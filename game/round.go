package game

import "strings"

// Vote is a single peer judgement of one answer in one category.
type Vote string

const (
	VoteBad   Vote = "bad"
	VoteGood  Vote = "good"
	VoteGreat Vote = "great"
)

// Approving reports whether the vote counts toward an answer's validity.
func (v Vote) Approving() bool {
	return v == VoteGood || v == VoteGreat
}

// Valid reports whether v is one of the three recognized vote values.
func (v Vote) Valid() bool {
	return v == VoteBad || v == VoteGood || v == VoteGreat
}

// AnswerSheet is one player's raw submission for a round: category name to
// free-text answer. Unanswered categories may be missing or empty.
type AnswerSheet struct {
	PlayerID string            `json:"playerId"`
	Answers  map[string]string `json:"answers"`
}

// Ballot maps category name to the vote one voter cast on one target player.
type Ballot map[string]Vote

// PlayerRoundData is one player's answers for a round together with every
// vote cast on them, keyed by voter id.
type PlayerRoundData struct {
	PlayerID string            `json:"playerId"`
	Answers  map[string]string `json:"answers"`
	Votes    map[string]Ballot `json:"votes"`
}

// RoundData is the assembled picture of one round, keyed by player id.
type RoundData map[string]PlayerRoundData

// AssembleRound merges raw answer sheets with the ballots cast on each
// player into the normalized RoundData shape consumed by scoring. ballots
// is keyed target player id, then voter id. Players who received no votes
// end up with an empty vote map; players who never submitted do not appear.
// With no sheets at all the result is empty and callers skip scoring.
func AssembleRound(sheets []AnswerSheet, ballots map[string]map[string]Ballot) RoundData {
	rd := make(RoundData, len(sheets))
	for _, sheet := range sheets {
		prd := PlayerRoundData{
			PlayerID: sheet.PlayerID,
			Answers:  make(map[string]string, len(sheet.Answers)),
			Votes:    make(map[string]Ballot),
		}
		for category, answer := range sheet.Answers {
			prd.Answers[category] = answer
		}
		for voterID, ballot := range ballots[sheet.PlayerID] {
			if voterID == sheet.PlayerID {
				// Self-votes are rejected at submission; never count one
				// that slipped into storage.
				continue
			}
			b := make(Ballot, len(ballot))
			for category, vote := range ballot {
				b[category] = vote
			}
			prd.Votes[voterID] = b
		}
		rd[sheet.PlayerID] = prd
	}
	return rd
}

// NormalizeAnswer folds an answer for comparison and validity checks.
// An answer that normalizes to "" counts as not submitted.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
