package game

import "math"

// SplitPolicy selects the denominator used when a validated answer's base
// score is split across voters. The two historical aggregation behaviors
// disagreed on this, so it stays configurable.
type SplitPolicy int

const (
	// SplitAllEligible divides the base score across every eligible voter;
	// non-approving voters simply pay in nothing. This is the default.
	SplitAllEligible SplitPolicy = iota

	// SplitApprovingOnly divides the base score across approving voters only.
	SplitApprovingOnly
)

const (
	uniqueAnswerBase    = 100
	duplicateAnswerBase = 50
	greatVoteBonus      = 50
)

type candidate struct {
	playerID   string
	category   string
	normalized string
	eligible   int             // voters other than the author, on the roster
	votes      map[string]Vote // recorded votes from eligible voters
	approvals  int             // good or great votes among those
	valid      bool
}

// ScoreRound turns one round's assembled data into per-player score deltas.
// It is a pure function: identical inputs always yield identical deltas,
// and deltas are never negative. Players with no answers get a zero delta.
//
// Per category, an answer is valid when strictly more than half of the
// eligible voters approved it. Valid answers unique among the category's
// valid answers are worth 100 base points, duplicated ones 50. The base is
// split per voter according to policy; each good vote pays its share, each
// great vote pays its share plus a flat bonus, and bad votes pay nothing.
func ScoreRound(players []Player, rd RoundData, policy SplitPolicy) map[string]int {
	deltas := make(map[string]int, len(players))
	roster := make(map[string]bool, len(players))
	for _, p := range players {
		deltas[p.ID] = 0
		roster[p.ID] = true
	}

	// First pass: decide validity and count duplicates among valid answers.
	var candidates []candidate
	occurrences := make(map[string]map[string]int) // category -> normalized -> count
	for _, p := range players {
		prd, ok := rd[p.ID]
		if !ok {
			continue
		}
		for category, raw := range prd.Answers {
			normalized := NormalizeAnswer(raw)
			if normalized == "" {
				continue
			}
			c := candidate{
				playerID:   p.ID,
				category:   category,
				normalized: normalized,
				eligible:   len(players) - 1,
				votes:      make(map[string]Vote),
			}
			for voterID, ballot := range prd.Votes {
				if voterID == p.ID || !roster[voterID] {
					continue
				}
				vote, cast := ballot[category]
				if !cast {
					continue
				}
				c.votes[voterID] = vote
				if vote.Approving() {
					c.approvals++
				}
			}
			// With no eligible voters the answer cannot be validated.
			c.valid = c.eligible > 0 &&
				float64(c.approvals)/float64(c.eligible) > 0.5
			if c.valid {
				if occurrences[category] == nil {
					occurrences[category] = make(map[string]int)
				}
				occurrences[category][normalized]++
			}
			candidates = append(candidates, c)
		}
	}

	// Second pass: distribute base scores across voters.
	totals := make(map[string]float64, len(players))
	for _, c := range candidates {
		if !c.valid {
			continue
		}
		base := uniqueAnswerBase
		if occurrences[c.category][c.normalized] > 1 {
			base = duplicateAnswerBase
		}
		denominator := c.eligible
		if policy == SplitApprovingOnly {
			denominator = c.approvals
		}
		if denominator == 0 {
			continue
		}
		share := float64(base) / float64(denominator)
		for _, vote := range c.votes {
			switch vote {
			case VoteGood:
				totals[c.playerID] += share
			case VoteGreat:
				totals[c.playerID] += share + greatVoteBonus
			}
		}
	}

	for playerID, total := range totals {
		deltas[playerID] = int(math.Round(total))
	}
	return deltas
}
