// Package game holds the domain model and pure rules of a Basta session:
// settings validation, letter selection, round aggregation and scoring.
// Nothing in this package performs I/O, holds locks, or subscribes to
// anything; persistence and transport live elsewhere.
package game

import (
	"strings"
	"time"
)

// Status represents the current phase of a game.
type Status string

const (
	StatusLobby    Status = "lobby"
	StatusPlaying  Status = "playing"
	StatusVoting   Status = "voting"
	StatusFinished Status = "finished"
)

const (
	// MinNameLength and MaxNameLength bound player display names.
	MinNameLength = 2
	MaxNameLength = 15

	// MaxCategories caps the category list per game.
	MaxCategories = 10

	// MinPhaseSeconds is the shortest allowed answer or rating phase.
	MinPhaseSeconds = 10

	// DefaultRatingSeconds is used when settings omit a rating time.
	DefaultRatingSeconds = 30
)

// Settings configures a single game. Times are in seconds.
type Settings struct {
	Rounds     int      `json:"rounds"`
	Categories []string `json:"categories"`
	RoundTime  int      `json:"roundTime"`
	RatingTime int      `json:"ratingTime"`
}

// Normalize trims category names and fills in the default rating time.
func (s *Settings) Normalize() {
	for i, c := range s.Categories {
		s.Categories[i] = strings.TrimSpace(c)
	}
	if s.RatingTime == 0 {
		s.RatingTime = DefaultRatingSeconds
	}
}

// Validate reports the first out-of-range field, if any. Callers should
// Normalize first.
func (s *Settings) Validate() error {
	if s.Rounds < 1 {
		return &ValidationError{Field: "rounds", Reason: "must be at least 1"}
	}
	if len(s.Categories) == 0 {
		return &ValidationError{Field: "categories", Reason: "at least one category is required"}
	}
	if len(s.Categories) > MaxCategories {
		return &ValidationError{Field: "categories", Reason: "too many categories"}
	}
	seen := make(map[string]bool, len(s.Categories))
	for _, c := range s.Categories {
		if c == "" {
			return &ValidationError{Field: "categories", Reason: "category names must not be empty"}
		}
		folded := strings.ToLower(c)
		if seen[folded] {
			return &ValidationError{Field: "categories", Reason: "duplicate category: " + c}
		}
		seen[folded] = true
	}
	if s.RoundTime < MinPhaseSeconds {
		return &ValidationError{Field: "roundTime", Reason: "round time is too short"}
	}
	if s.RatingTime < MinPhaseSeconds {
		return &ValidationError{Field: "ratingTime", Reason: "rating time is too short"}
	}
	return nil
}

// ValidateName checks a player display name.
func ValidateName(name string) error {
	if n := len([]rune(name)); n < MinNameLength || n > MaxNameLength {
		return &ValidationError{Field: "name", Reason: "must be between 2 and 15 characters"}
	}
	return nil
}

// Game is one party session. CurrentLetter is empty outside of rounds;
// whenever Status is playing it holds a single uppercase letter.
type Game struct {
	ID            string    `json:"id"`
	Status        Status    `json:"status"`
	HostID        string    `json:"hostId"`
	CurrentRound  int       `json:"currentRound"`
	CurrentLetter string    `json:"currentLetter,omitempty"`
	Settings      Settings  `json:"settings"`
	FinishedBy    string    `json:"finishedBy,omitempty"`
	LastActivity  time.Time `json:"lastActivity"`
}

// Player is one roster entry. Exactly one player per game has IsHost set.
// IsReady only carries meaning for non-host players before the game starts.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsHost  bool   `json:"isHost"`
	Score   int    `json:"score"`
	IsReady bool   `json:"isReady"`
}
