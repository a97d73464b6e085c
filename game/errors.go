package game

import "errors"

var (
	ErrGameNotFound       = errors.New("game not found")
	ErrGameAlreadyStarted = errors.New("game has already started")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrInvalidState       = errors.New("invalid game state for this action")
	ErrSelfVoteForbidden  = errors.New("players cannot vote on their own answers")
	ErrIDExhausted        = errors.New("could not allocate a unique game id")
)

// ValidationError reports an out-of-range setting or name.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}
