package baseball

import "fmt"

// GameOverError rejects an action addressed to a completed game.
type GameOverError struct{}

func (e *GameOverError) Error() string {
	return "game is over"
}

func IsGameOver(err error) bool {
	_, ok := err.(*GameOverError)
	return ok
}

// InvalidActionError rejects a structurally invalid action.
type InvalidActionError struct {
	Reason string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action: %s", e.Reason)
}

func IsInvalidAction(err error) bool {
	_, ok := err.(*InvalidActionError)
	return ok
}

// UnauthorizedActionError rejects a well-formed action issued by the
// wrong team for the current turn.
type UnauthorizedActionError struct {
	Action ActionType
	Team   Side
}

func (e *UnauthorizedActionError) Error() string {
	return fmt.Sprintf("team %s is not authorized to %s right now", e.Team, e.Action)
}

func IsUnauthorizedAction(err error) bool {
	_, ok := err.(*UnauthorizedActionError)
	return ok
}
