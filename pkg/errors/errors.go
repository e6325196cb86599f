package errors

import "errors"

// Validation errors are returned synchronously with no state mutated.
var (
	ErrGameNotActive     = errors.New("game is not in progress")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrInvalidAmount     = errors.New("invalid amount for action")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrGameNotFound      = errors.New("game not found")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrGameFull          = errors.New("game is full")
	ErrSeatTaken         = errors.New("seat already occupied")
	ErrAlreadySeated     = errors.New("player already seated at this game")
	ErrHandInProgress    = errors.New("hand is already in progress")
	ErrNotEnoughPlayers  = errors.New("need at least 2 funded players")
)

// Resource and concurrency errors.
var (
	ErrInsufficientCards = errors.New("not enough cards in deck")
	ErrVersionConflict   = errors.New("game row was modified concurrently")
)
