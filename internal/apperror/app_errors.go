package apperror

import "errors"

var (
	ErrRoomFull       = errors.New("room is full")
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrWrongPhase     = errors.New("game state does not allow this action")
	ErrAlreadyInRoom  = errors.New("already joined this room")
	ErrNotInRoom      = errors.New("player is not in a room")
	ErrNotAMember     = errors.New("player is not a member of this room")
	ErrInvalidDigits  = errors.New("invalid number: need 4 distinct digits 0-9")
	ErrSecretNotSet   = errors.New("opponent secret is not set")
)
