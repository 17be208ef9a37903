package game

import "errors"

// Room operation errors. HTTP handlers map these onto 4xx responses with
// machine-stable codes; WebSocket handlers drop the offending frame instead.
var (
	ErrRoomFull         = errors.New("room is full")
	ErrNameTaken        = errors.New("username already taken")
	ErrNotFound         = errors.New("player not found")
	ErrForbidden        = errors.New("only the room creator can do that")
	ErrAlreadyStarted   = errors.New("game already started")
	ErrNotEnoughPlayers = errors.New("need at least 2 players to start")
	ErrInvalidTarget    = errors.New("invalid target player")
	ErrNoActiveGame     = errors.New("no active game")
	ErrInvalidChoice    = errors.New("invalid word choice")
	ErrInvalidFrame     = errors.New("malformed message")
)
