package game

import "errors"

var (
	ErrRoomNotFound             = errors.New("room not found")
	ErrParticipantNotFound      = errors.New("participant not found in room")
	ErrNotHost                  = errors.New("only the host can perform this action")
	ErrRoomAlreadyPlaying       = errors.New("game already started")
	ErrNoWordsAvailable         = errors.New("at least one word is required")
	ErrInsufficientParticipants = errors.New("not enough players to start")
	ErrJoinCodeTaken            = errors.New("join code already in use")
	ErrValidation               = errors.New("invalid input")
)
