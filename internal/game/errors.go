package game

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room already has two players")
	ErrRoundNotActive     = errors.New("round is not open for answers")
	ErrAlreadySubmitted   = errors.New("answer already submitted for this round")
	ErrNotInRoom          = errors.New("player is not part of this room")
	ErrMatchFinished      = errors.New("match already finished")
	ErrQuestionsExhausted = errors.New("no unused question matches the requested categories")
	ErrEmptyAnswer        = errors.New("answer must not be empty")
)
