package repository

import "errors"

// Sentinel kinds for history store errors.
var (
	ErrEmptyPlayerID = errors.New("empty player id")
	ErrEmptyMatchID  = errors.New("empty match id")
	ErrClosed        = errors.New("store closed")
)
