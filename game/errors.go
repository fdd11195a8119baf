package game

import "errors"

var (
	ErrDuplicateRoom = errors.New("room id already registered")
	ErrOutboxFull    = errors.New("participant outbox full")
	ErrClientGone    = errors.New("participant connection released")
)
