package services

import "errors"

var (
	// ErrNoActiveQuestion means the session has no question to operate on.
	ErrNoActiveQuestion = errors.New("no active question found")
	// ErrIndexOutOfRange means a positional candidate reference was invalid.
	ErrIndexOutOfRange = errors.New("candidate index out of range")
)
