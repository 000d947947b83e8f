package session

import "errors"

var (
	ErrEmptyEnvStack  = errors.New("environment stack is empty")
	ErrJobNotFound    = errors.New("no such job")
	ErrInvalidPayload = errors.New("invalid session payload")
)
