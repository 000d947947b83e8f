package identity

import "errors"

var (
	ErrUserExists        = errors.New("user already exists")
	ErrUserNotFound      = errors.New("no such user")
	ErrGroupExists       = errors.New("group already exists")
	ErrGroupNotFound     = errors.New("no such group")
	ErrReservedUsername  = errors.New("username is reserved")
	ErrInvalidUsername   = errors.New("username must be 3-20 characters with no whitespace")
	ErrAuthFailure       = errors.New("authentication failed")
	ErrRootNeedsPassword = errors.New("root may not exist without a password")
	ErrSetupFailed       = errors.New("first-time setup failed")
)
