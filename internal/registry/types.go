package registry

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidUsername = errors.New("username must be 3-24 chars: letters, digits, _")
	ErrUsernameTaken   = errors.New("username is already registered")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidHandle   = errors.New("invalid lichess username")
	ErrLichessLinked   = errors.New("this lichess account is already linked")
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,24}$`)
	handlePattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{2,30}$`)
)
