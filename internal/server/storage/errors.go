package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that a user with this external identity already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrChildNotFound indicates that the child does not exist or belongs to another user
	ErrChildNotFound = errors.New("child not found")

	// ErrRecordNotFound indicates that a child record (growth, sleep, ...) was not found
	ErrRecordNotFound = errors.New("record not found")
)
