package service

import "errors"

// Validation and lookup failures surfaced to the API boundary. None of these
// are retryable; anything else bubbling out of a service is a storage error.
var (
	ErrNotFound = errors.New("not found")

	ErrEmptyTitle    = errors.New("title cannot be empty or contain only whitespace")
	ErrDueDateInPast = errors.New("due date cannot be in the past")
	ErrInvalidStatus = errors.New("status must be pending or completed")

	ErrInvalidUsername  = errors.New("username can only contain letters, numbers, and underscores")
	ErrWeakPassword     = errors.New("password must be at least 8 characters long")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrDuplicateEmail   = errors.New("a user with this email already exists")
	ErrUsernameTaken    = errors.New("username already taken")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("user account is disabled")
)
