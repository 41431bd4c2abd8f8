package service

import (
	"regexp"
	"strings"
	"time"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

const minPasswordLength = 8

// ValidateTitle rejects titles that are empty after trimming and returns the
// trimmed value to be stored.
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}

// ValidateDueDate rejects a due date in the past, but only for new tasks.
// Updates may set any due date; the clock check applies at creation only.
func ValidateDueDate(due *time.Time, isNew bool) error {
	if !isNew || due == nil {
		return nil
	}
	if due.Before(time.Now().UTC()) {
		return ErrDueDateInPast
	}
	return nil
}

// ValidateUsername restricts usernames to letters, digits and underscore.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidatePassword enforces the length floor, then the confirmation match.
func ValidatePassword(password, confirm string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// NormalizeEmail lowercases an email for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
