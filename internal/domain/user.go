package domain

import "time"

// User is the domain entity for an account. Email is stored lowercased and
// PasswordHash only ever holds a bcrypt hash, never the plaintext password.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	CreatedAt    time.Time
}
