package domain

import "time"

// User represents an authenticated user of the system.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the identity attached to an authenticated request.
type Principal struct {
	UserID   int64
	Username string
}
