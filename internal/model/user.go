// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account.
//
// PasswordHash holds a bcrypt hash and is never serialized.
type User struct {
	ID           string    `json:"user_id"    db:"user_id"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// MaxEmailLength matches the width of users.email.
const MaxEmailLength = 60
