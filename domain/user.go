// Package domain contains the core concepts of the chat relay.
// Types here are immutable once constructed and free of transport
// or storage concerns.
package domain

import "time"

// User is a member of the directory. PasswordHash is an encoded
// Argon2id digest, never a plain password.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
