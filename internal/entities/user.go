package entities

import (
	"time"
)

// User is an entry in the registered-user registry. The registry is persisted
// as a JSON array in the key-value store, so there is no relational schema here.
type User struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name,omitempty"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is the subset of User that is safe to persist in a session or
// return over HTTP.
type PublicUser struct {
	ID       uint   `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Public strips credential material from a registry entry.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Email:    u.Email,
	}
}

// Session binds a logged-in user's public fields to an opaque token.
// Invariant: a token exists if and only if a user is present, so a Session
// value is either fully populated or absent (nil).
type Session struct {
	User  PublicUser `json:"user"`
	Token string     `json:"token"`
}
