package types

import "time"

// User represents an account in the system.
// It contains identity, authorization, and audit metadata.
type User struct {
	// ID is the unique identifier of the user, assigned on creation.
	ID int `json:"id" db:"id"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. It is unique across all users
	// and stored lowercased.
	Email string `json:"email" db:"email"`

	// IsAdmin grants access to the admin-only user directory operations.
	IsAdmin bool `json:"is_admin" db:"is_admin"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PublicProfile is the projection of a User returned to callers.
// It never carries the password hash.
type PublicProfile struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// Public returns the caller-facing projection of the user.
func (u User) Public() PublicProfile {
	return PublicProfile{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
	}
}
