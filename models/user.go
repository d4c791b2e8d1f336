package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// User represents a system user. Owned by the auth subsystem; the results
// pipeline only reads it and links results to it.
type User struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	Username           string    `json:"username" db:"username"`
	FullName           string    `json:"full_name" db:"full_name"`
	Role               string    `json:"role" db:"role"`
	PasswordHash       string    `json:"-" db:"password_hash"`
	IsActive           bool      `json:"is_active" db:"is_active"`
	MustChangePassword bool      `json:"must_change_password" db:"must_change_password"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayName returns the full name when set, falling back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
