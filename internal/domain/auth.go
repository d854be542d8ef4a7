package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("an account with this email already exists")
	ErrTokenNotFound = errors.New("verification token not found")
	ErrUnauthorized  = errors.New("unauthorized")

	// ErrUserNotVerifiable means the token's user vanished or was verified
	// by someone else before the token could be consumed.
	ErrUserNotVerifiable = errors.New("user missing or already verified")
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID            string
	Email         string
	PasswordHash  *string // nil for accounts created without a password
	Name          *string
	Role          Role
	EmailVerified *time.Time // nil means unverified
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u *User) IsVerified() bool {
	return u.EmailVerified != nil
}

// VerificationToken proves control of Identifier (an email address).
// Only the SHA-256 of the token is persisted.
type VerificationToken struct {
	Identifier string
	TokenHash  string
	Expires    time.Time
}

func (t *VerificationToken) Expired(now time.Time) bool {
	return t.Expires.Before(now)
}
