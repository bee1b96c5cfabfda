/*
Package auth provides the membership and authentication adapter.

PURPOSE:
  The leave engine never sees credentials; it consumes a resolved owner
  identity. This package supplies that identity: member accounts with
  bcrypt-hashed passwords, login issuing signed bearer tokens, and token
  verification for the HTTP middleware.

SIDE EFFECT ON SIGNUP:
  Signing up triggers creation of the member's entitlement for the current
  year. That call is best-effort: its failure is logged and swallowed so a
  hiccup in the leave store never blocks onboarding. This is a deliberate,
  documented partial-failure policy local to signup, not a general pattern.
*/
package auth

import (
	"context"
	"errors"
	"time"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMemberNotFound is returned when a referenced member does not exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrEmailTaken is returned when signing up with an email already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on login with an unknown email or a
	// wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// =============================================================================
// MEMBER
// =============================================================================

// Member is an account that owns entitlements.
type Member struct {
	ID           string
	Email        string
	PasswordHash string
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}

// MemberStore persists members.
type MemberStore interface {
	// InsertMember persists a new member. Fails with ErrEmailTaken when the
	// email is already registered.
	InsertMember(ctx context.Context, m *Member) error

	// GetMemberByEmail loads by email. Fails with ErrMemberNotFound.
	GetMemberByEmail(ctx context.Context, email string) (*Member, error)

	// GetMember loads by id. Fails with ErrMemberNotFound.
	GetMember(ctx context.Context, id string) (*Member, error)

	// UpdateLastLogin records a successful login.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
