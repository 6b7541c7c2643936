package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role is a mutually exclusive label governing endpoint access. Checks are
// flat string equality; there is no hierarchy between roles.
type Role string

const (
	RoleUser     Role = "user"
	RolePro      Role = "pro-user"
	RoleSurveyor Role = "surveyor"
	RoleAdmin    Role = "admin"
)

// ParseRole validates a wire-level role value.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.TrimSpace(s)); r {
	case RoleUser, RolePro, RoleSurveyor, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User is a platform account keyed by email. Accounts are created on first
// login and mutated only through role changes.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrNotFound     = errors.New("user not found")
	ErrInvalidEmail = errors.New("email is required")
)

// Store describes persistence operations for user accounts and roles.
type Store interface {
	// UpsertIfAbsent inserts the user unless the email already exists. The
	// stored role is always forced to RoleUser on insert; an existing user
	// is returned untouched with created=false.
	UpsertIfAbsent(ctx context.Context, u User) (User, bool, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	SetRole(ctx context.Context, id string, role Role) error
	// SetRoleByEmail is the payment-ledger promotion path. Promoting the
	// same email twice is idempotent in outcome.
	SetRoleByEmail(ctx context.Context, email string, role Role) error
	// RoleFlag reports whether the stored role equals role exactly. An
	// unknown email yields false, not an error.
	RoleFlag(ctx context.Context, email string, role Role) (bool, error)
	Delete(ctx context.Context, id string) error
}
