// Package domain holds the account entity and role enum.
package domain

import (
	"errors"
	"time"
)

// Account is a credentialed user of the platform. Accounts are soft-deleted
// only; DeletedAt set or Active false means the account can never mint a session.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	DeletedAt    *time.Time // nil when not deleted
	CreatedAt    time.Time
}

// Role is the coarse access level recorded on an account and snapshotted into
// sessions at issuance.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleMember    Role = "member"
	RoleAnonymous Role = "anonymous"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember, RoleAnonymous:
		return true
	}
	return false
}

// Usable reports whether the account may authenticate: active and not soft-deleted.
func (a *Account) Usable() bool {
	return a != nil && a.Active && a.DeletedAt == nil
}

// Validate validates the account for persistence. Returns an error describing
// the first validation failure.
func (a *Account) Validate() error {
	if a.Email == "" {
		return errors.New("email is required")
	}
	if a.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if !a.Role.Valid() {
		return errors.New("unknown role")
	}
	return nil
}
