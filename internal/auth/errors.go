package auth

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the auth service. Security decisions are ordinary typed
// results; only *StorageError marks a genuine infrastructure fault.
var (
	// ErrInvalidCredentials covers wrong email and wrong password alike, so
	// responses never reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidRole        = errors.New("role cannot be registered")
	ErrAccountInactive    = errors.New("account is inactive or deleted")
)

// LockedError is returned while an account is locked out. Remaining drives the
// countdown a collaborating view may show; because a lock only exists after
// repeated attempts against that email, showing it leaks nothing new.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked; try again in %s", e.Remaining.Round(time.Second))
}

// StorageError marks a storage-layer fault. It propagates to the caller, which
// decides how its surface degrades; the core never silently returns an empty
// result instead.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage unavailable during " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
