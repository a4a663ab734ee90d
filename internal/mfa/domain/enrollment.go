// Package domain holds the multi-factor enrollment model.
package domain

import "time"

// Enrollment is one account's TOTP enrollment. Secret is the base32 TOTP seed;
// it is stored but never written to logs or audit metadata.
type Enrollment struct {
	AccountID   string
	Secret      string
	ConfirmedAt *time.Time
	CreatedAt   time.Time
}

// Confirmed reports whether the enrollment has been proven with a valid code.
func (e *Enrollment) Confirmed() bool {
	return e.ConfirmedAt != nil
}
