package security

import (
	"fmt"
	"strings"
	"unicode"
)

// PasswordPolicy is the strength policy applied before any credential is stored.
type PasswordPolicy struct {
	MinLength     int
	RequireUpper  bool
	RequireDigit  bool
	RequireSymbol bool
}

// WeakPasswordError lists the policy requirements a candidate password failed
// to meet. The messages are safe to show to the end user.
type WeakPasswordError struct {
	Missing []string
}

func (e *WeakPasswordError) Error() string {
	return "weak password: " + strings.Join(e.Missing, "; ")
}

// Validate checks password against the policy. Returns nil when the password
// satisfies every requirement, or a *WeakPasswordError naming each unmet one.
func (p PasswordPolicy) Validate(password string) error {
	var missing []string
	if len(password) < p.MinLength {
		missing = append(missing, fmt.Sprintf("at least %d characters", p.MinLength))
	}
	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			hasSymbol = true
		}
	}
	if p.RequireUpper && !hasUpper {
		missing = append(missing, "an uppercase letter")
	}
	if p.RequireDigit && !hasDigit {
		missing = append(missing, "a digit")
	}
	if p.RequireSymbol && !hasSymbol {
		missing = append(missing, "a symbol")
	}
	if len(missing) > 0 {
		return &WeakPasswordError{Missing: missing}
	}
	return nil
}
