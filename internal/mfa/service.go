// Package mfa manages optional TOTP second factors. Enrollment is a two-step
// flow: Begin issues a secret, Confirm proves the authenticator has it. Only
// confirmed enrollments count during login.
package mfa

import (
	"context"
	"errors"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"

	"staybook/authcore/internal/mfa/domain"
	"staybook/authcore/internal/mfa/repository"
)

var (
	ErrNotEnrolled  = errors.New("account has no confirmed enrollment")
	ErrInvalidCode  = errors.New("code does not match")
	ErrAlreadySetUp = errors.New("enrollment already confirmed")
)

// Service runs the TOTP enrollment and verification flows.
type Service struct {
	store  repository.Repository
	issuer string
	log    zerolog.Logger
	nowF   func() time.Time
}

// NewService returns a Service over store. issuer names the platform in
// authenticator apps.
func NewService(store repository.Repository, issuer string, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		issuer: issuer,
		log:    log,
		nowF:   func() time.Time { return time.Now().UTC() },
	}
}

// Begin generates a fresh TOTP secret for the account and returns the
// provisioning URI for the authenticator app. Re-running Begin before Confirm
// replaces the pending secret; running it after Confirm fails so a confirmed
// factor cannot be silently swapped.
func (s *Service) Begin(ctx context.Context, accountID, email string) (string, error) {
	existing, err := s.store.GetByAccountID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if existing != nil && existing.Confirmed() {
		return "", ErrAlreadySetUp
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: email,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}
	e := &domain.Enrollment{
		AccountID: accountID,
		Secret:    key.Secret(),
		CreatedAt: s.nowF(),
	}
	if err := s.store.Upsert(ctx, e); err != nil {
		return "", err
	}
	return key.URL(), nil
}

// Confirm validates code against the pending secret and marks the enrollment
// confirmed. From then on Verify is required at login.
func (s *Service) Confirm(ctx context.Context, accountID, code string) error {
	e, err := s.store.GetByAccountID(ctx, accountID)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrNotEnrolled
	}
	if e.Confirmed() {
		return ErrAlreadySetUp
	}
	if !totp.Validate(code, e.Secret) {
		return ErrInvalidCode
	}
	return s.store.Confirm(ctx, accountID, s.nowF())
}

// Verify checks a login code against the account's confirmed enrollment.
func (s *Service) Verify(ctx context.Context, accountID, code string) error {
	e, err := s.store.GetByAccountID(ctx, accountID)
	if err != nil {
		return err
	}
	if e == nil || !e.Confirmed() {
		return ErrNotEnrolled
	}
	if !totp.Validate(code, e.Secret) {
		return ErrInvalidCode
	}
	return nil
}

// Enrolled reports whether the account has a confirmed enrollment.
func (s *Service) Enrolled(ctx context.Context, accountID string) (bool, error) {
	e, err := s.store.GetByAccountID(ctx, accountID)
	if err != nil {
		return false, err
	}
	return e != nil && e.Confirmed(), nil
}

// Disable removes the account's enrollment.
func (s *Service) Disable(ctx context.Context, accountID string) error {
	return s.store.Delete(ctx, accountID)
}
