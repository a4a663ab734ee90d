// Package auth is the entry point collaborating surfaces call for
// registration, login, session resolution, and account administration.
package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	accountdomain "staybook/authcore/internal/account/domain"
	accountrepo "staybook/authcore/internal/account/repository"
	"staybook/authcore/internal/attempt"
	"staybook/authcore/internal/audit"
	auditdomain "staybook/authcore/internal/audit/domain"
	"staybook/authcore/internal/security"
	"staybook/authcore/internal/session"
	sessiondomain "staybook/authcore/internal/session/domain"
	"staybook/authcore/internal/telemetry"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Deps holds the service's collaborators.
type Deps struct {
	Accounts accountrepo.Repository
	Sessions *session.Manager
	Tracker  *attempt.Tracker
	Hashes   *security.HashPool
	Tokens   *security.TokenProvider
	Policy   security.PasswordPolicy
	Recorder audit.Recorder
	Metrics  *telemetry.Metrics
	Log      zerolog.Logger
}

// Service implements register, authenticate, resolve, logout, and the account
// administration operations, enforcing lockout, enumeration-safe failures, and
// rehash-on-login.
type Service struct {
	accounts accountrepo.Repository
	sessions *session.Manager
	tracker  *attempt.Tracker
	hashes   *security.HashPool
	tokens   *security.TokenProvider
	policy   security.PasswordPolicy
	recorder audit.Recorder
	metrics  *telemetry.Metrics
	log      zerolog.Logger
	nowF     func() time.Time

	// dummyHash is compared against when no account matches, so a miss costs
	// the same hashing work as a wrong password on a real account.
	dummyHash string
}

// NewService returns a Service with the given dependencies.
func NewService(deps Deps) (*Service, error) {
	dummy, err := security.NewHasher(deps.Hashes.Cost()).Hash([]byte(uuid.New().String()))
	if err != nil {
		return nil, err
	}
	return &Service{
		accounts:  deps.Accounts,
		sessions:  deps.Sessions,
		tracker:   deps.Tracker,
		hashes:    deps.Hashes,
		tokens:    deps.Tokens,
		policy:    deps.Policy,
		recorder:  deps.Recorder,
		metrics:   deps.Metrics,
		log:       deps.Log,
		nowF:      func() time.Time { return time.Now().UTC() },
		dummyHash: dummy,
	}, nil
}

// Register creates an account with the given email, password, and role after
// validating the password policy. No storage write happens on a policy
// failure. role defaults to member; anonymous cannot be registered.
func (s *Service) Register(ctx context.Context, email, password string, role accountdomain.Role) (*accountdomain.Account, error) {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if role == "" {
		role = accountdomain.RoleMember
	}
	if !role.Valid() || role == accountdomain.RoleAnonymous {
		return nil, ErrInvalidRole
	}
	if err := s.policy.Validate(password); err != nil {
		return nil, err
	}
	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, s.storage("account lookup", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	hash, err := s.hashes.Hash(ctx, []byte(password))
	if err != nil {
		return nil, err
	}
	acct := &accountdomain.Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    s.nowF(),
	}
	if err := acct.Validate(); err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		return nil, s.storage("account create", err)
	}
	s.record(ctx, acct.ID, auditdomain.ActionRegister, "", map[string]string{
		"email": email,
		"role":  string(role),
	})
	return acct, nil
}

// Authenticate verifies email/password, enforces lockout, and on success mints
// a session and returns its signed token. Failure reasons are deliberately
// collapsed: wrong email and wrong password both return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string, origin attempt.Origin) (string, *sessiondomain.Session, error) {
	email = normalizeEmail(email)
	now := s.nowF()
	if email == "" || password == "" {
		s.metrics.Login(ctx, "invalid_credentials")
		return "", nil, ErrInvalidCredentials
	}

	remaining, err := s.tracker.Remaining(ctx, email, now)
	if err != nil {
		return "", nil, s.storage("lockout check", err)
	}
	if remaining > 0 {
		s.record(ctx, "", auditdomain.ActionLoginFailure, origin.IP, map[string]string{
			"email":  email,
			"reason": "locked",
		})
		s.metrics.Login(ctx, "locked")
		return "", nil, &LockedError{Remaining: remaining}
	}

	acct, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, s.storage("account lookup", err)
	}
	if acct == nil {
		// Same hashing work as a real account so response timing does not
		// reveal whether the email exists.
		if _, err := s.hashes.Verify(ctx, s.dummyHash, []byte(password)); err != nil {
			return "", nil, err
		}
		return "", nil, s.failAttempt(ctx, email, origin, now, "unknown email")
	}

	ok, err := s.hashes.Verify(ctx, acct.PasswordHash, []byte(password))
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, s.failAttempt(ctx, email, origin, now, "wrong password")
	}

	if !acct.Usable() {
		if err := s.tracker.Record(ctx, email, false, origin, now); err != nil {
			return "", nil, s.storage("attempt record", err)
		}
		s.record(ctx, acct.ID, auditdomain.ActionLoginFailure, origin.IP, map[string]string{
			"email":  email,
			"reason": "inactive or deleted",
		})
		s.metrics.Login(ctx, "inactive")
		return "", nil, ErrAccountInactive
	}

	if err := s.tracker.Record(ctx, email, true, origin, now); err != nil {
		return "", nil, s.storage("attempt record", err)
	}

	s.maybeRehash(ctx, acct, password)

	sess, err := s.sessions.Create(ctx, acct)
	if err != nil {
		if errors.Is(err, session.ErrAccountUnusable) {
			return "", nil, ErrAccountInactive
		}
		return "", nil, s.storage("session create", err)
	}
	token, err := s.tokens.Issue(sess.ID, acct.ID)
	if err != nil {
		return "", nil, err
	}
	s.record(ctx, acct.ID, auditdomain.ActionLoginSuccess, origin.IP, map[string]string{
		"email": email,
	})
	s.record(ctx, acct.ID, auditdomain.ActionSessionCreated, origin.IP, map[string]string{
		"session_id": sess.ID,
	})
	s.metrics.Login(ctx, "success")
	return token, sess, nil
}

// Resolve validates token and slides the named session's inactivity window to
// now, returning the still-Active session. Expiry and revocation surface as
// session.ErrExpired / session.ErrRevoked; malformed tokens as
// security.ErrInvalidToken.
func (s *Service) Resolve(ctx context.Context, token string, now time.Time) (*sessiondomain.Session, error) {
	sessionID, accountID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Touch(ctx, sessionID, now)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrExpired):
			s.record(ctx, accountID, auditdomain.ActionSessionExpired, "", map[string]string{
				"session_id": sessionID,
			})
			s.metrics.SessionExpired(ctx)
			return nil, err
		case errors.Is(err, session.ErrRevoked), errors.Is(err, session.ErrNotFound):
			return nil, err
		}
		return nil, s.storage("session touch", err)
	}
	return sess, nil
}

// Logout revokes the session named by token. Idempotent: an invalid token or
// an already terminal session is a no-op, not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	sessionID, accountID, err := s.tokens.Validate(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return s.storage("session revoke", err)
	}
	s.record(ctx, accountID, auditdomain.ActionSessionRevoked, "", map[string]string{
		"session_id": sessionID,
	})
	return nil
}

// ChangeRole sets the account's role. Existing sessions keep the role snapshot
// taken at issuance; the change applies to sessions issued afterwards.
func (s *Service) ChangeRole(ctx context.Context, actorID, accountID string, role accountdomain.Role) error {
	if !role.Valid() || role == accountdomain.RoleAnonymous {
		return ErrInvalidRole
	}
	if err := s.accounts.UpdateRole(ctx, accountID, role); err != nil {
		return s.storage("role update", err)
	}
	s.record(ctx, actorID, auditdomain.ActionRoleChanged, "", map[string]string{
		"account_id": accountID,
		"role":       string(role),
	})
	return nil
}

// SetActive flips the account's active flag. Deactivation does not revoke
// live sessions; it prevents new ones.
func (s *Service) SetActive(ctx context.Context, actorID, accountID string, active bool) error {
	if err := s.accounts.SetActive(ctx, accountID, active); err != nil {
		return s.storage("active update", err)
	}
	if !active {
		s.record(ctx, actorID, auditdomain.ActionAccountDisabled, "", map[string]string{
			"account_id": accountID,
		})
	}
	return nil
}

// SoftDelete marks the account deleted. The row stays for audit lineage; the
// account can never authenticate again.
func (s *Service) SoftDelete(ctx context.Context, actorID, accountID string) error {
	if err := s.accounts.SoftDelete(ctx, accountID); err != nil {
		return s.storage("account delete", err)
	}
	s.record(ctx, actorID, auditdomain.ActionAccountDeleted, "", map[string]string{
		"account_id": accountID,
	})
	return nil
}

// failAttempt records a failed attempt, audits it, and reports whether the
// failure tipped the account into lockout. Always returns ErrInvalidCredentials.
func (s *Service) failAttempt(ctx context.Context, email string, origin attempt.Origin, now time.Time, reason string) error {
	if err := s.tracker.Record(ctx, email, false, origin, now); err != nil {
		return s.storage("attempt record", err)
	}
	s.record(ctx, "", auditdomain.ActionLoginFailure, origin.IP, map[string]string{
		"email":  email,
		"reason": reason,
	})
	s.metrics.Login(ctx, "invalid_credentials")

	locked, err := s.tracker.IsLocked(ctx, email, now)
	if err != nil {
		s.log.Error().Err(err).Msg("lockout re-evaluation failed")
		return ErrInvalidCredentials
	}
	if locked {
		s.record(ctx, "", auditdomain.ActionAccountLocked, origin.IP, map[string]string{
			"email": email,
		})
		s.metrics.Lockout(ctx)
	}
	return ErrInvalidCredentials
}

// maybeRehash upgrades the stored hash after a proven-correct password when it
// is weaker than current policy. Best-effort: a failure here must not break
// the login that just succeeded.
func (s *Service) maybeRehash(ctx context.Context, acct *accountdomain.Account, password string) {
	if !s.hashes.NeedsRehash(acct.PasswordHash) {
		return
	}
	hash, err := s.hashes.Hash(ctx, []byte(password))
	if err != nil {
		s.log.Warn().Err(err).Str("account_id", acct.ID).Msg("rehash failed")
		return
	}
	if err := s.accounts.UpdatePasswordHash(ctx, acct.ID, hash); err != nil {
		s.log.Warn().Err(err).Str("account_id", acct.ID).Msg("rehash persist failed")
		return
	}
	acct.PasswordHash = hash
	s.record(ctx, acct.ID, auditdomain.ActionCredentialRehash, "", nil)
	s.metrics.Rehash(ctx)
}

func (s *Service) record(ctx context.Context, actorID, action, ip string, metadata map[string]string) {
	if s.recorder != nil {
		s.recorder.Record(ctx, actorID, action, ip, metadata)
	}
}

func (s *Service) storage(op string, err error) error {
	s.log.Error().Err(err).Str("op", op).Msg("storage unavailable")
	return &StorageError{Op: op, Err: err}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
