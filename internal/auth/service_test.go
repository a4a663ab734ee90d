package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	accountdomain "staybook/authcore/internal/account/domain"
	"staybook/authcore/internal/attempt"
	attemptdomain "staybook/authcore/internal/attempt/domain"
	auditdomain "staybook/authcore/internal/audit/domain"
	"staybook/authcore/internal/security"
	"staybook/authcore/internal/session"
	sessiondomain "staybook/authcore/internal/session/domain"
)

type fakeAccounts struct {
	mu      sync.Mutex
	byID    map[string]*accountdomain.Account
	byEmail map[string]*accountdomain.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		byID:    make(map[string]*accountdomain.Account),
		byEmail: make(map[string]*accountdomain.Account),
	}
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*accountdomain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*accountdomain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) Create(_ context.Context, a *accountdomain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.byID[a.ID] = &cp
	f.byEmail[a.Email] = &cp
	return nil
}

func (f *fakeAccounts) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		a.PasswordHash = passwordHash
	}
	return nil
}

func (f *fakeAccounts) UpdateRole(_ context.Context, id string, role accountdomain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		a.Role = role
	}
	return nil
}

func (f *fakeAccounts) SetActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		a.Active = active
	}
	return nil
}

func (f *fakeAccounts) SoftDelete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		now := time.Now().UTC()
		a.DeletedAt = &now
	}
	return nil
}

type fakeAttempts struct {
	mu      sync.Mutex
	records map[string][]*attemptdomain.Record
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{records: make(map[string][]*attemptdomain.Record)}
}

func (f *fakeAttempts) Append(_ context.Context, rec *attemptdomain.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.Email] = append([]*attemptdomain.Record{rec}, f.records[rec.Email]...)
	return nil
}

func (f *fakeAttempts) RecentByEmail(_ context.Context, email string, limit int) ([]*attemptdomain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs := f.records[email]
	if len(recs) > limit {
		recs = recs[:limit]
	}
	out := make([]*attemptdomain.Record, len(recs))
	copy(out, recs)
	return out, nil
}

func (f *fakeAttempts) PruneBefore(_ context.Context, _ time.Time) error { return nil }

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*sessiondomain.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]*sessiondomain.Session)}
}

func (f *fakeSessions) GetByID(_ context.Context, id string) (*sessiondomain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessions) Create(_ context.Context, s *sessiondomain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessions) UpdateActivity(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok && s.State == sessiondomain.StateActive && !s.LastActivityAt.After(at) {
		s.LastActivityAt = at
	}
	return nil
}

func (f *fakeSessions) SetState(_ context.Context, id string, state sessiondomain.State, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok && s.State == sessiondomain.StateActive {
		s.State = state
		if state == sessiondomain.StateRevoked {
			t := at
			s.RevokedAt = &t
		}
	}
	return nil
}

func (f *fakeSessions) ExpireIdleBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []recordedEntry
}

type recordedEntry struct {
	actorID  string
	action   string
	metadata map[string]string
}

func (r *fakeRecorder) Record(_ context.Context, actorID, action, _ string, metadata map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedEntry{actorID: actorID, action: action, metadata: metadata})
}

func (r *fakeRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.action
	}
	return out
}

func (r *fakeRecorder) has(action string) bool {
	for _, a := range r.actions() {
		if a == action {
			return true
		}
	}
	return false
}

type harness struct {
	svc      *Service
	accounts *fakeAccounts
	attempts *fakeAttempts
	sessions *fakeSessions
	recorder *fakeRecorder
	tokens   *security.TokenProvider
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	accounts := newFakeAccounts()
	attempts := newFakeAttempts()
	sessions := newFakeSessions()
	recorder := &fakeRecorder{}

	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatal(err)
	}

	h := &harness{
		accounts: accounts,
		attempts: attempts,
		sessions: sessions,
		recorder: recorder,
		tokens:   tokens,
		// Real time, not a fixed date: the session manager stamps rows with
		// its own clock and the two must agree to within the test's margins.
		now: time.Now().UTC(),
	}

	svc, err := NewService(Deps{
		Accounts: accounts,
		Sessions: session.NewManager(sessions, time.Hour),
		Tracker:  attempt.NewTracker(attempts, 5, 15*time.Minute),
		Hashes:   security.NewHashPool(security.NewHasher(bcrypt.MinCost), 2),
		Tokens:   tokens,
		Policy:   security.PasswordPolicy{MinLength: 10, RequireUpper: true, RequireDigit: true},
		Recorder: recorder,
		Metrics:  nil,
		Log:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatal(err)
	}
	svc.nowF = func() time.Time { return h.now }
	h.svc = svc
	return h
}

func (h *harness) register(t *testing.T, email, password string) *accountdomain.Account {
	t.Helper()
	acct, err := h.svc.Register(context.Background(), email, password, accountdomain.RoleMember)
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return acct
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	acct := h.register(t, "guest@example.com", "Str0ngEnough")
	if acct.Role != accountdomain.RoleMember {
		t.Errorf("role = %v, want member", acct.Role)
	}
	if acct.PasswordHash == "Str0ngEnough" || acct.PasswordHash == "" {
		t.Error("password stored unhashed")
	}
	if !h.recorder.has(auditdomain.ActionRegister) {
		t.Error("register was not audited")
	}

	if _, err := h.svc.Register(ctx, "guest@example.com", "Str0ngEnough", ""); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email: got %v, want ErrEmailTaken", err)
	}
	if _, err := h.svc.Register(ctx, "not-an-email", "Str0ngEnough", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("bad email: got %v, want ErrInvalidEmail", err)
	}
	if _, err := h.svc.Register(ctx, "x@example.com", "Str0ngEnough", accountdomain.RoleAnonymous); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("anonymous role: got %v, want ErrInvalidRole", err)
	}
}

func TestRegisterWeakPasswordWritesNothing(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Register(context.Background(), "weak@example.com", "short", "")
	var weak *security.WeakPasswordError
	if !errors.As(err, &weak) {
		t.Fatalf("got %v, want WeakPasswordError", err)
	}
	if len(weak.Missing) == 0 {
		t.Error("error names no unmet requirements")
	}
	if stored, _ := h.accounts.GetByEmail(context.Background(), "weak@example.com"); stored != nil {
		t.Error("weak password still created an account")
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acct := h.register(t, "guest@example.com", "Str0ngEnough")

	token, sess, err := h.svc.Authenticate(ctx, "guest@example.com", "Str0ngEnough", attempt.Origin{IP: "203.0.113.7"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if sess.AccountID != acct.ID {
		t.Errorf("session account = %s, want %s", sess.AccountID, acct.ID)
	}
	if sess.Role != accountdomain.RoleMember {
		t.Errorf("session role = %v, want member snapshot", sess.Role)
	}

	resolved, err := h.svc.Resolve(ctx, token, h.now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.ID != sess.ID {
		t.Errorf("resolved session %s, want %s", resolved.ID, sess.ID)
	}
	if !h.recorder.has(auditdomain.ActionLoginSuccess) || !h.recorder.has(auditdomain.ActionSessionCreated) {
		t.Errorf("audit = %v, want login_success and session_created", h.recorder.actions())
	}
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "guest@example.com", "Str0ngEnough")

	_, _, errWrongPassword := h.svc.Authenticate(ctx, "guest@example.com", "WrongPass99", attempt.Origin{})
	_, _, errUnknownEmail := h.svc.Authenticate(ctx, "nobody@example.com", "WrongPass99", attempt.Origin{})

	if !errors.Is(errWrongPassword, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", errWrongPassword)
	}
	if !errors.Is(errUnknownEmail, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v", errUnknownEmail)
	}
	if errWrongPassword.Error() != errUnknownEmail.Error() {
		t.Error("failure messages differ between unknown email and wrong password")
	}
}

func TestAuthenticateLockout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "guest@example.com", "Str0ngEnough")

	for i := 0; i < 5; i++ {
		_, _, err := h.svc.Authenticate(ctx, "guest@example.com", "WrongPass99", attempt.Origin{})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: got %v, want ErrInvalidCredentials", i+1, err)
		}
	}
	if !h.recorder.has(auditdomain.ActionAccountLocked) {
		t.Error("lockout was not audited")
	}

	// Correct password while locked must still be rejected.
	_, _, err := h.svc.Authenticate(ctx, "guest@example.com", "Str0ngEnough", attempt.Origin{})
	var locked *LockedError
	if !errors.As(err, &locked) {
		t.Fatalf("got %v, want LockedError", err)
	}
	if locked.Remaining <= 14*time.Minute || locked.Remaining > 15*time.Minute {
		t.Errorf("Remaining = %v, want about 15m", locked.Remaining)
	}

	// After the window the same credentials work again.
	h.now = h.now.Add(15*time.Minute + time.Second)
	if _, _, err := h.svc.Authenticate(ctx, "guest@example.com", "Str0ngEnough", attempt.Origin{}); err != nil {
		t.Fatalf("after window: %v", err)
	}
}

func TestAuthenticateUnknownEmailAlsoLocks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := h.svc.Authenticate(ctx, "nobody@example.com", "WrongPass99", attempt.Origin{})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: got %v", i+1, err)
		}
	}
	_, _, err := h.svc.Authenticate(ctx, "nobody@example.com", "WrongPass99", attempt.Origin{})
	var locked *LockedError
	if !errors.As(err, &locked) {
		t.Errorf("unknown email does not lock like a real one: got %v", err)
	}
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acct := h.register(t, "guest@example.com", "Str0ngEnough")

	if err := h.svc.SetActive(ctx, "admin-1", acct.ID, false); err != nil {
		t.Fatal(err)
	}
	_, _, err := h.svc.Authenticate(ctx, "guest@example.com", "Str0ngEnough", attempt.Origin{})
	if !errors.Is(err, ErrAccountInactive) {
		t.Errorf("got %v, want ErrAccountInactive", err)
	}

	// Wrong password on an inactive account must not reveal the account state.
	_, _, err = h.svc.Authenticate(ctx, "guest@example.com", "WrongPass99", attempt.Origin{})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password on inactive account: got %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticateUpgradesLegacyHash(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	acct := &accountdomain.Account{
		ID:           "legacy-1",
		Email:        "legacy@example.com",
		PasswordHash: security.LegacySHA256Hash([]byte("Legacy-Pass1")),
		Role:         accountdomain.RoleMember,
		Active:       true,
		CreatedAt:    h.now,
	}
	if err := h.accounts.Create(ctx, acct); err != nil {
		t.Fatal(err)
	}

	if _, _, err := h.svc.Authenticate(ctx, "legacy@example.com", "Legacy-Pass1", attempt.Origin{}); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	stored, err := h.accounts.GetByID(ctx, "legacy-1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stored.PasswordHash, "$2") {
		t.Errorf("hash not upgraded to bcrypt: %q", stored.PasswordHash)
	}
	if !h.recorder.has(auditdomain.ActionCredentialRehash) {
		t.Error("rehash was not audited")
	}

	// The upgraded hash still verifies the same password.
	if _, _, err := h.svc.Authenticate(ctx, "legacy@example.com", "Legacy-Pass1", attempt.Origin{}); err != nil {
		t.Fatalf("second login after upgrade: %v", err)
	}
}

func TestResolveExpiredSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "guest@example.com", "Str0ngEnough")

	token, _, err := h.svc.Authenticate(ctx, "guest@example.com", "Str0ngEnough", attempt.Origin{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := h.svc.Resolve(ctx, token, h.now.Add(59*time.Minute)); err != nil {
		t.Fatalf("Resolve at 59m: %v", err)
	}
	if _, err := h.svc.Resolve(ctx, token, h.now.Add(121*time.Minute)); !errors.Is(err, session.ErrExpired) {
		t.Fatalf("Resolve at 121m: got %v, want ErrExpired", err)
	}
	if !h.recorder.has(auditdomain.ActionSessionExpired) {
		t.Error("expiry was not audited")
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "guest@example.com", "Str0ngEnough")

	token, _, err := h.svc.Authenticate(ctx, "guest@example.com", "Str0ngEnough", attempt.Origin{})
	if err != nil {
		t.Fatal(err)
	}

	if err := h.svc.Logout(ctx, token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := h.svc.Resolve(ctx, token, h.now.Add(time.Minute)); !errors.Is(err, session.ErrRevoked) {
		t.Errorf("Resolve after logout: got %v, want ErrRevoked", err)
	}
	if !h.recorder.has(auditdomain.ActionSessionRevoked) {
		t.Error("logout was not audited")
	}

	// Logout is idempotent and swallows garbage tokens.
	if err := h.svc.Logout(ctx, token); err != nil {
		t.Errorf("second logout: %v", err)
	}
	if err := h.svc.Logout(ctx, "not-a-token"); err != nil {
		t.Errorf("garbage token logout: %v", err)
	}
}

func TestRoleChangeDoesNotAffectLiveSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acct := h.register(t, "guest@example.com", "Str0ngEnough")

	token, _, err := h.svc.Authenticate(ctx, "guest@example.com", "Str0ngEnough", attempt.Origin{})
	if err != nil {
		t.Fatal(err)
	}
	if err := h.svc.ChangeRole(ctx, "admin-1", acct.ID, accountdomain.RoleManager); err != nil {
		t.Fatal(err)
	}

	sess, err := h.svc.Resolve(ctx, token, h.now.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if sess.Role != accountdomain.RoleMember {
		t.Errorf("live session role = %v, want the member snapshot", sess.Role)
	}

	// A session issued after the change carries the new role.
	_, next, err := h.svc.Authenticate(ctx, "guest@example.com", "Str0ngEnough", attempt.Origin{})
	if err != nil {
		t.Fatal(err)
	}
	if next.Role != accountdomain.RoleManager {
		t.Errorf("new session role = %v, want manager", next.Role)
	}
}

func TestAuditNeverContainsPasswordMaterial(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	const password = "Sup3rSecretPW"

	h.register(t, "guest@example.com", password)
	_, _, _ = h.svc.Authenticate(ctx, "guest@example.com", "WrongGuess1", attempt.Origin{})
	if _, _, err := h.svc.Authenticate(ctx, "guest@example.com", password, attempt.Origin{}); err != nil {
		t.Fatal(err)
	}

	h.recorder.mu.Lock()
	defer h.recorder.mu.Unlock()
	for _, e := range h.recorder.entries {
		for k, v := range e.metadata {
			if strings.Contains(v, password) || strings.Contains(v, "WrongGuess1") {
				t.Errorf("audit entry %s metadata %s contains password material", e.action, k)
			}
		}
	}
}
