// Package domain holds the audit entry.
package domain

import "time"

// Entry is one immutable audit record. ActorID is empty for anonymous or
// system events. Metadata is a small JSON document giving enough context to
// reconstruct who did what, when, and why it was denied; it must never contain
// passwords or stored credential hashes.
type Entry struct {
	ID        string
	ActorID   string // empty when anonymous/system
	Action    string
	IP        string
	Metadata  string
	CreatedAt time.Time
}

// Action tags appended by the core. Collaborating surfaces filter on these.
const (
	ActionRegister         = "register"
	ActionLoginSuccess     = "login_success"
	ActionLoginFailure     = "login_failure"
	ActionAccountLocked    = "account_locked"
	ActionCredentialRehash = "credential_rehash"
	ActionSessionCreated   = "session_created"
	ActionSessionExpired   = "session_expired"
	ActionSessionRevoked   = "session_revoked"
	ActionPermissionDenied = "permission_denied"
	ActionRoleChanged      = "role_changed"
	ActionAccountDisabled  = "account_disabled"
	ActionAccountDeleted   = "account_deleted"
)
