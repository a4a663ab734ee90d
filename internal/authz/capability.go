// Package authz maps roles to capability sets and arbitrates every protected
// operation.
package authz

import (
	accountdomain "staybook/authcore/internal/account/domain"
)

// Capability is a named permission a role may hold. Collaborating surfaces
// check one before building any protected view or mutating anything.
type Capability string

const (
	CapBrowseListings    Capability = "browse_listings"
	CapReserveListing    Capability = "reserve_listing"
	CapManageOwnListings Capability = "manage_own_listings"
	CapViewOwnPayouts    Capability = "view_own_payouts"
	CapManageAccounts    Capability = "manage_accounts"
	CapViewAuditLog      Capability = "view_audit_log"
	CapAdjustSettings    Capability = "adjust_settings"
)

// roleCapabilities is the static role → capability table. Admin holds every
// capability; manager holds the manage-own-resources set; member can browse
// and reserve; anonymous is browse-only.
var roleCapabilities = map[accountdomain.Role][]Capability{
	accountdomain.RoleAdmin: {
		CapBrowseListings, CapReserveListing, CapManageOwnListings,
		CapViewOwnPayouts, CapManageAccounts, CapViewAuditLog, CapAdjustSettings,
	},
	accountdomain.RoleManager: {
		CapBrowseListings, CapReserveListing, CapManageOwnListings, CapViewOwnPayouts,
	},
	accountdomain.RoleMember: {
		CapBrowseListings, CapReserveListing,
	},
	accountdomain.RoleAnonymous: {
		CapBrowseListings,
	},
}

var roleCapabilitySet = buildCapabilitySet()

func buildCapabilitySet() map[accountdomain.Role]map[Capability]bool {
	set := make(map[accountdomain.Role]map[Capability]bool, len(roleCapabilities))
	for role, caps := range roleCapabilities {
		m := make(map[Capability]bool, len(caps))
		for _, c := range caps {
			m[c] = true
		}
		set[role] = m
	}
	return set
}

// RoleHas reports whether role holds capability.
func RoleHas(role accountdomain.Role, capability Capability) bool {
	return roleCapabilitySet[role][capability]
}
