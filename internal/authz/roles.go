// Package authz holds the closed role set and the capability table.
// Everything here is pure: predicates take a role and answer a
// yes/no question, with no I/O.
package authz

import "fmt"

// Role is one of the eight publishing staff roles. Raw strings from
// webhook payloads and token claims enter only through ParseRole.
type Role string

const (
	RolePublisherOwner      Role = "publisher_owner"
	RoleManagingEditor      Role = "managing_editor"
	RoleProductionStaff     Role = "production_staff"
	RoleSalesMarketing      Role = "sales_marketing"
	RoleWarehouseOperations Role = "warehouse_operations"
	RoleAccounting          Role = "accounting"
	RoleAuthor              Role = "author"
	RoleIllustrator         Role = "illustrator"
)

var allRoles = map[Role]bool{
	RolePublisherOwner:      true,
	RoleManagingEditor:      true,
	RoleProductionStaff:     true,
	RoleSalesMarketing:      true,
	RoleWarehouseOperations: true,
	RoleAccounting:          true,
	RoleAuthor:              true,
	RoleIllustrator:         true,
}

// ParseRole validates a raw role string at the boundary.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !allRoles[r] {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Roles returns the closed role set.
func Roles() []Role {
	return []Role{
		RolePublisherOwner,
		RoleManagingEditor,
		RoleProductionStaff,
		RoleSalesMarketing,
		RoleWarehouseOperations,
		RoleAccounting,
		RoleAuthor,
		RoleIllustrator,
	}
}

// The owner holds every capability; the checks below spell out the rest.

// CanInviteUsers reports whether the role may invite new members.
// Invitation is owner-only.
func CanInviteUsers(r Role) bool {
	return r == RolePublisherOwner
}

// CanManageTenantSettings reports whether the role may change branding
// and locale settings.
func CanManageTenantSettings(r Role) bool {
	return r == RolePublisherOwner
}

// CanViewFinancials covers royalty statements, invoices and P&L views.
func CanViewFinancials(r Role) bool {
	return r == RolePublisherOwner || r == RoleAccounting
}

// CanEditTitles covers the title catalog and production metadata.
func CanEditTitles(r Role) bool {
	switch r {
	case RolePublisherOwner, RoleManagingEditor, RoleProductionStaff:
		return true
	}
	return false
}

// CanEditCustomers covers bookstore and distributor accounts.
func CanEditCustomers(r Role) bool {
	switch r {
	case RolePublisherOwner, RoleSalesMarketing:
		return true
	}
	return false
}

// CanFulfillOrders covers picking, packing and shipment confirmation.
func CanFulfillOrders(r Role) bool {
	switch r {
	case RolePublisherOwner, RoleWarehouseOperations:
		return true
	}
	return false
}

// CanManageInventory covers stock adjustments and reprint triggers.
func CanManageInventory(r Role) bool {
	switch r {
	case RolePublisherOwner, RoleWarehouseOperations, RoleProductionStaff:
		return true
	}
	return false
}

// CanManageContributors covers author and illustrator records and
// contract terms.
func CanManageContributors(r Role) bool {
	switch r {
	case RolePublisherOwner, RoleManagingEditor:
		return true
	}
	return false
}

// CanViewAllTitles is false for contributors, who see only their own
// works and statements.
func CanViewAllTitles(r Role) bool {
	switch r {
	case RoleAuthor, RoleIllustrator:
		return false
	}
	return true
}

// SelfScopedOnly reports whether the role is restricted to records
// linked to the member's own contributor profile.
func SelfScopedOnly(r Role) bool {
	return r == RoleAuthor || r == RoleIllustrator
}
