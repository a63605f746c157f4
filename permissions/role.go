package permissions

import (
	"context"
	"messbook/shared/constant"
	"messbook/shared/failure"
)

// Role is the single authority for what a caller may do.
type Role string

const (
	RoleUser  Role = "user"
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleOwner, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// Principal is the authenticated caller, resolved once by the auth middleware.
type Principal struct {
	UserID string
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccessOrder covers viewing, confirming and cancelling: the booker, the listing owner or an admin.
func (p Principal) CanAccessOrder(orderUserID, listingOwnerID string) bool {
	if p.UserID == "" {
		return false
	}

	return p.IsAdmin() || p.UserID == orderUserID || (p.Role == RoleOwner && p.UserID == listingOwnerID)
}

// CanViewHistory allows a user their own history; "all" is admin only.
func (p Principal) CanViewHistory(userID string) bool {
	if p.IsAdmin() {
		return true
	}

	return userID != constant.All && userID != "" && userID == p.UserID
}

func (p Principal) CanCreateListing() bool {
	return p.Role == RoleOwner || p.IsAdmin()
}

func (p Principal) CanManageListing(listingOwnerID string) bool {
	return p.IsAdmin() || (p.Role == RoleOwner && p.UserID == listingOwnerID)
}

func (p Principal) CanChangeRoles() bool {
	return p.IsAdmin()
}

// PrincipalFromContext reads what the auth middleware stored on the request context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	if userID == "" || !Role(role).Valid() {
		return Principal{}, false
	}

	return Principal{UserID: userID, Role: Role(role)}, true
}

// RequirePrincipal is PrincipalFromContext for handlers that cannot serve anonymous callers.
func RequirePrincipal(ctx context.Context) (Principal, error) {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return Principal{}, failure.Unauthorized("authentication required")
	}

	return principal, nil
}

func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	ctx = context.WithValue(ctx, constant.ContextKeyUserID, principal.UserID)

	return context.WithValue(ctx, constant.ContextKeyUserRole, principal.Role.String())
}
