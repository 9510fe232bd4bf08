package domain

import "github.com/google/uuid"

// Roles carried in access tokens.
const (
	RoleBrand         = "BRAND"
	RolePlatformAdmin = "PLATFORM_ADMIN"
	RoleBusiness      = "BUSINESS"
)

// StaffAccess is the stored permission set of a staff member.
type StaffAccess struct {
	IsIndependent bool
	CanViewOthers bool
}

// VisibilityPolicy decides whose collaborations a caller may see. It is computed once per
// request and handed to every list or aggregate query, which turns it into a SQL predicate.
type VisibilityPolicy struct {
	ownerOnly *uuid.UUID
}

// SeeAll returns a policy without restriction.
func SeeAll() VisibilityPolicy {
	return VisibilityPolicy{}
}

// OwnOnly restricts visibility to collaborations owned by staffID.
func OwnOnly(staffID uuid.UUID) VisibilityPolicy {
	id := staffID
	return VisibilityPolicy{ownerOnly: &id}
}

// NewVisibilityPolicy derives the policy from the caller's roles and stored permissions.
// Brand owners and platform admins see everything; business staff see their own rows
// unless they work independently or were granted the view-others permission.
func NewVisibilityPolicy(userID uuid.UUID, roles []string, access StaffAccess) VisibilityPolicy {
	for _, role := range roles {
		if role == RoleBrand || role == RolePlatformAdmin {
			return SeeAll()
		}
	}
	if access.IsIndependent || access.CanViewOthers {
		return SeeAll()
	}
	return OwnOnly(userID)
}

// Restricted reports whether the policy narrows results to one staff member.
func (p VisibilityPolicy) Restricted() bool {
	return p.ownerOnly != nil
}

// CanSee reports whether a collaboration owned by staffID is visible.
func (p VisibilityPolicy) CanSee(staffID uuid.UUID) bool {
	return p.ownerOnly == nil || *p.ownerOnly == staffID
}

// StaffScope combines an optional staff filter requested by the caller with the policy.
// It returns the staff id to filter on (nil for none) and false when the combination
// cannot match anything, e.g. restricted staff asking for a colleague's rows.
func (p VisibilityPolicy) StaffScope(requested *uuid.UUID) (*uuid.UUID, bool) {
	if p.ownerOnly == nil {
		return requested, true
	}
	if requested != nil && *requested != *p.ownerOnly {
		return nil, false
	}
	id := *p.ownerOnly
	return &id, true
}
