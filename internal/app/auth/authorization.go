// Package auth holds the authorization predicates shared by middleware and services.
package auth

import (
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID   int64
	Username string
	Role     models.RoleType
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role.IsAdmin()
}

// Authenticated reports whether the principal carries an identity.
func (p Principal) Authenticated() bool {
	return p.UserID > 0
}

// RequireAuthenticated rejects anonymous principals.
func RequireAuthenticated(p Principal) error {
	if !p.Authenticated() {
		return apperrors.ErrUnauthorized
	}
	return nil
}

// RequireAdmin rejects principals that are not administrators.
func RequireAdmin(p Principal) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return apperrors.NewForbiddenError("administrator role required")
	}
	return nil
}

// RequireOwner rejects principals other than the owner of a resource.
func RequireOwner(p Principal, ownerID int64) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.UserID != ownerID {
		return apperrors.NewForbiddenError("you do not own this resource")
	}
	return nil
}

// RequireOwnerOrAdmin lets the owner or any administrator through.
func RequireOwnerOrAdmin(p Principal, ownerID int64) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.IsAdmin() || p.UserID == ownerID {
		return nil
	}
	return apperrors.NewForbiddenError("you do not have access to this resource")
}
