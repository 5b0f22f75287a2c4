// Package policy centralizes the role and ownership checks applied to
// authenticated requests.
package policy

import (
	"github.com/google/uuid"

	"github.com/eventstudio/eventstudio-api/internal/apperr"
	"github.com/eventstudio/eventstudio-api/internal/models"
)

// Require fails with AccessDenied unless principal holds role. Admins
// satisfy every role.
func Require(principal *models.User, role models.Role) error {
	if principal == nil {
		return apperr.Auth("Access denied. No token provided.")
	}
	if principal.Role == role || principal.IsAdmin() {
		return nil
	}
	return apperr.AccessDenied("Access denied")
}

// RequireAdmin is Require(principal, models.RoleAdmin).
func RequireAdmin(principal *models.User) error {
	return Require(principal, models.RoleAdmin)
}

// OwnerOrAdmin fails with AccessDenied unless principal is ownerID or an admin.
func OwnerOrAdmin(principal *models.User, ownerID uuid.UUID, msg string) error {
	if principal == nil {
		return apperr.Auth("Access denied. No token provided.")
	}
	if principal.ID == ownerID || principal.IsAdmin() {
		return nil
	}
	return apperr.AccessDenied(msg)
}
