// Package authz decides whether a principal may act on a resource.
package authz

import (
	customErrors "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/model"
)

// Owned is implemented by resources that belong to exactly one user.
type Owned interface {
	OwnerID() uint64
}

// CanActOnNote allows only the owner. Callers load the note first so that a missing note
// is reported as not found before ownership is considered.
func CanActOnNote(p model.Principal, note Owned) error {
	if p.UserID == 0 {
		return customErrors.ErrInvalidToken
	}
	if note.OwnerID() != p.UserID {
		return customErrors.NewForbidden("You do not have permission to access this note")
	}
	return nil
}

// HasAnyRole is satisfied when the principal holds at least one of roles.
func HasAnyRole(p model.Principal, roles ...string) error {
	for _, r := range roles {
		if p.HasRole(r) {
			return nil
		}
	}
	return customErrors.NewForbidden("Access denied")
}
