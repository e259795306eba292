package auth

import (
	"context"
	"errors"
	"fmt"

	"dsadmin/apperror"
	"dsadmin/models"

	"gorm.io/gorm"
)

// RoleStore is the slice of role storage the resolver needs. FindByID must
// return the role with its linked permissions loaded.
type RoleStore interface {
	FindByID(ctx context.Context, id uint) (*models.Role, error)
}

// PermissionResolver expands an identity's single role to its permission set.
type PermissionResolver struct {
	roles RoleStore
}

func NewPermissionResolver(roles RoleStore) *PermissionResolver {
	return &PermissionResolver{roles: roles}
}

// Resolve returns the union of permissions linked to the user's current role.
// A user without a resolvable role is a data-integrity violation, never an
// empty set.
func (r *PermissionResolver) Resolve(ctx context.Context, user *models.User) (PermissionSet, error) {
	if user == nil {
		return nil, apperror.Integrity("Identity could not be resolved.", errors.New("nil user"))
	}
	if user.RoleID == nil {
		return nil, apperror.Integrity("Identity has no role.", fmt.Errorf("user %d has no role_id", user.ID))
	}
	role, err := r.roles.FindByID(ctx, *user.RoleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Integrity("Identity has no role.",
				fmt.Errorf("user %d references missing role %d", user.ID, *user.RoleID))
		}
		return nil, apperror.Internal("Could not load role.", err)
	}

	set := make(PermissionSet, len(role.Permissions))
	for _, p := range role.Permissions {
		set[p.Name] = struct{}{}
	}
	return set, nil
}
