package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dsadmin/apperror"
	"dsadmin/models"
	"dsadmin/repositories"
)

// RoleService manages roles and their permission links. Changes take effect
// on the next request of every user holding the role.
type RoleService interface {
	ListRoles(ctx context.Context) ([]models.Role, error)
	GetRole(ctx context.Context, id uint) (*models.Role, error)
	CreateRole(ctx context.Context, input *CreateRoleInput) (*models.Role, error)
	RenameRole(ctx context.Context, id uint, input *RenameRoleInput) (*models.Role, error)
	DeleteRole(ctx context.Context, id uint) error
	AssignPermissions(ctx context.Context, id uint, input *PermissionIDsInput) (*models.Role, error)
	RemovePermissions(ctx context.Context, id uint, input *PermissionIDsInput) (*models.Role, error)
}

type CreateRoleInput struct {
	Name          string `json:"name" validate:"required"`
	PermissionIDs []uint `json:"permission_ids"`
}

type RenameRoleInput struct {
	Name string `json:"name" validate:"required"`
}

type PermissionIDsInput struct {
	PermissionIDs []uint `json:"permission_ids" validate:"required,min=1"`
}

type RoleResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type roleService struct {
	roles       repositories.RoleRepository
	permissions repositories.PermissionRepository
	users       repositories.UserRepository
}

var _ RoleService = (*roleService)(nil)

func NewRoleService(roles repositories.RoleRepository, permissions repositories.PermissionRepository, users repositories.UserRepository) RoleService {
	return &roleService{roles: roles, permissions: permissions, users: users}
}

var errUnknownPermissions = apperror.BadRequest("One or more permissions do not exist")

func (s *roleService) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.roles.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal("Database error retrieving roles.", err)
	}
	return roles, nil
}

func (s *roleService) GetRole(ctx context.Context, id uint) (*models.Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, fmt.Sprintf("Role with ID %d not found", id))
	}
	return role, nil
}

func (s *roleService) CreateRole(ctx context.Context, input *CreateRoleInput) (*models.Role, error) {
	name := strings.TrimSpace(input.Name)
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}
	ids, err := s.existingPermissionIDs(ctx, input.PermissionIDs)
	if err != nil {
		return nil, err
	}

	role := models.Role{Name: name}
	if err := s.roles.Create(ctx, &role, ids); err != nil {
		return nil, writeError(err, "Role with this name already exists")
	}
	return s.GetRole(ctx, role.ID)
}

func (s *roleService) RenameRole(ctx context.Context, id uint, input *RenameRoleInput) (*models.Role, error) {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == role.Name {
		return role, nil
	}
	if err := s.ensureNameFree(ctx, name, role.ID); err != nil {
		return nil, err
	}
	if err := s.roles.Rename(ctx, role, name); err != nil {
		return nil, writeError(err, "Role with this name already exists")
	}
	return s.GetRole(ctx, role.ID)
}

// DeleteRole refuses while any user still holds the role, since every user
// must keep a resolvable role.
func (s *roleService) DeleteRole(ctx context.Context, id uint) error {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.users.CountByRoleID(ctx, role.ID)
	if err != nil {
		return apperror.Internal("Database error.", err)
	}
	if n > 0 {
		return apperror.BadRequest(fmt.Sprintf("Role is still assigned to %d user(s)", n))
	}
	if err := s.roles.Delete(ctx, role); err != nil {
		return apperror.Internal("Failed to delete role.", err)
	}
	return nil
}

// AssignPermissions links the given permissions; already linked ones are skipped.
func (s *roleService) AssignPermissions(ctx context.Context, id uint, input *PermissionIDsInput) (*models.Role, error) {
	role, err := s.findRoleForLinks(ctx, id)
	if err != nil {
		return nil, err
	}
	ids, err := s.existingPermissionIDs(ctx, input.PermissionIDs)
	if err != nil {
		return nil, err
	}
	if err := s.roles.AddPermissions(ctx, role.ID, ids); err != nil {
		return nil, apperror.Internal("Failed to assign permissions.", err)
	}
	return s.GetRole(ctx, role.ID)
}

// RemovePermissions unlinks the given permissions; ids not linked are ignored.
func (s *roleService) RemovePermissions(ctx context.Context, id uint, input *PermissionIDsInput) (*models.Role, error) {
	role, err := s.findRoleForLinks(ctx, id)
	if err != nil {
		return nil, err
	}
	ids, err := s.existingPermissionIDs(ctx, input.PermissionIDs)
	if err != nil {
		return nil, err
	}
	if err := s.roles.RemovePermissions(ctx, role.ID, ids); err != nil {
		return nil, apperror.Internal("Failed to remove permissions.", err)
	}
	return s.GetRole(ctx, role.ID)
}

func (s *roleService) findRoleForLinks(ctx context.Context, id uint) (*models.Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Role not found")
	}
	return role, nil
}

func (s *roleService) ensureNameFree(ctx context.Context, name string, selfID uint) error {
	other, err := s.roles.FindByName(ctx, name)
	found, err := exists(err)
	if err != nil {
		return err
	}
	if found && other.ID != selfID {
		return apperror.Conflict("Role with this name already exists")
	}
	return nil
}

// existingPermissionIDs dedupes ids and fails unless every one exists.
func (s *roleService) existingPermissionIDs(ctx context.Context, ids []uint) ([]uint, error) {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return ids, nil
	}
	perms, err := s.permissions.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Internal("Database error.", err)
	}
	if len(perms) != len(ids) {
		return nil, errUnknownPermissions
	}
	return ids, nil
}

func MapRoleToResponse(role *models.Role) RoleResponse {
	if role == nil {
		return RoleResponse{}
	}
	return RoleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Permissions: MapPermissionsToResponse(role.Permissions),
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
}

func MapRolesToResponse(roles []models.Role) []RoleResponse {
	out := make([]RoleResponse, len(roles))
	for i := range roles {
		out[i] = MapRoleToResponse(&roles[i])
	}
	return out
}
