package services

import (
	"context"
	"time"

	"dsadmin/apperror"
	"dsadmin/models"
	"dsadmin/repositories"
)

// PermissionService exposes the seeded permission catalogue.
type PermissionService interface {
	ListPermissions(ctx context.Context) ([]models.Permission, error)
}

type PermissionResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type permissionService struct {
	permissions repositories.PermissionRepository
}

func NewPermissionService(permissions repositories.PermissionRepository) PermissionService {
	return &permissionService{permissions: permissions}
}

func (s *permissionService) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	perms, err := s.permissions.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal("Database error retrieving permissions.", err)
	}
	return perms, nil
}

func MapPermissionsToResponse(perms []models.Permission) []PermissionResponse {
	out := make([]PermissionResponse, len(perms))
	for i, p := range perms {
		out[i] = PermissionResponse{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
	}
	return out
}
