package repositories

import (
	"context"

	"dsadmin/models"

	"gorm.io/gorm"
)

// PermissionRepository is read-only: permissions are created by seeding.
type PermissionRepository interface {
	FindAll(ctx context.Context) ([]models.Permission, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Permission, error)
}

type permissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) FindAll(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	if err := r.db.WithContext(ctx).Order("id").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *permissionRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Permission, error) {
	var perms []models.Permission
	if len(ids) == 0 {
		return perms, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}
