package repositories

import (
	"context"

	"dsadmin/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleRepository covers roles and their role_has_permissions links.
type RoleRepository interface {
	Create(ctx context.Context, role *models.Role, permissionIDs []uint) error
	FindByID(ctx context.Context, id uint) (*models.Role, error)
	FindByName(ctx context.Context, name string) (*models.Role, error)
	FindAll(ctx context.Context) ([]models.Role, error)
	Rename(ctx context.Context, role *models.Role, name string) error
	Delete(ctx context.Context, role *models.Role) error

	AddPermissions(ctx context.Context, roleID uint, permissionIDs []uint) error
	RemovePermissions(ctx context.Context, roleID uint, permissionIDs []uint) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

// Create inserts the role and its links in one transaction.
func (r *roleRepository) Create(ctx context.Context, role *models.Role, permissionIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Permissions").Create(role).Error; err != nil {
			return err
		}
		return insertLinks(tx, role.ID, permissionIDs)
	})
}

func (r *roleRepository) FindByID(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Preload("Permissions", orderByID).First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindAll(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.WithContext(ctx).Preload("Permissions", orderByID).Order("id").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) Rename(ctx context.Context, role *models.Role, name string) error {
	if err := r.db.WithContext(ctx).Model(role).Update("name", name).Error; err != nil {
		return err
	}
	role.Name = name
	return nil
}

// Delete removes the role's links first so no dangling grants survive it.
func (r *roleRepository) Delete(ctx context.Context, role *models.Role) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(role).Error
	})
}

// AddPermissions links the given permissions, leaving existing links untouched.
func (r *roleRepository) AddPermissions(ctx context.Context, roleID uint, permissionIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertLinks(tx, roleID, permissionIDs)
	})
}

func (r *roleRepository) RemovePermissions(ctx context.Context, roleID uint, permissionIDs []uint) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("role_id = ? AND permission_id IN ?", roleID, permissionIDs).
		Delete(&models.RolePermission{}).Error
}

func insertLinks(tx *gorm.DB, roleID uint, permissionIDs []uint) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	links := make([]models.RolePermission, 0, len(permissionIDs))
	seen := make(map[uint]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		links = append(links, models.RolePermission{RoleID: roleID, PermissionID: id})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("permissions.id")
}
