package models

// RolePermission is the join row between Role and Permission. Its existence is
// the grant; the composite primary key forbids duplicate pairs.
type RolePermission struct {
	RoleID       uint `gorm:"primaryKey;autoIncrement:false"`
	PermissionID uint `gorm:"primaryKey;autoIncrement:false"`
}

func (RolePermission) TableName() string {
	return "role_has_permissions"
}
