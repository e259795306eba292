package models

import "time"

type Role struct {
	ID          uint         `gorm:"primaryKey"`
	Name        string       `gorm:"size:255;uniqueIndex;not null"`
	Permissions []Permission `gorm:"many2many:role_has_permissions;"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
