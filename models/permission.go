package models

import "time"

// Permission is an atomic named capability, e.g. "read_user" or "delete_data_source".
type Permission struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;uniqueIndex;not null"`
	Roles     []Role `gorm:"many2many:role_has_permissions;" json:"-"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
