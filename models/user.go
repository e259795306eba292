package models

import (
	"fmt"
	"strings"
	"time"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// ParseUserStatus accepts any casing and surrounding whitespace.
func ParseUserStatus(s string) (UserStatus, error) {
	switch UserStatus(strings.ToLower(strings.TrimSpace(s))) {
	case UserStatusActive:
		return UserStatusActive, nil
	case UserStatusDisabled:
		return UserStatusDisabled, nil
	}
	return "", fmt.Errorf("invalid status %q; can be either 'active' or 'disabled'", s)
}

// User is an identity. Email is the stable handle carried in tokens.
type User struct {
	ID        uint       `gorm:"primaryKey"`
	Name      string     `gorm:"size:255;not null"`
	Email     string     `gorm:"size:255;uniqueIndex;not null"`
	Password  string     `gorm:"size:255;not null" json:"-"` // bcrypt hash
	Status    UserStatus `gorm:"size:16;not null;default:active"`
	RoleID    *uint      `gorm:"index"`
	Role      *Role      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
