package models

import (
	"fmt"
	"strings"
	"time"
)

type SourceType string

const (
	SourceTypeGrafana SourceType = "grafana"
	SourceTypeKibana  SourceType = "kibana"
)

// ParseSourceType matches case-insensitively, so "Grafana" and "KIBANA" are accepted.
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(strings.ToLower(strings.TrimSpace(s))) {
	case SourceTypeGrafana:
		return SourceTypeGrafana, nil
	case SourceTypeKibana:
		return SourceTypeKibana, nil
	}
	return "", fmt.Errorf("invalid data source type %q; can be either 'grafana' or 'kibana'", s)
}

// DataSource is a monitoring backend administered through this service.
type DataSource struct {
	ID          uint       `gorm:"primaryKey"`
	Type        SourceType `gorm:"size:16;not null"`
	Name        string     `gorm:"size:255;uniqueIndex;not null"`
	Description *string
	Status      *string `gorm:"size:64"`
	CreatedByID *uint   `gorm:"index"`
	CreatedBy   *User   `gorm:"constraint:OnDelete:SET NULL;" json:"-"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
