package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dsadmin/auth"
	"dsadmin/config"
	"dsadmin/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB connects to the configured database, migrates the schema and, when
// enabled, seeds the default permissions, roles and admin user.
func InitDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.Database.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(log, cfg.Database.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database connection successful and migrations complete")

	if cfg.Seed.Enabled {
		if err := SeedInitialData(db, cfg.Seed, log); err != nil {
			return nil, fmt.Errorf("failed to seed database: %w", err)
		}
	}
	return db, nil
}

// NewGormLogger routes gorm's SQL logging through zap.
func NewGormLogger(log *zap.Logger, level string) logger.Interface {
	lvl := logger.Warn
	switch strings.ToLower(level) {
	case "silent":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info":
		lvl = logger.Info
	}
	return logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  lvl,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)
}

// Migrate creates or updates every table, including the explicit role/permission join.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Role{}, "Permissions", &models.RolePermission{}); err != nil {
		return fmt.Errorf("failed to set up role_has_permissions join table: %w", err)
	}
	if err := db.SetupJoinTable(&models.Permission{}, "Roles", &models.RolePermission{}); err != nil {
		return fmt.Errorf("failed to set up role_has_permissions join table: %w", err)
	}
	err := db.AutoMigrate(
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.User{},
		&models.DataSource{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// DefaultPermissions is the full capability catalogue granted to the admin role.
var DefaultPermissions = []string{
	"create_user",
	"read_user",
	"update_user",
	"delete_user",
	"read_role",
	"create_role",
	"delete_role",
	"rename_role",
	"assign_permissions",
	"remove_permissions",
	"read_permission",
	"create_data_source",
	"read_data_source",
	"update_data_source",
	"delete_data_source",
	"create_kibana_source",
	"read_kibana_source",
	"update_kibana_source",
	"delete_kibana_source",
	"create_grafana_source",
	"read_grafana_source",
	"update_grafana_source",
	"delete_grafana_source",
}

const (
	AdminRole  = "admin"
	EditorRole = "editor"
)

// SeedInitialData is idempotent: existing rows are kept and only missing
// permissions, roles, links and the admin user are added.
func SeedInitialData(db *gorm.DB, seed config.SeedConfig, log *zap.Logger) error {
	return db.Transaction(func(tx *gorm.DB) error {
		perms := make([]models.Permission, 0, len(DefaultPermissions))
		for _, name := range DefaultPermissions {
			p := models.Permission{Name: name}
			if err := tx.Where(models.Permission{Name: name}).FirstOrCreate(&p).Error; err != nil {
				return fmt.Errorf("seed permission %s: %w", name, err)
			}
			perms = append(perms, p)
		}

		roles := []struct {
			Name        string
			Permissions []models.Permission
		}{
			{Name: AdminRole, Permissions: perms},
			{Name: EditorRole},
		}

		var admin models.Role
		for _, rData := range roles {
			role := models.Role{Name: rData.Name}
			if err := tx.Where(models.Role{Name: rData.Name}).FirstOrCreate(&role).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", rData.Name, err)
			}
			for _, p := range rData.Permissions {
				link := models.RolePermission{RoleID: role.ID, PermissionID: p.ID}
				if err := tx.Where(link).FirstOrCreate(&link).Error; err != nil {
					return fmt.Errorf("seed link %s/%s: %w", role.Name, p.Name, err)
				}
			}
			if role.Name == AdminRole {
				admin = role
			}
		}

		if seed.AdminEmail == "" {
			return nil
		}
		var existing models.User
		err := tx.Where("email = ?", seed.AdminEmail).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := auth.HashPassword(seed.AdminPassword)
		if err != nil {
			return err
		}
		user := models.User{
			Name:     seed.AdminName,
			Email:    seed.AdminEmail,
			Password: hash,
			Status:   models.UserStatusActive,
			RoleID:   &admin.ID,
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("seed admin user: %w", err)
		}
		log.Info("created initial admin user", zap.String("email", user.Email))
		return nil
	})
}
