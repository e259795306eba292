package repositories

import (
	"context"

	"dsadmin/models"

	"gorm.io/gorm"
)

type DataSourceRepository interface {
	Create(ctx context.Context, ds *models.DataSource) error
	FindByID(ctx context.Context, id uint) (*models.DataSource, error)
	FindByName(ctx context.Context, name string) (*models.DataSource, error)
	FindAll(ctx context.Context) ([]models.DataSource, error)
	Update(ctx context.Context, ds *models.DataSource) error
	Delete(ctx context.Context, ds *models.DataSource) error
}

type dataSourceRepository struct {
	db *gorm.DB
}

func NewDataSourceRepository(db *gorm.DB) DataSourceRepository {
	return &dataSourceRepository{db: db}
}

func (r *dataSourceRepository) Create(ctx context.Context, ds *models.DataSource) error {
	return r.db.WithContext(ctx).Omit("CreatedBy").Create(ds).Error
}

func (r *dataSourceRepository) FindByID(ctx context.Context, id uint) (*models.DataSource, error) {
	var ds models.DataSource
	if err := r.db.WithContext(ctx).First(&ds, id).Error; err != nil {
		return nil, err
	}
	return &ds, nil
}

func (r *dataSourceRepository) FindByName(ctx context.Context, name string) (*models.DataSource, error) {
	var ds models.DataSource
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&ds).Error; err != nil {
		return nil, err
	}
	return &ds, nil
}

func (r *dataSourceRepository) FindAll(ctx context.Context) ([]models.DataSource, error) {
	var list []models.DataSource
	if err := r.db.WithContext(ctx).Order("id").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *dataSourceRepository) Update(ctx context.Context, ds *models.DataSource) error {
	return r.db.WithContext(ctx).Omit("CreatedBy").Save(ds).Error
}

func (r *dataSourceRepository) Delete(ctx context.Context, ds *models.DataSource) error {
	return r.db.WithContext(ctx).Delete(ds).Error
}
