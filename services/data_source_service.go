package services

import (
	"context"
	"strings"
	"time"

	"dsadmin/apperror"
	"dsadmin/models"
	"dsadmin/repositories"
)

type DataSourceService interface {
	ListDataSources(ctx context.Context) ([]models.DataSource, error)
	GetDataSource(ctx context.Context, id uint) (*models.DataSource, error)
	CreateDataSource(ctx context.Context, input *CreateDataSourceInput, createdByID uint) (*models.DataSource, error)
	UpdateDataSource(ctx context.Context, id uint, input *UpdateDataSourceInput) (*models.DataSource, error)
	DeleteDataSource(ctx context.Context, id uint) error
}

type CreateDataSourceInput struct {
	Type        string  `json:"type" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type UpdateDataSourceInput struct {
	Type        *string `json:"type"`
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type DataSourceResponse struct {
	ID          uint      `json:"id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Status      *string   `json:"status"`
	CreatedByID *uint     `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type dataSourceService struct {
	sources repositories.DataSourceRepository
}

var _ DataSourceService = (*dataSourceService)(nil)

func NewDataSourceService(sources repositories.DataSourceRepository) DataSourceService {
	return &dataSourceService{sources: sources}
}

const dataSourceNameTaken = "Data source name already in use"

func (s *dataSourceService) ListDataSources(ctx context.Context) ([]models.DataSource, error) {
	list, err := s.sources.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal("Database error retrieving data sources.", err)
	}
	return list, nil
}

func (s *dataSourceService) GetDataSource(ctx context.Context, id uint) (*models.DataSource, error) {
	ds, err := s.sources.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Data source not found")
	}
	return ds, nil
}

func (s *dataSourceService) CreateDataSource(ctx context.Context, input *CreateDataSourceInput, createdByID uint) (*models.DataSource, error) {
	sourceType, err := models.ParseSourceType(input.Type)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}
	name := strings.TrimSpace(input.Name)
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	ds := models.DataSource{
		Type:        sourceType,
		Name:        name,
		Description: input.Description,
		Status:      input.Status,
	}
	if createdByID != 0 {
		ds.CreatedByID = &createdByID
	}
	if err := s.sources.Create(ctx, &ds); err != nil {
		return nil, writeError(err, dataSourceNameTaken)
	}
	return &ds, nil
}

func (s *dataSourceService) UpdateDataSource(ctx context.Context, id uint, input *UpdateDataSourceInput) (*models.DataSource, error) {
	ds, err := s.GetDataSource(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if err := s.ensureNameFree(ctx, name, ds.ID); err != nil {
			return nil, err
		}
		ds.Name = name
	}
	if input.Type != nil {
		sourceType, err := models.ParseSourceType(*input.Type)
		if err != nil {
			return nil, apperror.Validation(err.Error())
		}
		ds.Type = sourceType
	}
	if input.Description != nil {
		ds.Description = input.Description
	}
	if input.Status != nil {
		ds.Status = input.Status
	}

	if err := s.sources.Update(ctx, ds); err != nil {
		return nil, writeError(err, dataSourceNameTaken)
	}
	return ds, nil
}

func (s *dataSourceService) DeleteDataSource(ctx context.Context, id uint) error {
	ds, err := s.GetDataSource(ctx, id)
	if err != nil {
		return err
	}
	if err := s.sources.Delete(ctx, ds); err != nil {
		return apperror.Internal("Failed to delete data source.", err)
	}
	return nil
}

func (s *dataSourceService) ensureNameFree(ctx context.Context, name string, selfID uint) error {
	other, err := s.sources.FindByName(ctx, name)
	found, err := exists(err)
	if err != nil {
		return err
	}
	if found && other.ID != selfID {
		return apperror.Conflict(dataSourceNameTaken)
	}
	return nil
}

func MapDataSourceToResponse(ds *models.DataSource) DataSourceResponse {
	if ds == nil {
		return DataSourceResponse{}
	}
	return DataSourceResponse{
		ID:          ds.ID,
		Type:        string(ds.Type),
		Name:        ds.Name,
		Description: ds.Description,
		Status:      ds.Status,
		CreatedByID: ds.CreatedByID,
		CreatedAt:   ds.CreatedAt,
		UpdatedAt:   ds.UpdatedAt,
	}
}

func MapDataSourcesToResponse(list []models.DataSource) []DataSourceResponse {
	out := make([]DataSourceResponse, len(list))
	for i := range list {
		out[i] = MapDataSourceToResponse(&list[i])
	}
	return out
}
