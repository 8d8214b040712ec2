package repository

import (
	"context"
	"errors"
	"fmt"

	"kredit-api/models"

	"gorm.io/gorm"
)

type GormApplicationRepo struct {
	DB *gorm.DB
}

func NewGormApplicationRepo(db *gorm.DB) *GormApplicationRepo {
	return &GormApplicationRepo{DB: db}
}

func (r *GormApplicationRepo) Create(ctx context.Context, app *models.Application) error {
	if err := r.DB.WithContext(ctx).Omit("Owner").Create(app).Error; err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (r *GormApplicationRepo) FindByID(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application
	err := r.DB.WithContext(ctx).Preload("Owner").Where("id = ?", id).First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return &app, nil
}

func (r *GormApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	apps := []models.Application{}
	err := r.scoped(ctx, filter).
		Preload("Owner").
		Order("created_at desc").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

func (r *GormApplicationRepo) UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) error {
	fields := map[string]interface{}{
		"status":     update.Status,
		"notes":      update.Notes,
		"updated_at": update.UpdatedAt,
	}
	if update.ReviewedBy != nil {
		fields["reviewed_by"] = *update.ReviewedBy
	}
	if update.ApprovedBy != nil {
		fields["approved_by"] = *update.ApprovedBy
	}

	result := r.DB.WithContext(ctx).Model(&models.Application{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update application status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormApplicationRepo) CountByStatus(ctx context.Context, filter models.ApplicationFilter) (models.Stats, error) {
	var rows []struct {
		Status models.ApplicationStatus
		Count  int64
	}
	var stats models.Stats
	err := r.scoped(ctx, filter).
		Model(&models.Application{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return stats, fmt.Errorf("count applications: %w", err)
	}
	for _, row := range rows {
		stats.Add(row.Status, row.Count)
	}
	return stats, nil
}

func (r *GormApplicationRepo) scoped(ctx context.Context, filter models.ApplicationFilter) *gorm.DB {
	query := r.DB.WithContext(ctx)
	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return query
}
