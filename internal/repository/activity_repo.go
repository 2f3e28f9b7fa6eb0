package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	Log(ctx context.Context, entry *model.ActivityLog) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID, page, limit int) ([]model.ActivityLog, int64, error)
	ListByBox(ctx context.Context, orgID, boxID uuid.UUID, page, limit int) ([]model.ActivityLog, int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Log(ctx context.Context, entry *model.ActivityLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *activityRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, page, limit int) ([]model.ActivityLog, int64, error) {
	return r.list(ctx, GetDB(ctx, r.db).Where("organization_id = ?", orgID), page, limit)
}

func (r *activityRepository) ListByBox(ctx context.Context, orgID, boxID uuid.UUID, page, limit int) ([]model.ActivityLog, int64, error) {
	return r.list(ctx, GetDB(ctx, r.db).Where("organization_id = ? AND box_id = ?", orgID, boxID), page, limit)
}

func (r *activityRepository) list(ctx context.Context, query *gorm.DB, page, limit int) ([]model.ActivityLog, int64, error) {
	var total int64
	if err := query.Model(&model.ActivityLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []model.ActivityLog
	offset := (page - 1) * limit
	if err := query.Preload("User").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
