package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BoxFilter narrows box listings. Zero values mean "no filter".
type BoxFilter struct {
	Status    string
	Type      string
	ContactID *uuid.UUID
	Page      int
	Limit     int
}

type BoxRepository interface {
	Create(ctx context.Context, box *model.Box) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Box, error)
	FindByIDWithDocuments(ctx context.Context, orgID, id uuid.UUID) (*model.Box, error)
	List(ctx context.Context, orgID uuid.UUID, filter BoxFilter) ([]model.Box, int64, error)
	Update(ctx context.Context, box *model.Box) error
	// UpdateStatusVersioned applies a guarded status write: it succeeds only
	// when the stored version still matches expectedVersion, bumping the
	// version on success. Returns the number of rows changed (0 = stale).
	UpdateStatusVersioned(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]interface{}) (int64, error)
	Delete(ctx context.Context, box *model.Box) error
	CountDocuments(ctx context.Context, boxID uuid.UUID) (int64, error)
	// FindDuplicateCandidates fetches the org's boxes sharing the exact total
	// amount with doc dates inside the window. Backed by idx_box_dup.
	FindDuplicateCandidates(ctx context.Context, orgID uuid.UUID, total decimal.Decimal, docDate time.Time, windowDays int) ([]model.Box, error)
	ListCompletedInRange(ctx context.Context, orgID uuid.UUID, start, end time.Time) ([]model.Box, error)
}

type boxRepository struct {
	db *gorm.DB
}

func NewBoxRepository(db *gorm.DB) BoxRepository {
	return &boxRepository{db: db}
}

func (r *boxRepository) Create(ctx context.Context, box *model.Box) error {
	return GetDB(ctx, r.db).Create(box).Error
}

func (r *boxRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Box, error) {
	var box model.Box
	err := GetDB(ctx, r.db).Preload("Contact").
		First(&box, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &box, nil
}

func (r *boxRepository) FindByIDWithDocuments(ctx context.Context, orgID, id uuid.UUID) (*model.Box, error) {
	var box model.Box
	err := GetDB(ctx, r.db).
		Preload("Contact").
		Preload("Documents").
		Preload("Documents.SubDocuments").
		First(&box, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &box, nil
}

func (r *boxRepository) List(ctx context.Context, orgID uuid.UUID, filter BoxFilter) ([]model.Box, int64, error) {
	db := GetDB(ctx, r.db)

	query := db.Model(&model.Box{}).Where("organization_id = ?", orgID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.ContactID != nil {
		query = query.Where("contact_id = ?", *filter.ContactID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var boxes []model.Box
	offset := (filter.Page - 1) * filter.Limit
	if err := query.Preload("Contact").
		Order("doc_date DESC, created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&boxes).Error; err != nil {
		return nil, 0, err
	}

	return boxes, total, nil
}

func (r *boxRepository) Update(ctx context.Context, box *model.Box) error {
	return GetDB(ctx, r.db).Save(box).Error
}

func (r *boxRepository) UpdateStatusVersioned(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]interface{}) (int64, error) {
	updates["version"] = gorm.Expr("version + 1")
	result := GetDB(ctx, r.db).Model(&model.Box{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *boxRepository) Delete(ctx context.Context, box *model.Box) error {
	return GetDB(ctx, r.db).Delete(box).Error
}

func (r *boxRepository) CountDocuments(ctx context.Context, boxID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Document{}).
		Where("box_id = ?", boxID).Count(&count).Error
	return count, err
}

func (r *boxRepository) FindDuplicateCandidates(ctx context.Context, orgID uuid.UUID, total decimal.Decimal, docDate time.Time, windowDays int) ([]model.Box, error) {
	var boxes []model.Box
	from := docDate.AddDate(0, 0, -windowDays)
	to := docDate.AddDate(0, 0, windowDays)

	err := GetDB(ctx, r.db).
		Where("organization_id = ? AND total_amount = ? AND doc_date BETWEEN ? AND ?",
			orgID, total, from, to).
		Find(&boxes).Error
	return boxes, err
}

func (r *boxRepository) ListCompletedInRange(ctx context.Context, orgID uuid.UUID, start, end time.Time) ([]model.Box, error) {
	var boxes []model.Box
	err := GetDB(ctx, r.db).
		Preload("Contact").
		Preload("Documents").
		Where("organization_id = ? AND status = ? AND doc_date >= ? AND doc_date <= ?",
			orgID, model.BoxStatusCompleted, start, end).
		Order("doc_date ASC").
		Find(&boxes).Error
	return boxes, err
}
