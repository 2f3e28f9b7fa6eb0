package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Document, error)
	ListByBox(ctx context.Context, boxID uuid.UUID) ([]model.Document, error)
	Update(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, doc *model.Document) error
	CreateSubDocument(ctx context.Context, sub *model.SubDocument) error
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *documentRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	err := GetDB(ctx, r.db).Preload("SubDocuments").
		First(&doc, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) ListByBox(ctx context.Context, boxID uuid.UUID) ([]model.Document, error) {
	var docs []model.Document
	err := GetDB(ctx, r.db).Preload("SubDocuments").
		Where("box_id = ?", boxID).
		Order("created_at ASC").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepository) Update(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *documentRepository) Delete(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Delete(doc).Error
}

func (r *documentRepository) CreateSubDocument(ctx context.Context, sub *model.SubDocument) error {
	return GetDB(ctx, r.db).Create(sub).Error
}
