package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Contact, error)
	List(ctx context.Context, orgID uuid.UUID, page, limit int) ([]model.Contact, int64, error)
	Update(ctx context.Context, contact *model.Contact) error
	Delete(ctx context.Context, contact *model.Contact) error
	CountBoxes(ctx context.Context, contactID uuid.UUID) (int64, error)
}

type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, contact *model.Contact) error {
	return GetDB(ctx, r.db).Create(contact).Error
}

func (r *contactRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Contact, error) {
	var contact model.Contact
	err := GetDB(ctx, r.db).First(&contact, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepository) List(ctx context.Context, orgID uuid.UUID, page, limit int) ([]model.Contact, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.Contact{}).Where("organization_id = ?", orgID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contacts []model.Contact
	offset := (page - 1) * limit
	if err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&contacts).Error; err != nil {
		return nil, 0, err
	}

	return contacts, total, nil
}

func (r *contactRepository) Update(ctx context.Context, contact *model.Contact) error {
	return GetDB(ctx, r.db).Save(contact).Error
}

func (r *contactRepository) Delete(ctx context.Context, contact *model.Contact) error {
	return GetDB(ctx, r.db).Delete(contact).Error
}

func (r *contactRepository) CountBoxes(ctx context.Context, contactID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Box{}).
		Where("contact_id = ?", contactID).Count(&count).Error
	return count, err
}
