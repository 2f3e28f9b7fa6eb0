package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *model.Organization) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Organization, error)
	Update(ctx context.Context, org *model.Organization) error

	AddMember(ctx context.Context, member *model.Member) error
	FindMember(ctx context.Context, orgID, userID uuid.UUID) (*model.Member, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]model.Member, error)
	UpdateMember(ctx context.Context, member *model.Member) error
	RemoveMember(ctx context.Context, member *model.Member) error
	CountMembersWithRole(ctx context.Context, orgID uuid.UUID, role string) (int64, error)
}

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(ctx context.Context, org *model.Organization) error {
	return GetDB(ctx, r.db).Create(org).Error
}

func (r *organizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	if err := GetDB(ctx, r.db).First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Organization, error) {
	var orgs []model.Organization
	err := GetDB(ctx, r.db).
		Joins("JOIN members ON members.organization_id = organizations.id").
		Where("members.user_id = ?", userID).
		Find(&orgs).Error
	return orgs, err
}

func (r *organizationRepository) Update(ctx context.Context, org *model.Organization) error {
	return GetDB(ctx, r.db).Save(org).Error
}

func (r *organizationRepository) AddMember(ctx context.Context, member *model.Member) error {
	return GetDB(ctx, r.db).Create(member).Error
}

func (r *organizationRepository) FindMember(ctx context.Context, orgID, userID uuid.UUID) (*model.Member, error) {
	var member model.Member
	err := GetDB(ctx, r.db).
		First(&member, "organization_id = ? AND user_id = ?", orgID, userID).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *organizationRepository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]model.Member, error) {
	var members []model.Member
	err := GetDB(ctx, r.db).Preload("User").
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *organizationRepository) UpdateMember(ctx context.Context, member *model.Member) error {
	return GetDB(ctx, r.db).Save(member).Error
}

func (r *organizationRepository) RemoveMember(ctx context.Context, member *model.Member) error {
	return GetDB(ctx, r.db).Delete(member).Error
}

func (r *organizationRepository) CountMembersWithRole(ctx context.Context, orgID uuid.UUID, role string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Member{}).
		Where("organization_id = ? AND role = ?", orgID, role).
		Count(&count).Error
	return count, err
}
