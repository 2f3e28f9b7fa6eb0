package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateOrganizationRequest struct {
	Name  string `json:"name" binding:"required"`
	TaxID string `json:"tax_id"`
}

type UpdateOrganizationRequest struct {
	Name  *string `json:"name"`
	TaxID *string `json:"tax_id"`
}

type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type MemberResponse struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// --- Interface ---

type OrganizationService interface {
	CreateOrganization(ctx context.Context, req CreateOrganizationRequest, userID uuid.UUID) (model.Organization, error)
	GetOrganization(ctx context.Context, orgID uuid.UUID) (model.Organization, error)
	ListOrganizations(ctx context.Context, userID uuid.UUID) ([]model.Organization, error)
	UpdateOrganization(ctx context.Context, orgID uuid.UUID, req UpdateOrganizationRequest, userID string) (model.Organization, error)

	// MemberRole resolves the caller's role in the organization.
	// ErrForbidden when the user is not a member at all.
	MemberRole(ctx context.Context, orgID, userID uuid.UUID) (string, error)

	AddMember(ctx context.Context, orgID uuid.UUID, req AddMemberRequest, actorID string) (MemberResponse, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]MemberResponse, error)
	UpdateMemberRole(ctx context.Context, orgID, userID uuid.UUID, req UpdateMemberRoleRequest, actorID string) (MemberResponse, error)
	RemoveMember(ctx context.Context, orgID, userID uuid.UUID, actorID string) error
}

type organizationService struct {
	orgRepo      repository.OrganizationRepository
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
	txManager    repository.TransactionManager
}

func NewOrganizationService(
	orgRepo repository.OrganizationRepository,
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	txManager repository.TransactionManager,
) OrganizationService {
	return &organizationService{
		orgRepo:      orgRepo,
		userRepo:     userRepo,
		activityRepo: activityRepo,
		txManager:    txManager,
	}
}

// --- Implementation ---

func (s *organizationService) CreateOrganization(ctx context.Context, req CreateOrganizationRequest, userID uuid.UUID) (model.Organization, error) {
	org := &model.Organization{
		Name:  req.Name,
		TaxID: req.TaxID,
	}

	// Creating an organization makes the creator its first OWNER.
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orgRepo.Create(txCtx, org); err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}
		member := &model.Member{
			OrganizationID: org.ID,
			UserID:         userID,
			Role:           model.MemberRoleOwner,
		}
		if err := s.orgRepo.AddMember(txCtx, member); err != nil {
			return fmt.Errorf("failed to add creator as owner: %w", err)
		}
		return s.activityRepo.Log(txCtx, &model.ActivityLog{
			OrganizationID: org.ID,
			UserID:         &userID,
			Action:         model.ActionCreateOrganization,
			EntityID:       org.ID.String(),
			EntityName:     org.Name,
		})
	})
	if err != nil {
		return model.Organization{}, err
	}

	return *org, nil
}

func (s *organizationService) GetOrganization(ctx context.Context, orgID uuid.UUID) (model.Organization, error) {
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return model.Organization{}, wrapNotFound(err, "organization")
	}
	return *org, nil
}

func (s *organizationService) ListOrganizations(ctx context.Context, userID uuid.UUID) ([]model.Organization, error) {
	orgs, err := s.orgRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

func (s *organizationService) UpdateOrganization(ctx context.Context, orgID uuid.UUID, req UpdateOrganizationRequest, userID string) (model.Organization, error) {
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return model.Organization{}, wrapNotFound(err, "organization")
	}

	if req.Name != nil {
		org.Name = *req.Name
	}
	if req.TaxID != nil {
		org.TaxID = *req.TaxID
	}

	if err := s.orgRepo.Update(ctx, org); err != nil {
		return model.Organization{}, fmt.Errorf("failed to update organization: %w", err)
	}
	return *org, nil
}

func (s *organizationService) MemberRole(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	member, err := s.orgRepo.FindMember(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("not a member of this organization: %w", ErrForbidden)
		}
		return "", fmt.Errorf("failed to resolve membership: %w", err)
	}
	return member.Role, nil
}

func (s *organizationService) AddMember(ctx context.Context, orgID uuid.UUID, req AddMemberRequest, actorID string) (MemberResponse, error) {
	if !model.ValidMemberRole(req.Role) {
		return MemberResponse{}, fmt.Errorf("invalid member role %q", req.Role)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return MemberResponse{}, wrapNotFound(err, "user")
	}

	if _, err := s.orgRepo.FindMember(ctx, orgID, user.ID); err == nil {
		return MemberResponse{}, fmt.Errorf("user %s is already a member", req.Email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return MemberResponse{}, fmt.Errorf("failed to check membership: %w", err)
	}

	member := &model.Member{
		OrganizationID: orgID,
		UserID:         user.ID,
		Role:           req.Role,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orgRepo.AddMember(txCtx, member); err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		return s.logMemberAction(txCtx, orgID, actorID, model.ActionAddMember, user.ID.String(), user.Email)
	})
	if err != nil {
		return MemberResponse{}, err
	}

	return MemberResponse{
		UserID:   user.ID.String(),
		Email:    user.Email,
		Username: user.Username,
		Role:     member.Role,
		JoinedAt: member.CreatedAt,
	}, nil
}

func (s *organizationService) ListMembers(ctx context.Context, orgID uuid.UUID) ([]MemberResponse, error) {
	members, err := s.orgRepo.ListMembers(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	res := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		resp := MemberResponse{
			UserID:   m.UserID.String(),
			Role:     m.Role,
			JoinedAt: m.CreatedAt,
		}
		if m.User != nil {
			resp.Email = m.User.Email
			resp.Username = m.User.Username
		}
		res = append(res, resp)
	}
	return res, nil
}

func (s *organizationService) UpdateMemberRole(ctx context.Context, orgID, userID uuid.UUID, req UpdateMemberRoleRequest, actorID string) (MemberResponse, error) {
	if !model.ValidMemberRole(req.Role) {
		return MemberResponse{}, fmt.Errorf("invalid member role %q", req.Role)
	}

	member, err := s.orgRepo.FindMember(ctx, orgID, userID)
	if err != nil {
		return MemberResponse{}, wrapNotFound(err, "member")
	}

	// An organization must always keep at least one owner.
	if member.Role == model.MemberRoleOwner && req.Role != model.MemberRoleOwner {
		if err := s.ensureAnotherOwner(ctx, orgID); err != nil {
			return MemberResponse{}, err
		}
	}

	member.Role = req.Role

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orgRepo.UpdateMember(txCtx, member); err != nil {
			return fmt.Errorf("failed to update member role: %w", err)
		}
		return s.logMemberAction(txCtx, orgID, actorID, model.ActionUpdateMemberRole, userID.String(), req.Role)
	})
	if err != nil {
		return MemberResponse{}, err
	}

	return MemberResponse{
		UserID:   member.UserID.String(),
		Role:     member.Role,
		JoinedAt: member.CreatedAt,
	}, nil
}

func (s *organizationService) RemoveMember(ctx context.Context, orgID, userID uuid.UUID, actorID string) error {
	member, err := s.orgRepo.FindMember(ctx, orgID, userID)
	if err != nil {
		return wrapNotFound(err, "member")
	}

	if member.Role == model.MemberRoleOwner {
		if err := s.ensureAnotherOwner(ctx, orgID); err != nil {
			return err
		}
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orgRepo.RemoveMember(txCtx, member); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		return s.logMemberAction(txCtx, orgID, actorID, model.ActionRemoveMember, userID.String(), "")
	})
}

// --- Helpers ---

func (s *organizationService) ensureAnotherOwner(ctx context.Context, orgID uuid.UUID) error {
	owners, err := s.orgRepo.CountMembersWithRole(ctx, orgID, model.MemberRoleOwner)
	if err != nil {
		return fmt.Errorf("failed to count owners: %w", err)
	}
	if owners <= 1 {
		return fmt.Errorf("organization must keep at least one owner: %w", ErrForbidden)
	}
	return nil
}

func (s *organizationService) logMemberAction(ctx context.Context, orgID uuid.UUID, actorID, action, entityID, entityName string) error {
	entry := &model.ActivityLog{
		OrganizationID: orgID,
		Action:         action,
		EntityID:       entityID,
		EntityName:     entityName,
	}
	if parsed, err := uuid.Parse(actorID); err == nil {
		entry.UserID = &parsed
	}
	return s.activityRepo.Log(ctx, entry)
}
