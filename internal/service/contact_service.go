package service

import (
	"context"
	"fmt"
	"regexp"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

var taxIDFormat = regexp.MustCompile(`^\d{13}$`)

// --- DTOs ---

type CreateContactRequest struct {
	Name    string `json:"name" binding:"required"`
	TaxID   string `json:"tax_id"`
	Branch  string `json:"branch"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type UpdateContactRequest struct {
	Name    *string `json:"name"`
	TaxID   *string `json:"tax_id"`
	Branch  *string `json:"branch"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// --- Interface ---

type ContactService interface {
	CreateContact(ctx context.Context, orgID uuid.UUID, req CreateContactRequest, userID string) (model.Contact, error)
	GetContact(ctx context.Context, orgID, contactID uuid.UUID) (model.Contact, error)
	ListContacts(ctx context.Context, orgID uuid.UUID, page, limit int) ([]model.Contact, int64, error)
	UpdateContact(ctx context.Context, orgID, contactID uuid.UUID, req UpdateContactRequest, userID string) (model.Contact, error)
	// DeleteContact refuses to remove a contact that still has boxes
	// referencing it (ErrHasDependents).
	DeleteContact(ctx context.Context, orgID, contactID uuid.UUID, userID string) error
}

type contactService struct {
	contactRepo  repository.ContactRepository
	activityRepo repository.ActivityRepository
	txManager    repository.TransactionManager
}

func NewContactService(
	contactRepo repository.ContactRepository,
	activityRepo repository.ActivityRepository,
	txManager repository.TransactionManager,
) ContactService {
	return &contactService{
		contactRepo:  contactRepo,
		activityRepo: activityRepo,
		txManager:    txManager,
	}
}

// --- Implementation ---

func (s *contactService) CreateContact(ctx context.Context, orgID uuid.UUID, req CreateContactRequest, userID string) (model.Contact, error) {
	if req.TaxID != "" && !taxIDFormat.MatchString(req.TaxID) {
		return model.Contact{}, fmt.Errorf("tax_id must be 13 digits")
	}

	contact := &model.Contact{
		OrganizationID: orgID,
		Name:           req.Name,
		TaxID:          req.TaxID,
		Branch:         req.Branch,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		IsActive:       true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.contactRepo.Create(txCtx, contact); err != nil {
			return fmt.Errorf("failed to create contact: %w", err)
		}
		return s.logContactAction(txCtx, orgID, userID, model.ActionCreateContact, contact.ID.String(), contact.Name)
	})
	if err != nil {
		return model.Contact{}, err
	}

	return *contact, nil
}

func (s *contactService) GetContact(ctx context.Context, orgID, contactID uuid.UUID) (model.Contact, error) {
	contact, err := s.contactRepo.FindByID(ctx, orgID, contactID)
	if err != nil {
		return model.Contact{}, wrapNotFound(err, "contact")
	}
	return *contact, nil
}

func (s *contactService) ListContacts(ctx context.Context, orgID uuid.UUID, page, limit int) ([]model.Contact, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	contacts, total, err := s.contactRepo.List(ctx, orgID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, total, nil
}

func (s *contactService) UpdateContact(ctx context.Context, orgID, contactID uuid.UUID, req UpdateContactRequest, userID string) (model.Contact, error) {
	contact, err := s.contactRepo.FindByID(ctx, orgID, contactID)
	if err != nil {
		return model.Contact{}, wrapNotFound(err, "contact")
	}

	if req.Name != nil {
		contact.Name = *req.Name
	}
	if req.TaxID != nil {
		if *req.TaxID != "" && !taxIDFormat.MatchString(*req.TaxID) {
			return model.Contact{}, fmt.Errorf("tax_id must be 13 digits")
		}
		contact.TaxID = *req.TaxID
	}
	if req.Branch != nil {
		contact.Branch = *req.Branch
	}
	if req.Email != nil {
		contact.Email = *req.Email
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}
	if req.Address != nil {
		contact.Address = *req.Address
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.contactRepo.Update(txCtx, contact); err != nil {
			return fmt.Errorf("failed to update contact: %w", err)
		}
		return s.logContactAction(txCtx, orgID, userID, model.ActionUpdateContact, contact.ID.String(), contact.Name)
	})
	if err != nil {
		return model.Contact{}, err
	}

	return *contact, nil
}

func (s *contactService) DeleteContact(ctx context.Context, orgID, contactID uuid.UUID, userID string) error {
	contact, err := s.contactRepo.FindByID(ctx, orgID, contactID)
	if err != nil {
		return wrapNotFound(err, "contact")
	}

	boxes, err := s.contactRepo.CountBoxes(ctx, contact.ID)
	if err != nil {
		return fmt.Errorf("failed to count contact boxes: %w", err)
	}
	if boxes > 0 {
		return fmt.Errorf("contact has %d box(es): %w", boxes, ErrHasDependents)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.contactRepo.Delete(txCtx, contact); err != nil {
			return fmt.Errorf("failed to delete contact: %w", err)
		}
		return s.logContactAction(txCtx, orgID, userID, model.ActionDeleteContact, contact.ID.String(), contact.Name)
	})
}

func (s *contactService) logContactAction(ctx context.Context, orgID uuid.UUID, userID, action, entityID, entityName string) error {
	entry := &model.ActivityLog{
		OrganizationID: orgID,
		Action:         action,
		EntityID:       entityID,
		EntityName:     entityName,
	}
	if parsed, err := uuid.Parse(userID); err == nil {
		entry.UserID = &parsed
	}
	return s.activityRepo.Log(ctx, entry)
}
