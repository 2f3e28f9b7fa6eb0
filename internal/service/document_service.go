package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/boxrule"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type UploadDocumentRequest struct {
	DocType  string `json:"doc_type" binding:"required"`
	FileName string `json:"file_name" binding:"required"`
	FileURL  string `json:"file_url" binding:"required"`
	Amount   string `json:"amount"`   // decimal string, optional
	DocDate  string `json:"doc_date"` // YYYY-MM-DD, optional
	Note     string `json:"note"`
}

type ReclassifyDocumentRequest struct {
	DocType string `json:"doc_type" binding:"required"`
}

type AddSubDocumentRequest struct {
	DocType string `json:"doc_type" binding:"required"`
	FileURL string `json:"file_url" binding:"required"`
	PageNo  int    `json:"page_no"`
}

// UploadDocumentResponse carries the stored document plus any advisory
// findings the upload triggered, so the client can warn without a second call.
type UploadDocumentResponse struct {
	Document model.Document            `json:"document"`
	Warnings []boxrule.ValidationIssue `json:"warnings,omitempty"`
}

// --- Interface ---

type DocumentService interface {
	UploadDocument(ctx context.Context, orgID, boxID uuid.UUID, req UploadDocumentRequest, userID string) (UploadDocumentResponse, error)
	ListDocuments(ctx context.Context, orgID, boxID uuid.UUID) ([]model.Document, error)
	ReclassifyDocument(ctx context.Context, orgID, docID uuid.UUID, req ReclassifyDocumentRequest, userID string) (model.Document, error)
	DeleteDocument(ctx context.Context, orgID, docID uuid.UUID, userID string) error
	AddSubDocument(ctx context.Context, orgID, docID uuid.UUID, req AddSubDocumentRequest, userID string) (model.SubDocument, error)
}

type documentService struct {
	documentRepo repository.DocumentRepository
	boxRepo      repository.BoxRepository
	activityRepo repository.ActivityRepository
	txManager    repository.TransactionManager
	hub          *websocket.Hub
}

func NewDocumentService(
	documentRepo repository.DocumentRepository,
	boxRepo repository.BoxRepository,
	activityRepo repository.ActivityRepository,
	txManager repository.TransactionManager,
	hub *websocket.Hub,
) DocumentService {
	return &documentService{
		documentRepo: documentRepo,
		boxRepo:      boxRepo,
		activityRepo: activityRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

// --- Implementation ---

func (s *documentService) UploadDocument(ctx context.Context, orgID, boxID uuid.UUID, req UploadDocumentRequest, userID string) (UploadDocumentResponse, error) {
	if !model.ValidDocType(req.DocType) {
		return UploadDocumentResponse{}, fmt.Errorf("invalid document type %q", req.DocType)
	}

	box, err := s.boxRepo.FindByID(ctx, orgID, boxID)
	if err != nil {
		return UploadDocumentResponse{}, wrapNotFound(err, "box")
	}

	amount := decimal.Zero
	if req.Amount != "" {
		amount, err = decimal.NewFromString(req.Amount)
		if err != nil {
			return UploadDocumentResponse{}, fmt.Errorf("invalid amount value: %w", err)
		}
	}

	var docDate *time.Time
	if req.DocDate != "" {
		t, parseErr := time.Parse("2006-01-02", req.DocDate)
		if parseErr != nil {
			return UploadDocumentResponse{}, fmt.Errorf("invalid doc_date format (expected YYYY-MM-DD): %w", parseErr)
		}
		docDate = &t
	}

	doc := &model.Document{
		BoxID:          box.ID,
		OrganizationID: orgID,
		DocType:        req.DocType,
		FileName:       req.FileName,
		FileURL:        req.FileURL,
		Amount:         amount,
		DocDate:        docDate,
		Note:           req.Note,
	}

	details, _ := json.Marshal(map[string]string{"doc_type": req.DocType, "file_name": req.FileName})

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.documentRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("failed to store document: %w", err)
		}
		return s.logActivity(txCtx, orgID, &box.ID, userID, model.ActionUploadDocument, doc.ID.String(), req.FileName, details)
	})
	if err != nil {
		return UploadDocumentResponse{}, err
	}

	s.broadcast(orgID, "box.document_uploaded", box.ID.String())

	// Advisory only: a mismatched amount never blocks the upload.
	var warnings []boxrule.ValidationIssue
	if !amount.IsZero() {
		diff := amount.Sub(box.TotalAmount).Abs()
		if diff.GreaterThan(boxrule.AmountTolerance) {
			warnings = append(warnings, boxrule.ValidationIssue{
				ID:       fmt.Sprintf("%s:%s", boxrule.CodeAmountMismatch, doc.ID),
				Code:     boxrule.CodeAmountMismatch,
				Severity: boxrule.SeverityWarning,
				Message: fmt.Sprintf("Document amount %s differs from box total %s",
					amount.StringFixed(2), box.TotalAmount.StringFixed(2)),
				Suggestion: "Check whether the document belongs to this box or correct the box total.",
				CanDismiss: true,
			})
		}
	}

	return UploadDocumentResponse{Document: *doc, Warnings: warnings}, nil
}

func (s *documentService) ListDocuments(ctx context.Context, orgID, boxID uuid.UUID) ([]model.Document, error) {
	if _, err := s.boxRepo.FindByID(ctx, orgID, boxID); err != nil {
		return nil, wrapNotFound(err, "box")
	}
	docs, err := s.documentRepo.ListByBox(ctx, boxID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

func (s *documentService) ReclassifyDocument(ctx context.Context, orgID, docID uuid.UUID, req ReclassifyDocumentRequest, userID string) (model.Document, error) {
	if !model.ValidDocType(req.DocType) {
		return model.Document{}, fmt.Errorf("invalid document type %q", req.DocType)
	}

	doc, err := s.documentRepo.FindByID(ctx, orgID, docID)
	if err != nil {
		return model.Document{}, wrapNotFound(err, "document")
	}

	details, _ := json.Marshal(map[string]string{"from": doc.DocType, "to": req.DocType})
	doc.DocType = req.DocType

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.documentRepo.Update(txCtx, doc); err != nil {
			return fmt.Errorf("failed to reclassify document: %w", err)
		}
		return s.logActivity(txCtx, orgID, &doc.BoxID, userID, model.ActionReclassifyDocument, doc.ID.String(), doc.FileName, details)
	})
	if err != nil {
		return model.Document{}, err
	}

	s.broadcast(orgID, "box.document_reclassified", doc.BoxID.String())
	return *doc, nil
}

func (s *documentService) DeleteDocument(ctx context.Context, orgID, docID uuid.UUID, userID string) error {
	doc, err := s.documentRepo.FindByID(ctx, orgID, docID)
	if err != nil {
		return wrapNotFound(err, "document")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.documentRepo.Delete(txCtx, doc); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
		return s.logActivity(txCtx, orgID, &doc.BoxID, userID, model.ActionDeleteDocument, doc.ID.String(), doc.FileName, nil)
	})
	if err != nil {
		return err
	}

	s.broadcast(orgID, "box.document_deleted", doc.BoxID.String())
	return nil
}

func (s *documentService) AddSubDocument(ctx context.Context, orgID, docID uuid.UUID, req AddSubDocumentRequest, userID string) (model.SubDocument, error) {
	if !model.ValidDocType(req.DocType) {
		return model.SubDocument{}, fmt.Errorf("invalid document type %q", req.DocType)
	}

	doc, err := s.documentRepo.FindByID(ctx, orgID, docID)
	if err != nil {
		return model.SubDocument{}, wrapNotFound(err, "document")
	}

	pageNo := req.PageNo
	if pageNo < 1 {
		pageNo = 1
	}

	sub := &model.SubDocument{
		DocumentID: doc.ID,
		DocType:    req.DocType,
		FileURL:    req.FileURL,
		PageNo:     pageNo,
	}
	if err := s.documentRepo.CreateSubDocument(ctx, sub); err != nil {
		return model.SubDocument{}, fmt.Errorf("failed to add sub-document: %w", err)
	}

	s.broadcast(orgID, "box.document_uploaded", doc.BoxID.String())
	return *sub, nil
}

func (s *documentService) logActivity(ctx context.Context, orgID uuid.UUID, boxID *uuid.UUID, userID, action, entityID, entityName string, details []byte) error {
	entry := &model.ActivityLog{
		OrganizationID: orgID,
		BoxID:          boxID,
		Action:         action,
		EntityID:       entityID,
		EntityName:     entityName,
		Details:        string(details),
	}
	if parsed, err := uuid.Parse(userID); err == nil {
		entry.UserID = &parsed
	}
	return s.activityRepo.Log(ctx, entry)
}

func (s *documentService) broadcast(orgID uuid.UUID, event, boxID string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(orgID, event, map[string]string{"box_id": boxID})
}
