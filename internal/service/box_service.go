package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/boxrule"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateBoxRequest struct {
	Name           string `json:"name" binding:"required"`
	Type           string `json:"type" binding:"required"`
	ExpenseSubType string `json:"expense_sub_type"`
	ContactID      string `json:"contact_id"`
	HasVat         bool   `json:"has_vat"`
	HasWht         bool   `json:"has_wht"`
	SubTotal       string `json:"sub_total" binding:"required"` // decimal string
	WhtRate        string `json:"wht_rate"`                     // decimal string, overrides the statutory default
	DocDate        string `json:"doc_date" binding:"required"`  // YYYY-MM-DD
	Description    string `json:"description"`
}

type UpdateBoxRequest struct {
	Name        *string `json:"name"`
	ContactID   *string `json:"contact_id"`
	Description *string `json:"description"`
	SubTotal    *string `json:"sub_total"`
	DocDate     *string `json:"doc_date"`
}

type ChangeStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Version int    `json:"version" binding:"required"`
	Reason  string `json:"reason"`
}

type ToggleChecklistRequest struct {
	Completed bool `json:"completed"`
}

type ListBoxesRequest struct {
	Status    string
	Type      string
	ContactID string
	Page      int
	Limit     int
}

// BoxResponse is the box row plus everything derived from it on read.
type BoxResponse struct {
	ID              string          `json:"id"`
	OrganizationID  string          `json:"organization_id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	ExpenseSubType  string          `json:"expense_sub_type,omitempty"`
	Status          string          `json:"status"`
	StatusLabel     string          `json:"status_label"`
	PaymentStatus   string          `json:"payment_status"`
	HasVat          bool            `json:"has_vat"`
	HasWht          bool            `json:"has_wht"`
	Paid            bool            `json:"paid"`
	WhtSent         bool            `json:"wht_sent"`
	ReceivedPayment bool            `json:"received_payment"`
	SubTotal        decimal.Decimal `json:"sub_total"`
	VatAmount       decimal.Decimal `json:"vat_amount"`
	WhtAmount       decimal.Decimal `json:"wht_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DocDate         string          `json:"doc_date"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	BookedAt        *time.Time      `json:"booked_at,omitempty"`
	Description     string          `json:"description,omitempty"`
	Version         int             `json:"version"`
	Contact         *model.Contact  `json:"contact,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BoxDetailResponse adds the derived views a box page needs in one round trip.
type BoxDetailResponse struct {
	BoxResponse
	Documents          []model.Document           `json:"documents"`
	Checklist          []boxrule.ChecklistItem    `json:"checklist"`
	CompletionPercent  int                        `json:"completion_percent"`
	Process            ProcessResponse            `json:"process"`
	RequiredDocuments  []boxrule.RequiredDocument `json:"required_documents"`
	Completeness       boxrule.Completeness       `json:"completeness"`
	AllowedTransitions []TransitionOption         `json:"allowed_transitions"`
}

// TransitionOption is one status the box may legally move to right now.
type TransitionOption struct {
	Status         string `json:"status"`
	Label          string `json:"label"`
	RequiresReason bool   `json:"requires_reason"`
}

// ProcessStepResponse pairs a step with its calculated state.
type ProcessStepResponse struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Status string `json:"status"`
}

type ProcessResponse struct {
	Steps    []ProcessStepResponse `json:"steps"`
	Progress int                   `json:"progress"`
}

type ChecklistResponse struct {
	Items             []boxrule.ChecklistItem `json:"items"`
	CompletionPercent int                     `json:"completion_percent"`
}

// --- Interface ---

type BoxService interface {
	CreateBox(ctx context.Context, orgID uuid.UUID, req CreateBoxRequest, userID string) (BoxResponse, error)
	GetBox(ctx context.Context, orgID, boxID uuid.UUID) (BoxDetailResponse, error)
	ListBoxes(ctx context.Context, orgID uuid.UUID, req ListBoxesRequest) ([]BoxResponse, int64, error)
	UpdateBox(ctx context.Context, orgID, boxID uuid.UUID, req UpdateBoxRequest, userID string) (BoxResponse, error)
	DeleteBox(ctx context.Context, orgID, boxID uuid.UUID, userID string) error

	// ChangeStatus moves the box along the lifecycle. Rejections, in order:
	// illegal transition, insufficient role for a COMPLETED revert, missing
	// reason on a backward edge, stale version.
	ChangeStatus(ctx context.Context, orgID, boxID uuid.UUID, req ChangeStatusRequest, userID, memberRole string) (BoxResponse, error)

	GetChecklist(ctx context.Context, orgID, boxID uuid.UUID) (ChecklistResponse, error)
	ToggleChecklistItem(ctx context.Context, orgID, boxID uuid.UUID, itemID string, completed bool, userID string) (ChecklistResponse, error)
	GetProcess(ctx context.Context, orgID, boxID uuid.UUID) (ProcessResponse, error)
	GetRequirements(ctx context.Context, orgID, boxID uuid.UUID) (boxrule.Completeness, []boxrule.RequiredDocument, error)
	ValidateBox(ctx context.Context, orgID, boxID uuid.UUID) (boxrule.ValidationResult, error)
}

type boxService struct {
	boxRepo      repository.BoxRepository
	documentRepo repository.DocumentRepository
	activityRepo repository.ActivityRepository
	txManager    repository.TransactionManager
	taxService   TaxService
	hub          *websocket.Hub
}

func NewBoxService(
	boxRepo repository.BoxRepository,
	documentRepo repository.DocumentRepository,
	activityRepo repository.ActivityRepository,
	txManager repository.TransactionManager,
	taxService TaxService,
	hub *websocket.Hub,
) BoxService {
	return &boxService{
		boxRepo:      boxRepo,
		documentRepo: documentRepo,
		activityRepo: activityRepo,
		txManager:    txManager,
		taxService:   taxService,
		hub:          hub,
	}
}

// --- Create / Read / Update / Delete ---

func (s *boxService) CreateBox(ctx context.Context, orgID uuid.UUID, req CreateBoxRequest, userID string) (BoxResponse, error) {
	if !model.ValidBoxType(req.Type) {
		return BoxResponse{}, fmt.Errorf("invalid box type %q", req.Type)
	}

	subType := req.ExpenseSubType
	if req.Type == model.BoxTypeExpense {
		if subType == "" {
			subType = model.ExpenseSubTypeStandard
		}
		if !model.ValidExpenseSubType(subType) {
			return BoxResponse{}, fmt.Errorf("invalid expense sub-type %q", subType)
		}
	} else {
		subType = ""
	}

	docDate, err := time.Parse("2006-01-02", req.DocDate)
	if err != nil {
		return BoxResponse{}, fmt.Errorf("invalid doc_date format (expected YYYY-MM-DD): %w", err)
	}

	subTotal, err := decimal.NewFromString(req.SubTotal)
	if err != nil {
		return BoxResponse{}, fmt.Errorf("invalid sub_total value: %w", err)
	}

	hasVat := req.HasVat
	if subType == model.ExpenseSubTypeNoVat || subType == model.ExpenseSubTypePettyCash {
		hasVat = false
	}

	vatAmount, whtAmount, err := s.computeTaxAmounts(ctx, subTotal, hasVat, req.HasWht, req.WhtRate, docDate)
	if err != nil {
		return BoxResponse{}, err
	}

	var contactID *uuid.UUID
	if req.ContactID != "" {
		parsed, parseErr := uuid.Parse(req.ContactID)
		if parseErr != nil {
			return BoxResponse{}, fmt.Errorf("invalid contact_id: %w", parseErr)
		}
		contactID = &parsed
	}

	box := &model.Box{
		OrganizationID: orgID,
		ContactID:      contactID,
		Name:           req.Name,
		Type:           req.Type,
		ExpenseSubType: subType,
		Status:         model.BoxStatusDraft,
		PaymentStatus:  model.PaymentStatusUnpaid,
		HasVat:         hasVat,
		HasWht:         req.HasWht,
		SubTotal:       subTotal,
		VatAmount:      vatAmount,
		WhtAmount:      whtAmount,
		TotalAmount:    subTotal.Add(vatAmount).Sub(whtAmount),
		DocDate:        docDate,
		Description:    req.Description,
		Version:        1,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.boxRepo.Create(txCtx, box); err != nil {
			return fmt.Errorf("failed to create box: %w", err)
		}
		return s.logActivity(txCtx, orgID, &box.ID, userID, model.ActionCreateBox, box.ID.String(), box.Name, nil)
	})
	if err != nil {
		return BoxResponse{}, err
	}

	s.broadcast(orgID, "box.created", box.ID.String())
	return toBoxResponse(*box), nil
}

func (s *boxService) GetBox(ctx context.Context, orgID, boxID uuid.UUID) (BoxDetailResponse, error) {
	box, err := s.boxRepo.FindByIDWithDocuments(ctx, orgID, boxID)
	if err != nil {
		return BoxDetailResponse{}, wrapNotFound(err, "box")
	}

	docTypes := presentDocTypes(box.Documents)
	flags := checklistFlagsOf(*box)

	checklist := boxrule.BuildChecklist(box.Type, box.HasVat, box.HasWht, flags, docTypes)
	steps := boxrule.ProcessSteps(box.Type, box.ExpenseSubType, box.HasVat, box.HasWht)
	stepCtx := boxrule.StepContext{Status: box.Status, Flags: flags, PresentDocTypes: docTypes}
	reqs := boxrule.RequiredDocuments(box.Type, box.ExpenseSubType, box.HasVat, box.HasWht)

	return BoxDetailResponse{
		BoxResponse:        toBoxResponse(*box),
		Documents:          box.Documents,
		Checklist:          checklist,
		CompletionPercent:  boxrule.CompletionPercent(checklist),
		Process:            toProcessResponse(steps, stepCtx),
		RequiredDocuments:  reqs,
		Completeness:       boxrule.CheckCompleteness(reqs, docTypes),
		AllowedTransitions: allowedTransitions(box.Status),
	}, nil
}

func (s *boxService) ListBoxes(ctx context.Context, orgID uuid.UUID, req ListBoxesRequest) ([]BoxResponse, int64, error) {
	filter := repository.BoxFilter{
		Status: req.Status,
		Type:   req.Type,
		Page:   req.Page,
		Limit:  req.Limit,
	}
	if req.ContactID != "" {
		parsed, err := uuid.Parse(req.ContactID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid contact_id: %w", err)
		}
		filter.ContactID = &parsed
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	boxes, total, err := s.boxRepo.List(ctx, orgID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list boxes: %w", err)
	}

	res := make([]BoxResponse, 0, len(boxes))
	for _, b := range boxes {
		res = append(res, toBoxResponse(b))
	}
	return res, total, nil
}

func (s *boxService) UpdateBox(ctx context.Context, orgID, boxID uuid.UUID, req UpdateBoxRequest, userID string) (BoxResponse, error) {
	box, err := s.boxRepo.FindByID(ctx, orgID, boxID)
	if err != nil {
		return BoxResponse{}, wrapNotFound(err, "box")
	}

	// Amounts and dates are frozen once the box leaves DRAFT; only cosmetic
	// fields stay editable.
	editable := box.Status == model.BoxStatusDraft

	if req.Name != nil {
		box.Name = *req.Name
	}
	if req.Description != nil {
		box.Description = *req.Description
	}
	if req.ContactID != nil {
		if *req.ContactID == "" {
			box.ContactID = nil
		} else {
			parsed, parseErr := uuid.Parse(*req.ContactID)
			if parseErr != nil {
				return BoxResponse{}, fmt.Errorf("invalid contact_id: %w", parseErr)
			}
			box.ContactID = &parsed
		}
	}

	recompute := false
	if req.SubTotal != nil {
		if !editable {
			return BoxResponse{}, fmt.Errorf("amounts can only change while the box is in draft: %w", ErrInvalidTransition)
		}
		subTotal, parseErr := decimal.NewFromString(*req.SubTotal)
		if parseErr != nil {
			return BoxResponse{}, fmt.Errorf("invalid sub_total value: %w", parseErr)
		}
		box.SubTotal = subTotal
		recompute = true
	}
	if req.DocDate != nil {
		if !editable {
			return BoxResponse{}, fmt.Errorf("doc date can only change while the box is in draft: %w", ErrInvalidTransition)
		}
		docDate, parseErr := time.Parse("2006-01-02", *req.DocDate)
		if parseErr != nil {
			return BoxResponse{}, fmt.Errorf("invalid doc_date format (expected YYYY-MM-DD): %w", parseErr)
		}
		box.DocDate = docDate
		recompute = true
	}

	if recompute {
		vatAmount, whtAmount, taxErr := s.computeTaxAmounts(ctx, box.SubTotal, box.HasVat, box.HasWht, "", box.DocDate)
		if taxErr != nil {
			return BoxResponse{}, taxErr
		}
		box.VatAmount = vatAmount
		box.WhtAmount = whtAmount
		box.TotalAmount = box.SubTotal.Add(vatAmount).Sub(whtAmount)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.boxRepo.Update(txCtx, box); err != nil {
			return fmt.Errorf("failed to update box: %w", err)
		}
		return s.logActivity(txCtx, orgID, &box.ID, userID, model.ActionUpdateBox, box.ID.String(), box.Name, nil)
	})
	if err != nil {
		return BoxResponse{}, err
	}

	s.broadcast(orgID, "box.updated", box.ID.String())
	return toBoxResponse(*box), nil
}

func (s *boxService) DeleteBox(ctx context.Context, orgID, boxID uuid.UUID, userID string) error {
	box, err := s.boxRepo.FindByID(ctx, orgID, boxID)
	if err != nil {
		return wrapNotFound(err, "box")
	}

	if box.Status == model.BoxStatusCompleted {
		return fmt.Errorf("completed boxes cannot be deleted: %w", ErrForbidden)
	}

	docs, err := s.boxRepo.CountDocuments(ctx, box.ID)
	if err != nil {
		return fmt.Errorf("failed to count box documents: %w", err)
	}
	if docs > 0 {
		return fmt.Errorf("box still has %d document(s): %w", docs, ErrHasDependents)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.boxRepo.Delete(txCtx, box); err != nil {
			return fmt.Errorf("failed to delete box: %w", err)
		}
		return s.logActivity(txCtx, orgID, &box.ID, userID, model.ActionDeleteBox, box.ID.String(), box.Name, nil)
	})
	if err != nil {
		return err
	}

	s.broadcast(orgID, "box.deleted", box.ID.String())
	return nil
}

// --- Status transitions ---

func (s *boxService) ChangeStatus(ctx context.Context, orgID, boxID uuid.UUID, req ChangeStatusRequest, userID, memberRole string) (BoxResponse, error) {
	box, err := s.boxRepo.FindByID(ctx, orgID, boxID)
	if err != nil {
		return BoxResponse{}, wrapNotFound(err, "box")
	}

	target := req.Status
	if !boxrule.IsValidTransition(box.Status, target) {
		return BoxResponse{}, fmt.Errorf("cannot move from %s to %s: %w", box.Status, target, ErrInvalidTransition)
	}

	// The role gate fires before the reason check: a staff member reverting a
	// completed box is told "no" regardless of what they typed in the reason.
	if boxrule.IsRevertFromCompleted(box.Status, target) && !model.ElevatedRole(memberRole) {
		return BoxResponse{}, fmt.Errorf("reopening a completed box: %w", ErrForbidden)
	}

	if boxrule.RequiresReason(box.Status, target) && req.Reason == "" {
		return BoxResponse{}, fmt.Errorf("moving from %s to %s: %w", box.Status, target, ErrReasonRequired)
	}

	now := time.Now()
	updates := map[string]interface{}{"status": target}
	switch target {
	case model.BoxStatusSubmitted:
		if box.SubmittedAt == nil {
			updates["submitted_at"] = now
		}
	case model.BoxStatusCompleted:
		updates["booked_at"] = now
	case model.BoxStatusDraft:
		updates["submitted_at"] = nil
	}
	if box.Status == model.BoxStatusCompleted {
		updates["booked_at"] = nil
	}

	details, _ := json.Marshal(map[string]string{
		"from":   box.Status,
		"to":     target,
		"reason": req.Reason,
	})

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rows, txErr := s.boxRepo.UpdateStatusVersioned(txCtx, box.ID, req.Version, updates)
		if txErr != nil {
			return fmt.Errorf("failed to change status: %w", txErr)
		}
		if rows == 0 {
			return ErrStaleBox
		}
		return s.logActivity(txCtx, orgID, &box.ID, userID, model.ActionChangeBoxStatus, box.ID.String(), box.Name, details)
	})
	if err != nil {
		return BoxResponse{}, err
	}

	updated, err := s.boxRepo.FindByID(ctx, orgID, boxID)
	if err != nil {
		return BoxResponse{}, wrapNotFound(err, "box")
	}

	s.broadcast(orgID, "box.status_changed", box.ID.String())
	return toBoxResponse(*updated), nil
}

// --- Derived views ---

func (s *boxService) GetChecklist(ctx context.Context, orgID, boxID uuid.UUID) (ChecklistResponse, error) {
	box, err := s.boxRepo.FindByIDWithDocuments(ctx, orgID, boxID)
	if err != nil {
		return ChecklistResponse{}, wrapNotFound(err, "box")
	}

	items := boxrule.BuildChecklist(box.Type, box.HasVat, box.HasWht, checklistFlagsOf(*box), presentDocTypes(box.Documents))
	return ChecklistResponse{Items: items, CompletionPercent: boxrule.CompletionPercent(items)}, nil
}

func (s *boxService) ToggleChecklistItem(ctx context.Context, orgID, boxID uuid.UUID, itemID string, completed bool, userID string) (ChecklistResponse, error) {
	box, err := s.boxRepo.FindByIDWithDocuments(ctx, orgID, boxID)
	if err != nil {
		return ChecklistResponse{}, wrapNotFound(err, "box")
	}

	items := boxrule.BuildChecklist(box.Type, box.HasVat, box.HasWht, checklistFlagsOf(*box), presentDocTypes(box.Documents))
	item, ok := boxrule.FindItem(items, itemID)
	if !ok {
		return ChecklistResponse{}, fmt.Errorf("checklist item %q: %w", itemID, ErrNotFound)
	}
	if !item.CanToggle {
		return ChecklistResponse{}, fmt.Errorf("checklist item %q: %w", itemID, ErrNotToggleable)
	}
	if completed && item.Blocked {
		return ChecklistResponse{}, fmt.Errorf("checklist item %q requires %q first: %w", itemID, item.DependsOn, ErrChecklistBlocked)
	}

	switch itemID {
	case boxrule.ItemPaid:
		box.Paid = completed
		if completed {
			box.PaymentStatus = model.PaymentStatusPaid
		} else {
			box.PaymentStatus = model.PaymentStatusUnpaid
		}
	case boxrule.ItemWhtSent:
		box.WhtSent = completed
	case boxrule.ItemPaymentReceived:
		box.ReceivedPayment = completed
		if completed {
			box.PaymentStatus = model.PaymentStatusPaid
		} else {
			box.PaymentStatus = model.PaymentStatusUnpaid
		}
	default:
		return ChecklistResponse{}, fmt.Errorf("checklist item %q: %w", itemID, ErrNotToggleable)
	}

	details, _ := json.Marshal(map[string]interface{}{"item": itemID, "completed": completed})

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.boxRepo.Update(txCtx, box); err != nil {
			return fmt.Errorf("failed to toggle checklist item: %w", err)
		}
		return s.logActivity(txCtx, orgID, &box.ID, userID, model.ActionToggleChecklist, box.ID.String(), box.Name, details)
	})
	if err != nil {
		return ChecklistResponse{}, err
	}

	s.broadcast(orgID, "box.checklist_changed", box.ID.String())

	items = boxrule.BuildChecklist(box.Type, box.HasVat, box.HasWht, checklistFlagsOf(*box), presentDocTypes(box.Documents))
	return ChecklistResponse{Items: items, CompletionPercent: boxrule.CompletionPercent(items)}, nil
}

func (s *boxService) GetProcess(ctx context.Context, orgID, boxID uuid.UUID) (ProcessResponse, error) {
	box, err := s.boxRepo.FindByIDWithDocuments(ctx, orgID, boxID)
	if err != nil {
		return ProcessResponse{}, wrapNotFound(err, "box")
	}

	steps := boxrule.ProcessSteps(box.Type, box.ExpenseSubType, box.HasVat, box.HasWht)
	stepCtx := boxrule.StepContext{
		Status:          box.Status,
		Flags:           checklistFlagsOf(*box),
		PresentDocTypes: presentDocTypes(box.Documents),
	}
	return toProcessResponse(steps, stepCtx), nil
}

func (s *boxService) GetRequirements(ctx context.Context, orgID, boxID uuid.UUID) (boxrule.Completeness, []boxrule.RequiredDocument, error) {
	box, err := s.boxRepo.FindByIDWithDocuments(ctx, orgID, boxID)
	if err != nil {
		return boxrule.Completeness{}, nil, wrapNotFound(err, "box")
	}

	reqs := boxrule.RequiredDocuments(box.Type, box.ExpenseSubType, box.HasVat, box.HasWht)
	return boxrule.CheckCompleteness(reqs, presentDocTypes(box.Documents)), reqs, nil
}

func (s *boxService) ValidateBox(ctx context.Context, orgID, boxID uuid.UUID) (boxrule.ValidationResult, error) {
	box, err := s.boxRepo.FindByIDWithDocuments(ctx, orgID, boxID)
	if err != nil {
		return boxrule.ValidationResult{}, wrapNotFound(err, "box")
	}

	candidates, err := s.boxRepo.FindDuplicateCandidates(ctx, orgID, box.TotalAmount, box.DocDate, boxrule.DuplicateWindowDays)
	if err != nil {
		return boxrule.ValidationResult{}, fmt.Errorf("failed to fetch duplicate candidates: %w", err)
	}

	var vatRate *decimal.Decimal
	if box.HasVat {
		rate, rateErr := s.taxService.ActiveRate(ctx, model.TaxTypeVAT, box.DocDate)
		if rateErr == nil {
			vatRate = &rate
		} else if !errors.Is(rateErr, ErrNotFound) {
			return boxrule.ValidationResult{}, rateErr
		}
	}

	return boxrule.Validate(boxrule.ValidationInput{
		Box:        *box,
		Documents:  box.Documents,
		Candidates: candidates,
		VatRate:    vatRate,
		Now:        time.Now(),
	}), nil
}

// --- Helpers ---

func (s *boxService) computeTaxAmounts(ctx context.Context, subTotal decimal.Decimal, hasVat, hasWht bool, whtRateOverride string, docDate time.Time) (decimal.Decimal, decimal.Decimal, error) {
	vatAmount := decimal.Zero
	whtAmount := decimal.Zero

	if hasVat {
		rate, err := s.taxService.ActiveRate(ctx, model.TaxTypeVAT, docDate)
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("cannot compute VAT: %w", err)
		}
		vatAmount = subTotal.Mul(rate).Round(4)
	}

	if hasWht {
		var rate decimal.Decimal
		var err error
		if whtRateOverride != "" {
			rate, err = decimal.NewFromString(whtRateOverride)
			if err != nil {
				return decimal.Zero, decimal.Zero, fmt.Errorf("invalid wht_rate value: %w", err)
			}
		} else {
			rate, err = s.taxService.ActiveRate(ctx, model.TaxTypeWHT, docDate)
			if err != nil {
				return decimal.Zero, decimal.Zero, fmt.Errorf("cannot compute WHT: %w", err)
			}
		}
		whtAmount = subTotal.Mul(rate).Round(4)
	}

	return vatAmount, whtAmount, nil
}

func (s *boxService) logActivity(ctx context.Context, orgID uuid.UUID, boxID *uuid.UUID, userID, action, entityID, entityName string, details []byte) error {
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

func (s *boxService) broadcast(orgID uuid.UUID, event, boxID string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(orgID, event, map[string]string{"box_id": boxID})
}

func wrapNotFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return fmt.Errorf("failed to fetch %s: %w", entity, err)
}

func checklistFlagsOf(box model.Box) boxrule.ChecklistFlags {
	return boxrule.ChecklistFlags{
		Paid:            box.Paid,
		WhtSent:         box.WhtSent,
		ReceivedPayment: box.ReceivedPayment,
	}
}

func presentDocTypes(docs []model.Document) []string {
	types := make([]string, 0, len(docs))
	for _, d := range docs {
		types = append(types, d.DocType)
		for _, sub := range d.SubDocuments {
			types = append(types, sub.DocType)
		}
	}
	return types
}

func allowedTransitions(current string) []TransitionOption {
	var opts []TransitionOption
	for _, target := range boxrule.AllStatuses() {
		if target == current || !boxrule.IsValidTransition(current, target) {
			continue
		}
		opts = append(opts, TransitionOption{
			Status:         target,
			Label:          boxrule.StatusLabel(target),
			RequiresReason: boxrule.RequiresReason(current, target),
		})
	}
	return opts
}

func toBoxResponse(box model.Box) BoxResponse {
	return BoxResponse{
		ID:              box.ID.String(),
		OrganizationID:  box.OrganizationID.String(),
		Name:            box.Name,
		Type:            box.Type,
		ExpenseSubType:  box.ExpenseSubType,
		Status:          box.Status,
		StatusLabel:     boxrule.StatusLabel(box.Status),
		PaymentStatus:   box.PaymentStatus,
		HasVat:          box.HasVat,
		HasWht:          box.HasWht,
		Paid:            box.Paid,
		WhtSent:         box.WhtSent,
		ReceivedPayment: box.ReceivedPayment,
		SubTotal:        box.SubTotal,
		VatAmount:       box.VatAmount,
		WhtAmount:       box.WhtAmount,
		TotalAmount:     box.TotalAmount,
		DocDate:         box.DocDate.Format("2006-01-02"),
		SubmittedAt:     box.SubmittedAt,
		BookedAt:        box.BookedAt,
		Description:     box.Description,
		Version:         box.Version,
		Contact:         box.Contact,
		CreatedAt:       box.CreatedAt,
		UpdatedAt:       box.UpdatedAt,
	}
}

func toProcessResponse(steps []boxrule.Step, ctx boxrule.StepContext) ProcessResponse {
	statuses := boxrule.CalculateStepStatuses(steps, ctx)
	res := make([]ProcessStepResponse, len(steps))
	for i, step := range steps {
		res[i] = ProcessStepResponse{ID: step.ID, Label: step.Label, Status: statuses[i]}
	}
	return ProcessResponse{Steps: res, Progress: boxrule.CalculateProgress(steps, ctx)}
}
