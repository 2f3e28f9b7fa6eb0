package service_test

import (
	"context"
	"testing"
	"time"

	"backend/internal/boxrule"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- in-memory fakes ---

type fakeBoxRepo struct {
	boxes    map[uuid.UUID]model.Box
	docCount int64
}

func newFakeBoxRepo() *fakeBoxRepo {
	return &fakeBoxRepo{boxes: map[uuid.UUID]model.Box{}}
}

func (r *fakeBoxRepo) Create(_ context.Context, box *model.Box) error {
	if box.ID == uuid.Nil {
		box.ID = uuid.New()
	}
	r.boxes[box.ID] = *box
	return nil
}

func (r *fakeBoxRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.Box, error) {
	box, ok := r.boxes[id]
	if !ok || box.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	found := box
	return &found, nil
}

func (r *fakeBoxRepo) FindByIDWithDocuments(ctx context.Context, orgID, id uuid.UUID) (*model.Box, error) {
	return r.FindByID(ctx, orgID, id)
}

func (r *fakeBoxRepo) List(_ context.Context, orgID uuid.UUID, _ repository.BoxFilter) ([]model.Box, int64, error) {
	var out []model.Box
	for _, b := range r.boxes {
		if b.OrganizationID == orgID {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBoxRepo) Update(_ context.Context, box *model.Box) error {
	r.boxes[box.ID] = *box
	return nil
}

func (r *fakeBoxRepo) UpdateStatusVersioned(_ context.Context, id uuid.UUID, expectedVersion int, updates map[string]interface{}) (int64, error) {
	box, ok := r.boxes[id]
	if !ok || box.Version != expectedVersion {
		return 0, nil
	}

	if v, set := updates["status"]; set {
		box.Status = v.(string)
	}
	if v, set := updates["submitted_at"]; set {
		if v == nil {
			box.SubmittedAt = nil
		} else {
			t := v.(time.Time)
			box.SubmittedAt = &t
		}
	}
	if v, set := updates["booked_at"]; set {
		if v == nil {
			box.BookedAt = nil
		} else {
			t := v.(time.Time)
			box.BookedAt = &t
		}
	}
	box.Version++
	r.boxes[id] = box
	return 1, nil
}

func (r *fakeBoxRepo) Delete(_ context.Context, box *model.Box) error {
	delete(r.boxes, box.ID)
	return nil
}

func (r *fakeBoxRepo) CountDocuments(_ context.Context, _ uuid.UUID) (int64, error) {
	return r.docCount, nil
}

func (r *fakeBoxRepo) FindDuplicateCandidates(_ context.Context, _ uuid.UUID, _ decimal.Decimal, _ time.Time, _ int) ([]model.Box, error) {
	return nil, nil
}

func (r *fakeBoxRepo) ListCompletedInRange(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]model.Box, error) {
	return nil, nil
}

type fakeDocumentRepo struct{}

func (fakeDocumentRepo) Create(_ context.Context, _ *model.Document) error { return nil }
func (fakeDocumentRepo) FindByID(_ context.Context, _, _ uuid.UUID) (*model.Document, error) {
	return nil, gorm.ErrRecordNotFound
}
func (fakeDocumentRepo) ListByBox(_ context.Context, _ uuid.UUID) ([]model.Document, error) {
	return nil, nil
}
func (fakeDocumentRepo) Update(_ context.Context, _ *model.Document) error            { return nil }
func (fakeDocumentRepo) Delete(_ context.Context, _ *model.Document) error            { return nil }
func (fakeDocumentRepo) CreateSubDocument(_ context.Context, _ *model.SubDocument) error { return nil }

type fakeActivityRepo struct {
	entries []model.ActivityLog
}

func (r *fakeActivityRepo) Log(_ context.Context, entry *model.ActivityLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeActivityRepo) ListByOrganization(_ context.Context, _ uuid.UUID, _, _ int) ([]model.ActivityLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

func (r *fakeActivityRepo) ListByBox(_ context.Context, _, _ uuid.UUID, _, _ int) ([]model.ActivityLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// fakeTaxService serves fixed statutory rates: 7% VAT, 3% WHT.
type fakeTaxService struct{}

func (fakeTaxService) ListTaxRates(_ context.Context) ([]service.TaxRateResponse, error) {
	return nil, nil
}

func (fakeTaxService) CreateTaxRate(_ context.Context, _ service.CreateTaxRateRequest, _ string) (service.TaxRateResponse, error) {
	return service.TaxRateResponse{}, nil
}

func (fakeTaxService) DeleteTaxRate(_ context.Context, _ string, _ string) error { return nil }

func (fakeTaxService) ActiveRate(_ context.Context, taxType string, _ time.Time) (decimal.Decimal, error) {
	if taxType == model.TaxTypeVAT {
		return decimal.NewFromFloat(0.07), nil
	}
	return decimal.NewFromFloat(0.03), nil
}

// --- harness ---

type boxServiceFixture struct {
	svc      service.BoxService
	boxRepo  *fakeBoxRepo
	activity *fakeActivityRepo
	orgID    uuid.UUID
	userID   string
}

func newBoxServiceFixture(t *testing.T) *boxServiceFixture {
	t.Helper()
	boxRepo := newFakeBoxRepo()
	activity := &fakeActivityRepo{}
	svc := service.NewBoxService(boxRepo, fakeDocumentRepo{}, activity, fakeTxManager{}, fakeTaxService{}, nil)
	return &boxServiceFixture{
		svc:      svc,
		boxRepo:  boxRepo,
		activity: activity,
		orgID:    uuid.New(),
		userID:   uuid.New().String(),
	}
}

func (f *boxServiceFixture) seedBox(t *testing.T, mutate func(*model.Box)) uuid.UUID {
	t.Helper()
	box := model.Box{
		ID:             uuid.New(),
		OrganizationID: f.orgID,
		Name:           "Office supplies",
		Type:           model.BoxTypeExpense,
		ExpenseSubType: model.ExpenseSubTypeStandard,
		Status:         model.BoxStatusDraft,
		PaymentStatus:  model.PaymentStatusUnpaid,
		SubTotal:       decimal.NewFromInt(1000),
		TotalAmount:    decimal.NewFromInt(1000),
		DocDate:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Version:        1,
	}
	if mutate != nil {
		mutate(&box)
	}
	f.boxRepo.boxes[box.ID] = box
	return box.ID
}

// --- CreateBox ---

func TestCreateBoxComputesTaxAmounts(t *testing.T) {
	f := newBoxServiceFixture(t)

	res, err := f.svc.CreateBox(context.Background(), f.orgID, service.CreateBoxRequest{
		Name:     "Consulting fee",
		Type:     model.BoxTypeExpense,
		HasVat:   true,
		HasWht:   true,
		SubTotal: "1000",
		DocDate:  "2026-03-10",
	}, f.userID)
	require.NoError(t, err)

	assert.Equal(t, model.BoxStatusDraft, res.Status)
	assert.Equal(t, 1, res.Version)
	assert.True(t, res.VatAmount.Equal(decimal.NewFromInt(70)), "vat = %s", res.VatAmount)
	assert.True(t, res.WhtAmount.Equal(decimal.NewFromInt(30)), "wht = %s", res.WhtAmount)
	assert.True(t, res.TotalAmount.Equal(decimal.NewFromInt(1040)), "total = %s", res.TotalAmount)

	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, model.ActionCreateBox, f.activity.entries[0].Action)
}

func TestCreateBoxWhtRateOverride(t *testing.T) {
	f := newBoxServiceFixture(t)

	res, err := f.svc.CreateBox(context.Background(), f.orgID, service.CreateBoxRequest{
		Name:     "Rent",
		Type:     model.BoxTypeExpense,
		HasWht:   true,
		SubTotal: "20000",
		WhtRate:  "0.05",
		DocDate:  "2026-03-01",
	}, f.userID)
	require.NoError(t, err)

	assert.True(t, res.WhtAmount.Equal(decimal.NewFromInt(1000)), "wht = %s", res.WhtAmount)
	assert.True(t, res.TotalAmount.Equal(decimal.NewFromInt(19000)), "total = %s", res.TotalAmount)
}

func TestCreateBoxPettyCashForcesVatOff(t *testing.T) {
	f := newBoxServiceFixture(t)

	res, err := f.svc.CreateBox(context.Background(), f.orgID, service.CreateBoxRequest{
		Name:           "Taxi receipts",
		Type:           model.BoxTypeExpense,
		ExpenseSubType: model.ExpenseSubTypePettyCash,
		HasVat:         true,
		SubTotal:       "350",
		DocDate:        "2026-03-05",
	}, f.userID)
	require.NoError(t, err)

	assert.False(t, res.HasVat)
	assert.True(t, res.VatAmount.IsZero())
	assert.True(t, res.TotalAmount.Equal(decimal.NewFromInt(350)))
}

func TestCreateBoxRejectsUnknownType(t *testing.T) {
	f := newBoxServiceFixture(t)

	_, err := f.svc.CreateBox(context.Background(), f.orgID, service.CreateBoxRequest{
		Name:     "???",
		Type:     "TRANSFER",
		SubTotal: "100",
		DocDate:  "2026-03-05",
	}, f.userID)
	assert.Error(t, err)
}

// --- ChangeStatus ---

func TestChangeStatusIllegalTransition(t *testing.T) {
	f := newBoxServiceFixture(t)
	boxID := f.seedBox(t, nil) // DRAFT

	_, err := f.svc.ChangeStatus(context.Background(), f.orgID, boxID, service.ChangeStatusRequest{
		Status:  model.BoxStatusCompleted,
		Version: 1,
	}, f.userID, model.MemberRoleOwner)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
}

func TestChangeStatusForwardSetsSubmittedAt(t *testing.T) {
	f := newBoxServiceFixture(t)
	boxID := f.seedBox(t, nil)

	res, err := f.svc.ChangeStatus(context.Background(), f.orgID, boxID, service.ChangeStatusRequest{
		Status:  model.BoxStatusSubmitted,
		Version: 1,
	}, f.userID, model.MemberRoleStaff)
	require.NoError(t, err)

	assert.Equal(t, model.BoxStatusSubmitted, res.Status)
	assert.Equal(t, 2, res.Version)
	assert.NotNil(t, res.SubmittedAt)
}

func TestChangeStatusBackwardNeedsReason(t *testing.T) {
	f := newBoxServiceFixture(t)
	boxID := f.seedBox(t, func(b *model.Box) { b.Status = model.BoxStatusSubmitted })

	_, err := f.svc.ChangeStatus(context.Background(), f.orgID, boxID, service.ChangeStatusRequest{
		Status:  model.BoxStatusDraft,
		Version: 1,
	}, f.userID, model.MemberRoleStaff)
	assert.ErrorIs(t, err, service.ErrReasonRequired)

	res, err := f.svc.ChangeStatus(context.Background(), f.orgID, boxID, service.ChangeStatusRequest{
		Status:  model.BoxStatusDraft,
		Version: 1,
		Reason:  "wrong contact picked",
	}, f.userID, model.MemberRoleStaff)
	require.NoError(t, err)
	assert.Equal(t, model.BoxStatusDraft, res.Status)
	assert.Nil(t, res.SubmittedAt)
}

func TestChangeStatusCompletedRevertNeedsElevatedRole(t *testing.T) {
	f := newBoxServiceFixture(t)
	booked := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	boxID := f.seedBox(t, func(b *model.Box) {
		b.Status = model.BoxStatusCompleted
		b.BookedAt = &booked
	})

	// The role gate fires before the reason check.
	_, err := f.svc.ChangeStatus(context.Background(), f.orgID, boxID, service.ChangeStatusRequest{
		Status:  model.BoxStatusPending,
		Version: 1,
		Reason:  "typo in the amount",
	}, f.userID, model.MemberRoleStaff)
	assert.ErrorIs(t, err, service.ErrForbidden)

	res, err := f.svc.ChangeStatus(context.Background(), f.orgID, boxID, service.ChangeStatusRequest{
		Status:  model.BoxStatusPending,
		Version: 1,
		Reason:  "typo in the amount",
	}, f.userID, model.MemberRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.BoxStatusPending, res.Status)
	assert.Nil(t, res.BookedAt, "reopening clears the booking timestamp")
}

func TestChangeStatusStaleVersion(t *testing.T) {
	f := newBoxServiceFixture(t)
	boxID := f.seedBox(t, func(b *model.Box) { b.Version = 3 })

	_, err := f.svc.ChangeStatus(context.Background(), f.orgID, boxID, service.ChangeStatusRequest{
		Status:  model.BoxStatusSubmitted,
		Version: 2,
	}, f.userID, model.MemberRoleOwner)
	assert.ErrorIs(t, err, service.ErrStaleBox)
}

func TestChangeStatusLogsFromToReason(t *testing.T) {
	f := newBoxServiceFixture(t)
	boxID := f.seedBox(t, func(b *model.Box) { b.Status = model.BoxStatusPending })

	_, err := f.svc.ChangeStatus(context.Background(), f.orgID, boxID, service.ChangeStatusRequest{
		Status:  model.BoxStatusSubmitted,
		Version: 1,
		Reason:  "missing invoice",
	}, f.userID, model.MemberRoleAccounting)
	require.NoError(t, err)

	require.Len(t, f.activity.entries, 1)
	entry := f.activity.entries[0]
	assert.Equal(t, model.ActionChangeBoxStatus, entry.Action)
	assert.Contains(t, entry.Details, `"from":"PENDING"`)
	assert.Contains(t, entry.Details, `"to":"SUBMITTED"`)
	assert.Contains(t, entry.Details, "missing invoice")
}

// --- Checklist ---

func TestToggleChecklistItemPaid(t *testing.T) {
	f := newBoxServiceFixture(t)
	boxID := f.seedBox(t, nil)

	res, err := f.svc.ToggleChecklistItem(context.Background(), f.orgID, boxID, boxrule.ItemPaid, true, f.userID)
	require.NoError(t, err)

	item, ok := boxrule.FindItem(res.Items, boxrule.ItemPaid)
	require.True(t, ok)
	assert.True(t, item.Completed)

	stored := f.boxRepo.boxes[boxID]
	assert.True(t, stored.Paid)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
}

func TestToggleChecklistItemDocGatedRefused(t *testing.T) {
	f := newBoxServiceFixture(t)
	boxID := f.seedBox(t, nil)

	_, err := f.svc.ToggleChecklistItem(context.Background(), f.orgID, boxID, boxrule.ItemPaymentProof, true, f.userID)
	assert.ErrorIs(t, err, service.ErrNotToggleable)
}

func TestToggleChecklistItemBlockedByDependency(t *testing.T) {
	f := newBoxServiceFixture(t)
	// WHT box with no certificate uploaded: "sent" depends on "issued".
	boxID := f.seedBox(t, func(b *model.Box) { b.HasWht = true })

	_, err := f.svc.ToggleChecklistItem(context.Background(), f.orgID, boxID, boxrule.ItemWhtSent, true, f.userID)
	assert.ErrorIs(t, err, service.ErrChecklistBlocked)
}

func TestToggleChecklistItemUnknown(t *testing.T) {
	f := newBoxServiceFixture(t)
	boxID := f.seedBox(t, nil)

	_, err := f.svc.ToggleChecklistItem(context.Background(), f.orgID, boxID, "does_not_exist", true, f.userID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

// --- Derived views / guards ---

func TestGetBoxFromAnotherOrgIsNotFound(t *testing.T) {
	f := newBoxServiceFixture(t)
	boxID := f.seedBox(t, nil)

	_, err := f.svc.GetBox(context.Background(), uuid.New(), boxID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteCompletedBoxRefused(t *testing.T) {
	f := newBoxServiceFixture(t)
	boxID := f.seedBox(t, func(b *model.Box) { b.Status = model.BoxStatusCompleted })

	err := f.svc.DeleteBox(context.Background(), f.orgID, boxID, f.userID)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestDeleteBoxWithDocumentsRefused(t *testing.T) {
	f := newBoxServiceFixture(t)
	f.boxRepo.docCount = 2
	boxID := f.seedBox(t, nil)

	err := f.svc.DeleteBox(context.Background(), f.orgID, boxID, f.userID)
	assert.ErrorIs(t, err, service.ErrHasDependents)
}

func TestUpdateBoxAmountFrozenAfterDraft(t *testing.T) {
	f := newBoxServiceFixture(t)
	boxID := f.seedBox(t, func(b *model.Box) { b.Status = model.BoxStatusPending })

	newTotal := "2500"
	_, err := f.svc.UpdateBox(context.Background(), f.orgID, boxID, service.UpdateBoxRequest{
		SubTotal: &newTotal,
	}, f.userID)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
}
