package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type DashboardRequest struct {
	StartDate string `form:"start_date"` // YYYY-MM-DD, defaults to first of current month
	EndDate   string `form:"end_date"`   // YYYY-MM-DD, defaults to today
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type TaxSummary struct {
	VatCollected decimal.Decimal `json:"vat_collected"` // output VAT on income boxes
	VatPaid      decimal.Decimal `json:"vat_paid"`      // input VAT on expense boxes
	WhtWithheld  decimal.Decimal `json:"wht_withheld"`  // WHT we withheld from vendors
	WhtDeducted  decimal.Decimal `json:"wht_deducted"`  // WHT customers withheld from us
}

type ContactSpend struct {
	ContactID   string          `json:"contact_id"`
	ContactName string          `json:"contact_name"`
	BoxCount    int64           `json:"box_count"`
	Total       decimal.Decimal `json:"total"`
}

type DashboardResponse struct {
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	StatusCounts  []StatusCount   `json:"status_counts"`
	TotalExpense  decimal.Decimal `json:"total_expense"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	Tax           TaxSummary      `json:"tax"`
	TopContacts   []ContactSpend  `json:"top_contacts"`
	DraftBacklog  int64           `json:"draft_backlog"` // drafts older than 30 days
	ExportReady   int64           `json:"export_ready"`  // completed boxes in range
}

// --- Interface ---

type StatisticsService interface {
	GetDashboard(ctx context.Context, orgID uuid.UUID, req DashboardRequest) (DashboardResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// --- Implementation ---

func (s *statisticsService) GetDashboard(ctx context.Context, orgID uuid.UUID, req DashboardRequest) (DashboardResponse, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := now

	var err error
	if req.StartDate != "" {
		start, err = time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return DashboardResponse{}, fmt.Errorf("invalid start_date format (expected YYYY-MM-DD): %w", err)
		}
	}
	if req.EndDate != "" {
		end, err = time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return DashboardResponse{}, fmt.Errorf("invalid end_date format (expected YYYY-MM-DD): %w", err)
		}
	}

	res := DashboardResponse{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
	}

	if res.StatusCounts, err = s.statusCounts(ctx, orgID); err != nil {
		return DashboardResponse{}, err
	}
	if res.TotalExpense, res.TotalIncome, err = s.typeTotals(ctx, orgID, start, end); err != nil {
		return DashboardResponse{}, err
	}
	if res.Tax, err = s.taxSummary(ctx, orgID, start, end); err != nil {
		return DashboardResponse{}, err
	}
	if res.TopContacts, err = s.topContacts(ctx, orgID, start, end); err != nil {
		return DashboardResponse{}, err
	}

	staleBefore := now.Add(-30 * 24 * time.Hour)
	err = s.db.WithContext(ctx).Model(&model.Box{}).
		Where("organization_id = ? AND status = ? AND created_at < ?", orgID, model.BoxStatusDraft, staleBefore).
		Count(&res.DraftBacklog).Error
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count stale drafts: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&model.Box{}).
		Where("organization_id = ? AND status = ? AND doc_date BETWEEN ? AND ?",
			orgID, model.BoxStatusCompleted, start, end).
		Count(&res.ExportReady).Error
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count completed boxes: %w", err)
	}

	return res, nil
}

func (s *statisticsService) statusCounts(ctx context.Context, orgID uuid.UUID) ([]StatusCount, error) {
	var counts []StatusCount
	err := s.db.WithContext(ctx).Raw(`
		SELECT status, COUNT(*) AS count
		FROM boxes
		WHERE organization_id = ? AND deleted_at IS NULL
		GROUP BY status
		ORDER BY count DESC
	`, orgID).Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count boxes by status: %w", err)
	}
	return counts, nil
}

func (s *statisticsService) typeTotals(ctx context.Context, orgID uuid.UUID, start, end time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var row struct {
		Expense decimal.Decimal
		Income  decimal.Decimal
	}
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(SUM(CASE WHEN type = ? THEN total_amount ELSE 0 END), 0) AS expense,
			COALESCE(SUM(CASE WHEN type = ? THEN total_amount ELSE 0 END), 0) AS income
		FROM boxes
		WHERE organization_id = ? AND deleted_at IS NULL
		  AND doc_date BETWEEN ? AND ?
	`, model.BoxTypeExpense, model.BoxTypeIncome, orgID, start, end).Scan(&row).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum box totals: %w", err)
	}
	return row.Expense, row.Income, nil
}

func (s *statisticsService) taxSummary(ctx context.Context, orgID uuid.UUID, start, end time.Time) (TaxSummary, error) {
	var row struct {
		VatCollected decimal.Decimal
		VatPaid      decimal.Decimal
		WhtWithheld  decimal.Decimal
		WhtDeducted  decimal.Decimal
	}
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(SUM(CASE WHEN type = ? THEN vat_amount ELSE 0 END), 0) AS vat_collected,
			COALESCE(SUM(CASE WHEN type = ? THEN vat_amount ELSE 0 END), 0) AS vat_paid,
			COALESCE(SUM(CASE WHEN type = ? THEN wht_amount ELSE 0 END), 0) AS wht_withheld,
			COALESCE(SUM(CASE WHEN type = ? THEN wht_amount ELSE 0 END), 0) AS wht_deducted
		FROM boxes
		WHERE organization_id = ? AND deleted_at IS NULL
		  AND doc_date BETWEEN ? AND ?
	`, model.BoxTypeIncome, model.BoxTypeExpense,
		model.BoxTypeExpense, model.BoxTypeIncome,
		orgID, start, end).Scan(&row).Error
	if err != nil {
		return TaxSummary{}, fmt.Errorf("failed to sum tax amounts: %w", err)
	}
	return TaxSummary{
		VatCollected: row.VatCollected,
		VatPaid:      row.VatPaid,
		WhtWithheld:  row.WhtWithheld,
		WhtDeducted:  row.WhtDeducted,
	}, nil
}

func (s *statisticsService) topContacts(ctx context.Context, orgID uuid.UUID, start, end time.Time) ([]ContactSpend, error) {
	var rows []ContactSpend
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			c.id   AS contact_id,
			c.name AS contact_name,
			COUNT(b.id)       AS box_count,
			SUM(b.total_amount) AS total
		FROM boxes b
		JOIN contacts c ON c.id = b.contact_id
		WHERE b.organization_id = ? AND b.deleted_at IS NULL
		  AND b.doc_date BETWEEN ? AND ?
		GROUP BY c.id, c.name
		ORDER BY total DESC
		LIMIT 5
	`, orgID, start, end).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank contacts: %w", err)
	}
	return rows, nil
}
