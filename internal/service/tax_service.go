package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateTaxRateRequest struct {
	TaxType       string `json:"tax_type" binding:"required,oneof=VAT WHT"`
	Rate          string `json:"rate" binding:"required"`           // decimal string, e.g. "0.07"
	EffectiveFrom string `json:"effective_from" binding:"required"` // YYYY-MM-DD
	EffectiveTo   string `json:"effective_to"`                      // YYYY-MM-DD, nullable
	Description   string `json:"description"`
}

type TaxRateResponse struct {
	ID            string  `json:"id"`
	TaxType       string  `json:"tax_type"`
	Rate          string  `json:"rate"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to"`
	Description   string  `json:"description"`
	CreatedAt     string  `json:"created_at"`
}

// --- Interface ---

type TaxService interface {
	ListTaxRates(ctx context.Context) ([]TaxRateResponse, error)
	CreateTaxRate(ctx context.Context, req CreateTaxRateRequest, userID string) (TaxRateResponse, error)
	DeleteTaxRate(ctx context.Context, id string, userID string) error
	// ActiveRate returns the statutory rate of the given type in force on
	// targetDate. ErrNotFound when no rule covers the date.
	ActiveRate(ctx context.Context, taxType string, targetDate time.Time) (decimal.Decimal, error)
}

type taxService struct {
	db *gorm.DB
}

func NewTaxService(db *gorm.DB) TaxService {
	return &taxService{db: db}
}

// --- Implementation ---

func (s *taxService) ListTaxRates(ctx context.Context) ([]TaxRateResponse, error) {
	var rates []model.TaxRate
	if err := s.db.WithContext(ctx).Order("effective_from DESC").Find(&rates).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch tax rates: %w", err)
	}

	res := make([]TaxRateResponse, 0, len(rates))
	for _, r := range rates {
		res = append(res, toTaxRateResponse(r))
	}
	return res, nil
}

func (s *taxService) CreateTaxRate(ctx context.Context, req CreateTaxRateRequest, userID string) (TaxRateResponse, error) {
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		return TaxRateResponse{}, fmt.Errorf("invalid rate value: %w", err)
	}

	effectiveFrom, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		return TaxRateResponse{}, fmt.Errorf("invalid effective_from date format (expected YYYY-MM-DD): %w", err)
	}

	var effectiveTo *time.Time
	if req.EffectiveTo != "" {
		t, parseErr := time.Parse("2006-01-02", req.EffectiveTo)
		if parseErr != nil {
			return TaxRateResponse{}, fmt.Errorf("invalid effective_to date format (expected YYYY-MM-DD): %w", parseErr)
		}
		effectiveTo = &t
	}

	if err := s.checkOverlap(ctx, req.TaxType, effectiveFrom, effectiveTo); err != nil {
		return TaxRateResponse{}, err
	}

	rule := model.TaxRate{
		TaxType:       req.TaxType,
		Rate:          rate,
		EffectiveFrom: effectiveFrom,
		EffectiveTo:   effectiveTo,
		Description:   req.Description,
	}

	if err := s.db.WithContext(ctx).Create(&rule).Error; err != nil {
		return TaxRateResponse{}, fmt.Errorf("failed to create tax rate: %w", err)
	}

	s.writeLog(ctx, userID, model.ActionCreateTaxRate, rule.ID.String(), req.TaxType+" "+rate.StringFixed(4))

	return toTaxRateResponse(rule), nil
}

func (s *taxService) DeleteTaxRate(ctx context.Context, id string, userID string) error {
	rateID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid tax rate id: %w", err)
	}

	var rule model.TaxRate
	if err := s.db.WithContext(ctx).First(&rule, "id = ?", rateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("tax rate: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to fetch tax rate: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&rule).Error; err != nil {
		return fmt.Errorf("failed to delete tax rate: %w", err)
	}

	s.writeLog(ctx, userID, model.ActionDeleteTaxRate, rule.ID.String(), rule.TaxType+" "+rule.Rate.StringFixed(4))
	return nil
}

func (s *taxService) ActiveRate(ctx context.Context, taxType string, targetDate time.Time) (decimal.Decimal, error) {
	var rule model.TaxRate
	err := s.db.WithContext(ctx).
		Where("tax_type = ? AND effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)",
			taxType, targetDate, targetDate).
		Order("effective_from DESC").
		First(&rule).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, fmt.Errorf("no active %s rate on %s: %w", taxType, targetDate.Format("2006-01-02"), ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("failed to query tax rate: %w", err)
	}

	return rule.Rate, nil
}

// --- Helpers ---

func (s *taxService) checkOverlap(ctx context.Context, taxType string, from time.Time, to *time.Time) error {
	upper := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	if to != nil {
		upper = *to
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&model.TaxRate{}).
		Where("tax_type = ?", taxType).
		Where("effective_from <= ?", upper).
		Where("(effective_to IS NULL OR effective_to >= ?)", from).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check overlap: %w", err)
	}

	if count > 0 {
		return fmt.Errorf("a %s rate already exists with overlapping effective dates", taxType)
	}
	return nil
}

func toTaxRateResponse(r model.TaxRate) TaxRateResponse {
	resp := TaxRateResponse{
		ID:            r.ID.String(),
		TaxType:       r.TaxType,
		Rate:          r.Rate.StringFixed(4),
		EffectiveFrom: r.EffectiveFrom.Format("2006-01-02"),
		Description:   r.Description,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if r.EffectiveTo != nil {
		s := r.EffectiveTo.Format("2006-01-02")
		resp.EffectiveTo = &s
	}
	return resp
}

func (s *taxService) writeLog(ctx context.Context, userID, action, entityID, entityName string) {
	entry := model.ActivityLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	}
	if parsed, err := uuid.Parse(userID); err == nil {
		entry.UserID = &parsed
	}
	// Best-effort: tax rates are platform-global, not org-scoped
	_ = s.db.WithContext(ctx).Create(&entry).Error
}
