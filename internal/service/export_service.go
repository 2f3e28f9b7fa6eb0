package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/boxrule"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// --- DTOs ---

type ExportBoxesRequest struct {
	StartDate string `form:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate   string `form:"end_date" binding:"required"`   // YYYY-MM-DD
}

// ExportResult is the generated workbook plus what got left out and why.
type ExportResult struct {
	FileName string
	Content  []byte
	Exported int
	Skipped  []SkippedBox
}

// SkippedBox records a completed box excluded from the export because
// validation still finds blocking errors on it.
type SkippedBox struct {
	BoxID  string `json:"box_id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// --- Interface ---

type ExportService interface {
	// ExportBoxes renders the organization's completed boxes in the date range
	// as an xlsx ledger. Boxes failing validation with error severity are
	// skipped, not silently included.
	ExportBoxes(ctx context.Context, orgID uuid.UUID, req ExportBoxesRequest, userID string) (ExportResult, error)
}

type exportService struct {
	boxRepo      repository.BoxRepository
	activityRepo repository.ActivityRepository
	taxService   TaxService
}

func NewExportService(boxRepo repository.BoxRepository, activityRepo repository.ActivityRepository, taxService TaxService) ExportService {
	return &exportService{boxRepo: boxRepo, activityRepo: activityRepo, taxService: taxService}
}

var exportHeaders = []string{
	"Doc Date", "Name", "Type", "Contact", "Contact Tax ID",
	"Sub Total", "VAT", "WHT", "Total", "Status", "Booked At",
}

func (s *exportService) ExportBoxes(ctx context.Context, orgID uuid.UUID, req ExportBoxesRequest, userID string) (ExportResult, error) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return ExportResult{}, fmt.Errorf("invalid start_date format (expected YYYY-MM-DD): %w", err)
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return ExportResult{}, fmt.Errorf("invalid end_date format (expected YYYY-MM-DD): %w", err)
	}
	if end.Before(start) {
		return ExportResult{}, fmt.Errorf("end_date must not be before start_date")
	}

	boxes, err := s.boxRepo.ListCompletedInRange(ctx, orgID, start, end)
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to fetch boxes for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Boxes"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return ExportResult{}, fmt.Errorf("failed to write header: %w", err)
		}
	}
	endCell, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	_ = f.SetCellStyle(sheet, "A1", endCell, headerStyle)

	var skipped []SkippedBox
	row := 2
	for _, box := range boxes {
		result := s.validateForExport(ctx, box)
		if !result.IsValid {
			skipped = append(skipped, SkippedBox{
				BoxID:  box.ID.String(),
				Name:   box.Name,
				Reason: result.Summary,
			})
			continue
		}

		contactName, contactTaxID := "", ""
		if box.Contact != nil {
			contactName = box.Contact.Name
			contactTaxID = box.Contact.TaxID
		}
		bookedAt := ""
		if box.BookedAt != nil {
			bookedAt = box.BookedAt.Format("2006-01-02 15:04")
		}

		subTotal, _ := box.SubTotal.Float64()
		vat, _ := box.VatAmount.Float64()
		wht, _ := box.WhtAmount.Float64()
		total, _ := box.TotalAmount.Float64()

		values := []interface{}{
			box.DocDate.Format("2006-01-02"), box.Name, box.Type, contactName, contactTaxID,
			subTotal, vat, wht, total, boxrule.StatusLabel(box.Status), bookedAt,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return ExportResult{}, fmt.Errorf("failed to write row: %w", err)
			}
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 12)
	_ = f.SetColWidth(sheet, "B", "B", 30)
	_ = f.SetColWidth(sheet, "D", "D", 25)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return ExportResult{}, fmt.Errorf("failed to render workbook: %w", err)
	}

	exported := row - 2
	details, _ := json.Marshal(map[string]interface{}{
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
		"exported":   exported,
		"skipped":    len(skipped),
	})
	entry := &model.ActivityLog{
		OrganizationID: orgID,
		Action:         model.ActionExportBoxes,
		Details:        string(details),
	}
	if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
		entry.UserID = &parsed
	}
	if err := s.activityRepo.Log(ctx, entry); err != nil {
		return ExportResult{}, fmt.Errorf("failed to record export: %w", err)
	}

	return ExportResult{
		FileName: fmt.Sprintf("boxes_%s_%s.xlsx", req.StartDate, req.EndDate),
		Content:  buf.Bytes(),
		Exported: exported,
		Skipped:  skipped,
	}, nil
}

// validateForExport runs the rule battery without the duplicate-candidate
// query; duplicates are warnings and never block an export anyway.
func (s *exportService) validateForExport(ctx context.Context, box model.Box) boxrule.ValidationResult {
	input := boxrule.ValidationInput{
		Box:       box,
		Documents: box.Documents,
		Now:       time.Now(),
	}
	if box.HasVat {
		if rate, err := s.taxService.ActiveRate(ctx, model.TaxTypeVAT, box.DocDate); err == nil {
			input.VatRate = &rate
		}
	}
	return boxrule.Validate(input)
}
