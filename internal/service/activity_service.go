package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

type ActivityResponse struct {
	ID         string     `json:"id"`
	BoxID      *uuid.UUID `json:"box_id,omitempty"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	Username   string     `json:"username,omitempty"`
	Action     string     `json:"action"`
	EntityID   string     `json:"entity_id,omitempty"`
	EntityName string     `json:"entity_name,omitempty"`
	Details    string     `json:"details,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type ActivityService interface {
	ListOrgActivity(ctx context.Context, orgID uuid.UUID, page, limit int) ([]ActivityResponse, int64, error)
	ListBoxActivity(ctx context.Context, orgID, boxID uuid.UUID, page, limit int) ([]ActivityResponse, int64, error)
}

type activityService struct {
	activityRepo repository.ActivityRepository
}

func NewActivityService(activityRepo repository.ActivityRepository) ActivityService {
	return &activityService{activityRepo: activityRepo}
}

func (s *activityService) ListOrgActivity(ctx context.Context, orgID uuid.UUID, page, limit int) ([]ActivityResponse, int64, error) {
	page, limit = clampPage(page, limit)
	logs, total, err := s.activityRepo.ListByOrganization(ctx, orgID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activity: %w", err)
	}
	return toActivityResponses(logs), total, nil
}

func (s *activityService) ListBoxActivity(ctx context.Context, orgID, boxID uuid.UUID, page, limit int) ([]ActivityResponse, int64, error) {
	page, limit = clampPage(page, limit)
	logs, total, err := s.activityRepo.ListByBox(ctx, orgID, boxID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list box activity: %w", err)
	}
	return toActivityResponses(logs), total, nil
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func toActivityResponses(logs []model.ActivityLog) []ActivityResponse {
	res := make([]ActivityResponse, 0, len(logs))
	for _, l := range logs {
		resp := ActivityResponse{
			ID:         l.ID.String(),
			BoxID:      l.BoxID,
			UserID:     l.UserID,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt,
		}
		if l.User != nil {
			resp.Username = l.User.Username
		}
		res = append(res, resp)
	}
	return res
}
