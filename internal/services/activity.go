package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type ActivityService interface {
	Record(dbc dbctx.Context, userID uuid.UUID, courseID *uuid.UUID, kind types.ActivityType, title, description string) error
	ListMine(ctx context.Context, limit int) ([]*types.Activity, error)
	MarkRead(ctx context.Context, activityID uuid.UUID) error
}

type activityService struct {
	log          *logger.Logger
	activityRepo repos.ActivityRepo
}

func NewActivityService(log *logger.Logger, activityRepo repos.ActivityRepo) ActivityService {
	return &activityService{log: log.With("service", "ActivityService"), activityRepo: activityRepo}
}

func (s *activityService) Record(dbc dbctx.Context, userID uuid.UUID, courseID *uuid.UUID, kind types.ActivityType, title, description string) error {
	_, err := s.activityRepo.Create(dbc, []*types.Activity{{
		UserID:      userID,
		CourseID:    courseID,
		Type:        kind,
		Title:       title,
		Description: description,
	}})
	return err
}

func (s *activityService) ListMine(ctx context.Context, limit int) ([]*types.Activity, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.activityRepo.ListByUser(dbctx.Of(ctx), actor.ID, limit)
	if err != nil {
		return nil, apierr.Store(err)
	}
	return out, nil
}

func (s *activityService) MarkRead(ctx context.Context, activityID uuid.UUID) error {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return err
	}
	ok, err := s.activityRepo.MarkRead(dbctx.Of(ctx), activityID, actor.ID)
	if err != nil {
		return apierr.Store(err)
	}
	if !ok {
		return apierr.NotFound("Activity not found")
	}
	return nil
}
