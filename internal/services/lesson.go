package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	pkgerrors "github.com/yungbote/lms-backend/internal/pkg/errors"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type LessonInput struct {
	Title       *string
	Description *string
	Duration    *string
	Order       *int
	Type        *types.LessonType
	VideoURL    *string
	Thumbnail   *string
	Content     *string
	Code        *[]types.CodeBlock
	Quiz        *[]types.QuizQuestion
	Resources   *[]types.Resource
	Metadata    *types.LessonMetadata
	IsPublished *bool

	// Create only, curriculum layout.
	SectionID    *uuid.UUID
	SectionOrder int
}

type LessonService interface {
	List(ctx context.Context, courseID uuid.UUID) ([]*LessonView, error)
	Get(ctx context.Context, courseID, lessonID uuid.UUID) (*LessonView, error)
	Create(ctx context.Context, courseID uuid.UUID, in LessonInput) (*types.Lesson, error)
	Update(ctx context.Context, courseID, lessonID uuid.UUID, in LessonInput) (*types.Lesson, error)
	Delete(ctx context.Context, courseID, lessonID uuid.UUID) error
}

type lessonService struct {
	db             *gorm.DB
	log            *logger.Logger
	lessonRepo     repos.LessonRepo
	curriculumRepo repos.CurriculumRepo
	courses        CourseService
	projection     ProjectionService
}

func NewLessonService(
	db *gorm.DB,
	log *logger.Logger,
	lessonRepo repos.LessonRepo,
	curriculumRepo repos.CurriculumRepo,
	courses CourseService,
	projection ProjectionService,
) LessonService {
	return &lessonService{
		db:             db,
		log:            log.With("service", "LessonService"),
		lessonRepo:     lessonRepo,
		curriculumRepo: curriculumRepo,
		courses:        courses,
		projection:     projection,
	}
}

func (s *lessonService) List(ctx context.Context, courseID uuid.UUID) ([]*LessonView, error) {
	view, err := s.projection.Project(dbctx.Of(ctx), courseID, OptionalActor(ctx))
	if err != nil {
		return nil, err
	}
	return view.Lessons, nil
}

func (s *lessonService) Get(ctx context.Context, courseID, lessonID uuid.UUID) (*LessonView, error) {
	lessons, err := s.List(ctx, courseID)
	if err != nil {
		return nil, err
	}
	for _, l := range lessons {
		if l.ID == lessonID {
			return l, nil
		}
	}
	return nil, apierr.NotFound("Lesson not found")
}

func validateLessonInput(in LessonInput, creating bool) error {
	if creating && (in.Title == nil || strings.TrimSpace(*in.Title) == "") {
		return apierr.Validation("title is required")
	}
	if !creating && in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return apierr.Validation("title cannot be empty")
	}
	if in.Type != nil && !in.Type.Valid() {
		return apierr.Validation("invalid lesson type")
	}
	if in.Order != nil && *in.Order < 0 {
		return apierr.Validation("order cannot be negative")
	}
	if in.Quiz != nil {
		for _, q := range *in.Quiz {
			if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
				return apierr.Validation("quiz correct_answer must index an option")
			}
		}
	}
	return nil
}

func (s *lessonService) Create(ctx context.Context, courseID uuid.UUID, in LessonInput) (*types.Lesson, error) {
	if err := validateLessonInput(in, true); err != nil {
		return nil, err
	}
	var created *types.Lesson
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.InTx(ctx, tx)
		course, _, err := s.courses.LoadManaged(inner, courseID, ActionManageLessons)
		if err != nil {
			return err
		}

		// Curriculum courses only project placed lessons.
		var sec *types.CurriculumSection
		switch {
		case course.LessonLayout == types.LayoutCurriculum && in.SectionID == nil:
			return apierr.Validation("section_id is required for the curriculum layout")
		case in.SectionID != nil && course.LessonLayout != types.LayoutCurriculum:
			return apierr.Validation("section_id requires the curriculum layout")
		case in.SectionID != nil:
			sec, err = s.curriculumRepo.GetSection(inner, *in.SectionID)
			if err != nil {
				return apierr.Store(err)
			}
			if sec == nil || sec.CourseID != course.ID {
				return apierr.NotFound("Section not found")
			}
		}

		lesson := &types.Lesson{
			CourseID:    course.ID,
			Title:       strings.TrimSpace(*in.Title),
			Description: deref(in.Description, ""),
			Duration:    deref(in.Duration, ""),
			Type:        deref(in.Type, types.LessonType("")),
			VideoURL:    deref(in.VideoURL, ""),
			Thumbnail:   deref(in.Thumbnail, ""),
			Content:     deref(in.Content, ""),
			Code:        datatypes.JSONSlice[types.CodeBlock](deref(in.Code, nil)),
			Quiz:        datatypes.JSONSlice[types.QuizQuestion](deref(in.Quiz, nil)),
			Resources:   datatypes.JSONSlice[types.Resource](deref(in.Resources, nil)),
			Metadata:    datatypes.NewJSONType(deref(in.Metadata, types.LessonMetadata{})),
			IsPublished: deref(in.IsPublished, false),
		}
		if in.Order != nil && *in.Order > 0 {
			lesson.Order = *in.Order
		} else {
			maxOrder, err := s.lessonRepo.MaxOrder(inner, course.ID)
			if err != nil {
				return apierr.Store(err)
			}
			lesson.Order = maxOrder + 1
		}

		if _, err := s.lessonRepo.Create(inner, []*types.Lesson{lesson}); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return apierr.Conflict("A lesson with this order already exists in the course")
			}
			return apierr.Store(err)
		}

		if sec != nil {
			item := &types.CurriculumItem{SectionID: sec.ID, LessonID: lesson.ID, Order: in.SectionOrder}
			if err := s.curriculumRepo.AddItem(inner, item); err != nil {
				return apierr.Store(err)
			}
		}
		created = lesson
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Lesson created", "course_id", courseID, "lesson_id", created.ID)
	return created, nil
}

func lessonUpdates(in LessonInput) map[string]any {
	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Duration != nil {
		updates["duration"] = *in.Duration
	}
	if in.Order != nil && *in.Order > 0 {
		updates["position"] = *in.Order
	}
	if in.Type != nil {
		updates["type"] = *in.Type
	}
	if in.VideoURL != nil {
		updates["video_url"] = *in.VideoURL
	}
	if in.Thumbnail != nil {
		updates["thumbnail"] = *in.Thumbnail
	}
	if in.Content != nil {
		updates["content"] = *in.Content
	}
	if in.Code != nil {
		updates["code"] = datatypes.JSONSlice[types.CodeBlock](*in.Code)
	}
	if in.Quiz != nil {
		updates["quiz"] = datatypes.JSONSlice[types.QuizQuestion](*in.Quiz)
	}
	if in.Resources != nil {
		updates["resources"] = datatypes.JSONSlice[types.Resource](*in.Resources)
	}
	if in.Metadata != nil {
		updates["metadata"] = datatypes.NewJSONType(*in.Metadata)
	}
	if in.IsPublished != nil {
		updates["is_published"] = *in.IsPublished
	}
	return updates
}

// loadLesson returns the lesson only if it belongs to courseID.
func (s *lessonService) loadLesson(dbc dbctx.Context, courseID, lessonID uuid.UUID) (*types.Lesson, error) {
	found, err := s.lessonRepo.GetByIDs(dbc, []uuid.UUID{lessonID})
	if err != nil {
		return nil, apierr.Store(err)
	}
	if len(found) == 0 || found[0].CourseID != courseID {
		return nil, apierr.NotFound("Lesson not found")
	}
	return found[0], nil
}

func (s *lessonService) Update(ctx context.Context, courseID, lessonID uuid.UUID, in LessonInput) (*types.Lesson, error) {
	if err := validateLessonInput(in, false); err != nil {
		return nil, err
	}
	var updated *types.Lesson
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.InTx(ctx, tx)
		if _, _, err := s.courses.LoadManaged(inner, courseID, ActionManageLessons); err != nil {
			return err
		}
		if _, err := s.loadLesson(inner, courseID, lessonID); err != nil {
			return err
		}
		if err := s.lessonRepo.Update(inner, lessonID, lessonUpdates(in)); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return apierr.Conflict("A lesson with this order already exists in the course")
			}
			return apierr.Store(err)
		}
		l, err := s.loadLesson(inner, courseID, lessonID)
		if err != nil {
			return err
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *lessonService) Delete(ctx context.Context, courseID, lessonID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.InTx(ctx, tx)
		if _, _, err := s.courses.LoadManaged(inner, courseID, ActionManageLessons); err != nil {
			return err
		}
		if _, err := s.loadLesson(inner, courseID, lessonID); err != nil {
			return err
		}
		if err := s.lessonRepo.Delete(inner, lessonID); err != nil {
			if pkgerrors.IsNotFound(err) {
				return apierr.NotFound("Lesson not found")
			}
			return apierr.Store(err)
		}
		s.log.Info("Lesson deleted", "course_id", courseID, "lesson_id", lessonID)
		return nil
	})
}
