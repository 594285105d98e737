package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type DeadlineInput struct {
	Title   string
	DueDate time.Time
	// StudentID targets one enrolled student. Nil fans out to every student
	// enrolled at creation time.
	StudentID *uuid.UUID
}

type DeadlineService interface {
	Create(ctx context.Context, courseID uuid.UUID, in DeadlineInput) ([]*types.Deadline, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*types.Deadline, error)
	ListUpcoming(ctx context.Context, limit int) ([]*types.Deadline, error)
	Complete(ctx context.Context, deadlineID uuid.UUID) error
}

type deadlineService struct {
	db             *gorm.DB
	log            *logger.Logger
	deadlineRepo   repos.DeadlineRepo
	enrollmentRepo repos.EnrollmentRepo
	courses        CourseService
	activities     ActivityService
	now            func() time.Time
}

func NewDeadlineService(
	db *gorm.DB,
	log *logger.Logger,
	deadlineRepo repos.DeadlineRepo,
	enrollmentRepo repos.EnrollmentRepo,
	courses CourseService,
	activities ActivityService,
) DeadlineService {
	return &deadlineService{
		db:             db,
		log:            log.With("service", "DeadlineService"),
		deadlineRepo:   deadlineRepo,
		enrollmentRepo: enrollmentRepo,
		courses:        courses,
		activities:     activities,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *deadlineService) Create(ctx context.Context, courseID uuid.UUID, in DeadlineInput) ([]*types.Deadline, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apierr.Validation("title is required")
	}
	if in.DueDate.IsZero() {
		return nil, apierr.Validation("due_date is required")
	}

	var out []*types.Deadline
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.InTx(ctx, tx)
		course, _, err := s.courses.LoadManaged(inner, courseID, ActionManageDeadline)
		if err != nil {
			return err
		}

		var students []uuid.UUID
		if in.StudentID != nil {
			e, err := s.enrollmentRepo.Get(inner, course.ID, *in.StudentID)
			if err != nil {
				return apierr.Store(err)
			}
			if e == nil {
				return apierr.Validation("student is not enrolled in this course")
			}
			students = append(students, *in.StudentID)
		} else {
			enrollments, err := s.enrollmentRepo.ListByCourses(inner, []uuid.UUID{course.ID})
			if err != nil {
				return apierr.Store(err)
			}
			for _, e := range enrollments {
				students = append(students, e.StudentID)
			}
		}

		rows := make([]*types.Deadline, 0, len(students))
		for _, id := range students {
			rows = append(rows, &types.Deadline{CourseID: course.ID, StudentID: id, Title: title, DueDate: in.DueDate.UTC()})
		}
		created, err := s.deadlineRepo.Create(inner, rows)
		if err != nil {
			return apierr.Store(err)
		}
		for _, d := range created {
			if err := s.activities.Record(inner, d.StudentID, &course.ID, types.ActivityNotification,
				"New deadline: "+title, course.Title); err != nil {
				return apierr.Store(err)
			}
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Deadlines created", "course_id", courseID, "count", len(out))
	return out, nil
}

func (s *deadlineService) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*types.Deadline, error) {
	dbc := dbctx.Of(ctx)
	if _, _, err := s.courses.LoadManaged(dbc, courseID, ActionManageDeadline); err != nil {
		return nil, err
	}
	out, err := s.deadlineRepo.ListByCourse(dbc, courseID)
	if err != nil {
		return nil, apierr.Store(err)
	}
	return out, nil
}

func (s *deadlineService) ListUpcoming(ctx context.Context, limit int) ([]*types.Deadline, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.deadlineRepo.ListUpcomingByStudent(dbctx.Of(ctx), actor.ID, s.now(), limit)
	if err != nil {
		return nil, apierr.Store(err)
	}
	return out, nil
}

func (s *deadlineService) Complete(ctx context.Context, deadlineID uuid.UUID) error {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return err
	}
	ok, err := s.deadlineRepo.MarkCompleted(dbctx.Of(ctx), deadlineID, actor.ID)
	if err != nil {
		return apierr.Store(err)
	}
	if !ok {
		return apierr.NotFound("Deadline not found")
	}
	return nil
}
