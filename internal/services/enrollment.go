package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/observability"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type EnrolledCourse struct {
	Course           *types.Course `json:"course"`
	EnrollmentID     uuid.UUID     `json:"enrollment_id"`
	EnrolledAt       time.Time     `json:"enrolled_at"`
	ReportedProgress *int          `json:"reported_progress,omitempty"`
	PercentComplete  int           `json:"percent_complete"`
	CompletedLessons int           `json:"completed_lessons"`
	TotalLessons     int           `json:"total_lessons"`
	// Points is the sum of points of completed lessons.
	Points int `json:"points"`
}

type CompletionResult struct {
	Entry            *types.ProgressEntry `json:"entry"`
	PercentComplete  int                  `json:"percent_complete"`
	CompletedLessons int                  `json:"completed_lessons"`
	TotalLessons     int                  `json:"total_lessons"`
	Certificate      *types.Certificate   `json:"certificate,omitempty"`
}

type EnrollmentService interface {
	Enroll(ctx context.Context, courseID uuid.UUID) (*types.Enrollment, error)
	ListEnrolled(ctx context.Context) ([]*EnrolledCourse, error)
	ReportProgress(ctx context.Context, courseID uuid.UUID, percent int) (*types.Enrollment, error)
	CompleteLesson(ctx context.Context, courseID, lessonID uuid.UUID) (*CompletionResult, error)
	// Summaries computes derived progress for every enrollment of studentID.
	Summaries(dbc dbctx.Context, studentID uuid.UUID) ([]*EnrolledCourse, error)
}

type enrollmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	enrollmentRepo repos.EnrollmentRepo
	projection     ProjectionService
	activities     ActivityService
	certificates   CertificateService
	now            func() time.Time
}

func NewEnrollmentService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	enrollmentRepo repos.EnrollmentRepo,
	projection ProjectionService,
	activities ActivityService,
	certificates CertificateService,
) EnrollmentService {
	return &enrollmentService{
		db:             db,
		log:            log.With("service", "EnrollmentService"),
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		projection:     projection,
		activities:     activities,
		certificates:   certificates,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, courseID uuid.UUID) (*types.Enrollment, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}

	var enrollment *types.Enrollment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.InTx(ctx, tx)
		course, err := s.projection.GetCourse(inner, courseID)
		if err != nil {
			return err
		}
		if !course.IsPublished && !canManage(&actor, course) {
			return apierr.NotFound("Course not found")
		}

		e := &types.Enrollment{CourseID: course.ID, StudentID: actor.ID, EnrolledAt: s.now()}
		created, err := s.enrollmentRepo.Insert(inner, e)
		if err != nil {
			return apierr.Store(err)
		}
		if !created {
			return apierr.Conflict("Already enrolled in this course")
		}

		_, lessons, err := s.projection.Layout(inner, course, false)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(lessons))
		for _, l := range lessons {
			ids = append(ids, l.ID)
		}
		if err := s.enrollmentRepo.SeedEntries(inner, e.ID, ids); err != nil {
			return apierr.Store(err)
		}
		if err := s.courseRepo.RecomputeStudentsCount(inner, course.ID); err != nil {
			return apierr.Store(err)
		}
		if err := s.activities.Record(inner, actor.ID, &course.ID, types.ActivityAccess,
			"Enrolled in "+course.Title, ""); err != nil {
			return apierr.Store(err)
		}
		enrollment = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Student enrolled", "course_id", courseID, "student_id", actor.ID)
	observability.Current().IncEnrollment()
	return enrollment, nil
}

func (s *enrollmentService) ListEnrolled(ctx context.Context) ([]*EnrolledCourse, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.Summaries(dbctx.Of(ctx), actor.ID)
}

func (s *enrollmentService) Summaries(dbc dbctx.Context, studentID uuid.UUID) ([]*EnrolledCourse, error) {
	enrollments, err := s.enrollmentRepo.ListByStudent(dbc, studentID)
	if err != nil {
		return nil, apierr.Store(err)
	}
	if len(enrollments) == 0 {
		return []*EnrolledCourse{}, nil
	}

	courseIDs := make([]uuid.UUID, 0, len(enrollments))
	enrollmentIDs := make([]uuid.UUID, 0, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
		enrollmentIDs = append(enrollmentIDs, e.ID)
	}
	courses, err := s.courseRepo.GetByIDs(dbc, courseIDs)
	if err != nil {
		return nil, apierr.Store(err)
	}
	courseByID := make(map[uuid.UUID]*types.Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}
	entries, err := s.enrollmentRepo.ListEntries(dbc, enrollmentIDs)
	if err != nil {
		return nil, apierr.Store(err)
	}
	entriesByEnrollment := map[uuid.UUID][]*types.ProgressEntry{}
	for _, pe := range entries {
		entriesByEnrollment[pe.EnrollmentID] = append(entriesByEnrollment[pe.EnrollmentID], pe)
	}

	out := make([]*EnrolledCourse, 0, len(enrollments))
	for _, e := range enrollments {
		course, ok := courseByID[e.CourseID]
		if !ok {
			continue
		}
		_, lessons, err := s.projection.Layout(dbc, course, false)
		if err != nil {
			return nil, err
		}
		completed := annotate(lessons, entriesByEnrollment[e.ID])
		points := 0
		for _, l := range lessons {
			if l.Completed {
				points += l.Points()
			}
		}
		out = append(out, &EnrolledCourse{
			Course:           course,
			EnrollmentID:     e.ID,
			EnrolledAt:       e.EnrolledAt,
			ReportedProgress: e.ReportedProgress,
			PercentComplete:  types.PercentComplete(completed, len(lessons)),
			CompletedLessons: completed,
			TotalLessons:     len(lessons),
			Points:           points,
		})
	}
	return out, nil
}

func (s *enrollmentService) ReportProgress(ctx context.Context, courseID uuid.UUID, percent int) (*types.Enrollment, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if percent < 0 || percent > 100 {
		return nil, apierr.Validation("progress must be between 0 and 100")
	}
	dbc := dbctx.Of(ctx)
	e, err := s.enrollmentRepo.Get(dbc, courseID, actor.ID)
	if err != nil {
		return nil, apierr.Store(err)
	}
	if e == nil {
		return nil, apierr.NotFound("Not enrolled in this course")
	}
	if err := s.enrollmentRepo.SetReportedProgress(dbc, e.ID, percent); err != nil {
		return nil, apierr.Store(err)
	}
	e.ReportedProgress = &percent
	return e, nil
}

func (s *enrollmentService) CompleteLesson(ctx context.Context, courseID, lessonID uuid.UUID) (*CompletionResult, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}

	var (
		result *CompletionResult
		course *types.Course
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.InTx(ctx, tx)
		c, err := s.projection.GetCourse(inner, courseID)
		if err != nil {
			return err
		}
		course = c
		e, err := s.enrollmentRepo.Get(inner, courseID, actor.ID)
		if err != nil {
			return apierr.Store(err)
		}
		if e == nil {
			return apierr.NotFound("Not enrolled in this course")
		}

		_, lessons, err := s.projection.Layout(inner, course, false)
		if err != nil {
			return err
		}
		belongs := false
		for _, l := range lessons {
			if l.ID == lessonID {
				belongs = true
				break
			}
		}
		if !belongs {
			return apierr.NotFound("Lesson not found in this course")
		}

		entry, err := s.enrollmentRepo.MarkCompleted(inner, e.ID, lessonID, s.now())
		if err != nil {
			return apierr.Store(err)
		}
		entries, err := s.enrollmentRepo.ListEntries(inner, []uuid.UUID{e.ID})
		if err != nil {
			return apierr.Store(err)
		}
		completed := annotate(lessons, entries)
		result = &CompletionResult{
			Entry:            entry,
			CompletedLessons: completed,
			TotalLessons:     len(lessons),
			PercentComplete:  types.PercentComplete(completed, len(lessons)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.Current().IncLessonCompleted()

	if result.PercentComplete == 100 && course.CertificateIncluded && s.certificates != nil {
		cert, err := s.certificates.Issue(ctx, course, actor.ID)
		if err != nil {
			s.log.Error("Certificate issuance failed", "course_id", course.ID, "student_id", actor.ID, "error", err)
		} else {
			result.Certificate = cert
		}
	}
	return result, nil
}
