package services

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/domain/learning"
	pkgerrors "github.com/yungbote/lms-backend/internal/pkg/errors"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

// CourseInput carries create and partial-update fields. Nil means "leave
// unchanged" on update.
type CourseInput struct {
	Title               *string
	Description         *string
	InstructorInfo      *types.InstructorInfo
	Price               *float64
	OriginalPrice       *float64
	Image               *string
	Thumbnail           *string
	Category            *string
	Level               *types.Level
	Duration            *string
	Language            *string
	Tags                *[]string
	Learning            *[]string
	Requirements        *[]string
	Features            *[]string
	Subtitles           *[]string
	IsPublished         *bool
	IsFeatured          *bool
	CertificateIncluded *bool
	LifetimeAccess      *bool
	InstructorIDs       *[]uuid.UUID

	// Create only. The layout is fixed once the course exists.
	LessonLayout types.LessonLayout
	Sections     []SectionInput
}

type SectionInput struct {
	Title string
	Order int
}

type CourseListItem struct {
	*types.Course
	InstructorIDs []uuid.UUID `json:"instructor_ids"`
}

type CourseList struct {
	Courses []*CourseListItem `json:"courses"`
	Total   int64             `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
}

type ReviewInput struct {
	Rating  int
	Comment string
}

type CourseService interface {
	List(ctx context.Context, f repos.CourseFilter) (*CourseList, error)
	Get(ctx context.Context, courseID uuid.UUID) (*CourseView, error)
	Create(ctx context.Context, in CourseInput) (*types.Course, error)
	Update(ctx context.Context, courseID uuid.UUID, in CourseInput) (*types.Course, error)
	Delete(ctx context.Context, courseID uuid.UUID) error
	AddReview(ctx context.Context, courseID uuid.UUID, in ReviewInput) (*types.CourseReview, error)
	ListReviews(ctx context.Context, courseID uuid.UUID) ([]*types.CourseReview, error)
	// LoadManaged returns the course after checking the caller may perform
	// action on it. The role check runs before the lookup.
	LoadManaged(dbc dbctx.Context, courseID uuid.UUID, action Action) (*types.Course, Actor, error)
}

type courseService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	curriculumRepo repos.CurriculumRepo
	reviewRepo     repos.ReviewRepo
	enrollmentRepo repos.EnrollmentRepo
	userRepo       repos.UserRepo
	projection     ProjectionService
}

func NewCourseService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	curriculumRepo repos.CurriculumRepo,
	reviewRepo repos.ReviewRepo,
	enrollmentRepo repos.EnrollmentRepo,
	userRepo repos.UserRepo,
	projection ProjectionService,
) CourseService {
	return &courseService{
		db:             db,
		log:            log.With("service", "CourseService"),
		courseRepo:     courseRepo,
		curriculumRepo: curriculumRepo,
		reviewRepo:     reviewRepo,
		enrollmentRepo: enrollmentRepo,
		userRepo:       userRepo,
		projection:     projection,
	}
}

func (s *courseService) List(ctx context.Context, f repos.CourseFilter) (*CourseList, error) {
	caller := OptionalActor(ctx)
	if caller == nil || (caller.Role != types.RoleAdmin && caller.Role != types.RoleInstructor) {
		published := true
		f.Published = &published
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	courses, total, err := s.courseRepo.List(dbctx.Of(ctx), f)
	if err != nil {
		return nil, apierr.Store(err)
	}
	items := make([]*CourseListItem, 0, len(courses))
	for _, c := range courses {
		items = append(items, &CourseListItem{Course: c, InstructorIDs: c.InstructorIDs()})
	}
	return &CourseList{Courses: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (s *courseService) Get(ctx context.Context, courseID uuid.UUID) (*CourseView, error) {
	return s.projection.Project(dbctx.Of(ctx), courseID, OptionalActor(ctx))
}

func (s *courseService) LoadManaged(dbc dbctx.Context, courseID uuid.UUID, action Action) (*types.Course, Actor, error) {
	actor, err := ActorFrom(dbc.Ctx)
	if err != nil {
		return nil, Actor{}, err
	}
	if err := CheckRole(actor, action); err != nil {
		return nil, actor, err
	}
	course, err := s.projection.GetCourse(dbc, courseID)
	if err != nil {
		return nil, actor, err
	}
	if err := Authorize(actor, action, course.InstructorIDs()); err != nil {
		return nil, actor, err
	}
	return course, actor, nil
}

func validateCourseInput(in CourseInput, creating bool) error {
	if creating && (in.Title == nil || strings.TrimSpace(*in.Title) == "") {
		return apierr.Validation("title is required")
	}
	if !creating && in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return apierr.Validation("title cannot be empty")
	}
	if in.Level != nil && !in.Level.Valid() {
		return apierr.Validation("level must be Beginner, Intermediate or Advanced")
	}
	if (in.Price != nil && *in.Price < 0) || (in.OriginalPrice != nil && *in.OriginalPrice < 0) {
		return apierr.Validation("price cannot be negative")
	}
	if creating {
		switch in.LessonLayout {
		case "", types.LayoutFlat:
			if len(in.Sections) > 0 {
				return apierr.Validation("sections require the curriculum layout")
			}
		case types.LayoutCurriculum:
		default:
			return apierr.Validation("lesson_layout must be flat or curriculum")
		}
	}
	for _, sec := range in.Sections {
		if strings.TrimSpace(sec.Title) == "" {
			return apierr.Validation("section title is required")
		}
	}
	return nil
}

func stringSlice(p *[]string) datatypes.JSONSlice[string] {
	if p == nil {
		return datatypes.JSONSlice[string]{}
	}
	return datatypes.JSONSlice[string](*p)
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func (s *courseService) Create(ctx context.Context, in CourseInput) (*types.Course, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, ActionCreateCourse, nil); err != nil {
		return nil, err
	}
	if err := validateCourseInput(in, true); err != nil {
		return nil, err
	}

	course := &types.Course{
		Title:               strings.TrimSpace(*in.Title),
		Description:         deref(in.Description, ""),
		Price:               deref(in.Price, 0),
		OriginalPrice:       deref(in.OriginalPrice, 0),
		Image:               deref(in.Image, ""),
		Thumbnail:           deref(in.Thumbnail, ""),
		Category:            deref(in.Category, ""),
		Level:               deref(in.Level, types.Level("")),
		Duration:            deref(in.Duration, ""),
		Language:            deref(in.Language, ""),
		Tags:                stringSlice(in.Tags),
		Learning:            stringSlice(in.Learning),
		Requirements:        stringSlice(in.Requirements),
		Features:            stringSlice(in.Features),
		Subtitles:           stringSlice(in.Subtitles),
		IsPublished:         deref(in.IsPublished, false),
		IsFeatured:          deref(in.IsFeatured, false),
		CertificateIncluded: deref(in.CertificateIncluded, true),
		LifetimeAccess:      deref(in.LifetimeAccess, true),
		LessonLayout:        in.LessonLayout,
	}
	if course.LessonLayout == "" {
		course.LessonLayout = types.LayoutFlat
	}
	if course.Language == "" {
		course.Language = "English"
	}

	instructorIDs := []uuid.UUID{}
	if actor.Role == types.RoleAdmin && in.InstructorIDs != nil {
		instructorIDs = append(instructorIDs, (*in.InstructorIDs)...)
	}
	if actor.Role == types.RoleInstructor {
		instructorIDs = append(instructorIDs, actor.ID)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.InTx(ctx, tx)
		info := types.InstructorInfo{}
		if in.InstructorInfo != nil {
			info = *in.InstructorInfo
		} else if len(instructorIDs) > 0 {
			info = s.defaultInstructorInfo(inner, instructorIDs[0])
		}
		course.InstructorInfo = datatypes.NewJSONType(info)

		if _, err := s.courseRepo.Create(inner, []*types.Course{course}); err != nil {
			return apierr.Store(err)
		}
		if err := s.courseRepo.SetInstructors(inner, course.ID, instructorIDs); err != nil {
			return apierr.Store(err)
		}
		if len(in.Sections) > 0 {
			sections := make([]*types.CurriculumSection, 0, len(in.Sections))
			for i, sec := range in.Sections {
				order := sec.Order
				if order == 0 {
					order = i + 1
				}
				sections = append(sections, &types.CurriculumSection{CourseID: course.ID, Title: strings.TrimSpace(sec.Title), Order: order})
			}
			if err := s.curriculumRepo.Replace(inner, course.ID, sections); err != nil {
				return apierr.Store(err)
			}
		}
		for _, id := range instructorIDs {
			course.Instructors = append(course.Instructors, types.CourseInstructor{CourseID: course.ID, UserID: id})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Course created", "course_id", course.ID, "user_id", actor.ID)
	return course, nil
}

func (s *courseService) defaultInstructorInfo(dbc dbctx.Context, userID uuid.UUID) types.InstructorInfo {
	users, err := s.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil || len(users) == 0 {
		return types.InstructorInfo{}
	}
	u := users[0]
	return types.InstructorInfo{Name: u.Name, Title: u.Title, Bio: u.Bio, Image: u.AvatarURL, Experience: u.Experience}
}

func courseUpdates(in CourseInput) map[string]any {
	updates := map[string]any{}
	set := func(col string, v any) { updates[col] = v }
	if in.Title != nil {
		set("title", strings.TrimSpace(*in.Title))
	}
	if in.Description != nil {
		set("description", *in.Description)
	}
	if in.InstructorInfo != nil {
		set("instructor_info", datatypes.NewJSONType(*in.InstructorInfo))
	}
	if in.Price != nil {
		set("price", *in.Price)
	}
	if in.OriginalPrice != nil {
		set("original_price", *in.OriginalPrice)
	}
	if in.Image != nil {
		set("image", *in.Image)
	}
	if in.Thumbnail != nil {
		set("thumbnail", *in.Thumbnail)
	}
	if in.Category != nil {
		set("category", *in.Category)
	}
	if in.Level != nil {
		set("level", *in.Level)
	}
	if in.Duration != nil {
		set("duration", *in.Duration)
	}
	if in.Language != nil {
		set("language", *in.Language)
	}
	if in.Tags != nil {
		set("tags", stringSlice(in.Tags))
	}
	if in.Learning != nil {
		set("learning", stringSlice(in.Learning))
	}
	if in.Requirements != nil {
		set("requirements", stringSlice(in.Requirements))
	}
	if in.Features != nil {
		set("features", stringSlice(in.Features))
	}
	if in.Subtitles != nil {
		set("subtitles", stringSlice(in.Subtitles))
	}
	if in.IsPublished != nil {
		set("is_published", *in.IsPublished)
	}
	if in.IsFeatured != nil {
		set("is_featured", *in.IsFeatured)
	}
	if in.CertificateIncluded != nil {
		set("certificate_included", *in.CertificateIncluded)
	}
	if in.LifetimeAccess != nil {
		set("lifetime_access", *in.LifetimeAccess)
	}
	return updates
}

func (s *courseService) Update(ctx context.Context, courseID uuid.UUID, in CourseInput) (*types.Course, error) {
	if err := validateCourseInput(in, false); err != nil {
		return nil, err
	}
	var updated *types.Course
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.InTx(ctx, tx)
		_, actor, err := s.LoadManaged(inner, courseID, ActionUpdateCourse)
		if err != nil {
			return err
		}
		if in.InstructorIDs != nil && actor.Role != types.RoleAdmin {
			return apierr.Authorization("only admins may change course instructors")
		}
		if err := s.courseRepo.Update(inner, courseID, courseUpdates(in)); err != nil {
			if pkgerrors.IsNotFound(err) {
				return apierr.NotFound("Course not found")
			}
			return apierr.Store(err)
		}
		if in.InstructorIDs != nil {
			if err := s.courseRepo.SetInstructors(inner, courseID, *in.InstructorIDs); err != nil {
				return apierr.Store(err)
			}
		}
		c, err := s.projection.GetCourse(inner, courseID)
		if err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *courseService) Delete(ctx context.Context, courseID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.InTx(ctx, tx)
		if _, _, err := s.LoadManaged(inner, courseID, ActionDeleteCourse); err != nil {
			return err
		}
		if err := s.courseRepo.DeleteCascade(inner, courseID); err != nil {
			if pkgerrors.IsNotFound(err) {
				return apierr.NotFound("Course not found")
			}
			return apierr.Store(err)
		}
		s.log.Info("Course deleted", "course_id", courseID)
		return nil
	})
}

func (s *courseService) AddReview(ctx context.Context, courseID uuid.UUID, in ReviewInput) (*types.CourseReview, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	comment := strings.TrimSpace(in.Comment)
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apierr.Validation("rating must be between 1 and 5")
	}
	if len([]rune(comment)) > learning.MaxReviewComment {
		return nil, apierr.Validation("comment is too long")
	}

	var review *types.CourseReview
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.InTx(ctx, tx)
		if _, err := s.projection.GetCourse(inner, courseID); err != nil {
			return err
		}
		e, err := s.enrollmentRepo.Get(inner, courseID, actor.ID)
		if err != nil {
			return apierr.Store(err)
		}
		if e == nil {
			return apierr.Authorization("only enrolled students can review this course")
		}
		users, err := s.userRepo.GetByIDs(inner, []uuid.UUID{actor.ID})
		if err != nil {
			return apierr.Store(err)
		}
		r := &types.CourseReview{CourseID: courseID, UserID: actor.ID, Rating: in.Rating, Comment: comment}
		if len(users) > 0 {
			r.Name, r.Avatar = users[0].Name, users[0].AvatarURL
		}
		if err := s.reviewRepo.Create(inner, r); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return apierr.Conflict("You have already reviewed this course")
			}
			return apierr.Store(err)
		}
		avg, _, err := s.reviewRepo.AverageRating(inner, courseID)
		if err != nil {
			return apierr.Store(err)
		}
		if err := s.courseRepo.Update(inner, courseID, map[string]any{"rating": math.Round(avg*10) / 10}); err != nil {
			return apierr.Store(err)
		}
		review = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *courseService) ListReviews(ctx context.Context, courseID uuid.UUID) ([]*types.CourseReview, error) {
	out, err := s.reviewRepo.ListByCourse(dbctx.Of(ctx), courseID)
	if err != nil {
		return nil, apierr.Store(err)
	}
	return out, nil
}
