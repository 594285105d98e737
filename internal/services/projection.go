package services

import (
	"sort"

	"github.com/google/uuid"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type LessonView struct {
	*types.Lesson
	// EffectiveOrder is the position the lesson is shown at; a curriculum
	// item order overrides the lesson's own.
	EffectiveOrder int  `json:"effective_order"`
	Completed      bool `json:"completed"`
}

type SectionView struct {
	ID      uuid.UUID     `json:"id"`
	Title   string        `json:"title"`
	Order   int           `json:"order"`
	Lessons []*LessonView `json:"lessons"`
}

type CourseView struct {
	*types.Course
	InstructorIDs    []uuid.UUID    `json:"instructor_ids"`
	Sections         []*SectionView `json:"sections,omitempty"`
	Lessons          []*LessonView  `json:"lessons"`
	IsEnrolled       bool           `json:"is_enrolled"`
	PercentComplete  int            `json:"percent_complete"`
	CompletedLessons int            `json:"completed_lessons"`
	TotalLessons     int            `json:"total_lessons"`
}

type ProjectionService interface {
	// Project renders the course as the caller sees it, annotated with the
	// caller's progress. caller may be nil.
	Project(dbc dbctx.Context, courseID uuid.UUID, caller *Actor) (*CourseView, error)
	// Layout returns the ordered lessons of course without progress.
	Layout(dbc dbctx.Context, course *types.Course, includeDrafts bool) ([]*SectionView, []*LessonView, error)
	GetCourse(dbc dbctx.Context, courseID uuid.UUID) (*types.Course, error)
}

type projectionService struct {
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	lessonRepo     repos.LessonRepo
	curriculumRepo repos.CurriculumRepo
	enrollmentRepo repos.EnrollmentRepo
}

func NewProjectionService(
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	lessonRepo repos.LessonRepo,
	curriculumRepo repos.CurriculumRepo,
	enrollmentRepo repos.EnrollmentRepo,
) ProjectionService {
	return &projectionService{
		log:            log.With("service", "ProjectionService"),
		courseRepo:     courseRepo,
		lessonRepo:     lessonRepo,
		curriculumRepo: curriculumRepo,
		enrollmentRepo: enrollmentRepo,
	}
}

func (s *projectionService) GetCourse(dbc dbctx.Context, courseID uuid.UUID) (*types.Course, error) {
	found, err := s.courseRepo.GetByIDs(dbc, []uuid.UUID{courseID})
	if err != nil {
		return nil, apierr.Store(err)
	}
	if len(found) == 0 {
		return nil, apierr.NotFound("Course not found")
	}
	return found[0], nil
}

// canManage reports whether caller may see drafts of course.
func canManage(caller *Actor, course *types.Course) bool {
	if caller == nil {
		return false
	}
	if caller.Role == types.RoleAdmin {
		return true
	}
	if caller.Role != types.RoleInstructor {
		return false
	}
	for _, id := range course.InstructorIDs() {
		if id == caller.ID {
			return true
		}
	}
	return false
}

func (s *projectionService) Project(dbc dbctx.Context, courseID uuid.UUID, caller *Actor) (*CourseView, error) {
	course, err := s.GetCourse(dbc, courseID)
	if err != nil {
		return nil, err
	}
	manager := canManage(caller, course)
	if !course.IsPublished && !manager {
		return nil, apierr.NotFound("Course not found")
	}

	sections, lessons, err := s.Layout(dbc, course, manager)
	if err != nil {
		return nil, err
	}
	view := &CourseView{
		Course:        course,
		InstructorIDs: course.InstructorIDs(),
		Sections:      sections,
		Lessons:       lessons,
		TotalLessons:  len(lessons),
	}

	if caller == nil {
		return view, nil
	}
	enrollment, err := s.enrollmentRepo.Get(dbc, course.ID, caller.ID)
	if err != nil {
		return nil, apierr.Store(err)
	}
	if enrollment == nil {
		return view, nil
	}
	entries, err := s.enrollmentRepo.ListEntries(dbc, []uuid.UUID{enrollment.ID})
	if err != nil {
		return nil, apierr.Store(err)
	}
	view.IsEnrolled = true
	view.CompletedLessons = annotate(lessons, entries)
	view.PercentComplete = types.PercentComplete(view.CompletedLessons, view.TotalLessons)
	return view, nil
}

// annotate marks completed lessons and returns how many were marked. Ledger
// entries for lessons no longer projected are ignored.
func annotate(lessons []*LessonView, entries []*types.ProgressEntry) int {
	done := make(map[uuid.UUID]bool, len(entries))
	for _, e := range entries {
		if e.Completed {
			done[e.LessonID] = true
		}
	}
	n := 0
	for _, l := range lessons {
		l.Completed = done[l.ID]
		if l.Completed {
			n++
		}
	}
	return n
}

func (s *projectionService) Layout(dbc dbctx.Context, course *types.Course, includeDrafts bool) ([]*SectionView, []*LessonView, error) {
	all, err := s.lessonRepo.ListByCourse(dbc, course.ID)
	if err != nil {
		return nil, nil, apierr.Store(err)
	}
	visible := make([]*types.Lesson, 0, len(all))
	for _, l := range all {
		if l.IsPublished || includeDrafts {
			visible = append(visible, l)
		}
	}

	if course.LessonLayout != types.LayoutCurriculum {
		out := make([]*LessonView, 0, len(visible))
		for _, l := range visible {
			out = append(out, &LessonView{Lesson: l, EffectiveOrder: l.Order})
		}
		return nil, out, nil
	}

	sections, err := s.curriculumRepo.ListByCourse(dbc, course.ID)
	if err != nil {
		return nil, nil, apierr.Store(err)
	}
	byID := make(map[uuid.UUID]*types.Lesson, len(visible))
	for _, l := range visible {
		byID[l.ID] = l
	}

	placed := map[uuid.UUID]bool{}
	views := make([]*SectionView, 0, len(sections))
	flat := make([]*LessonView, 0, len(visible))
	for _, sec := range sections {
		sv := &SectionView{ID: sec.ID, Title: sec.Title, Order: sec.Order, Lessons: []*LessonView{}}
		for _, item := range sec.Items {
			l, ok := byID[item.LessonID]
			if !ok {
				if includeDrafts {
					s.log.Warn("Curriculum item references missing lesson",
						"course_id", course.ID, "section_id", sec.ID, "lesson_id", item.LessonID)
				}
				continue
			}
			if placed[l.ID] {
				continue
			}
			placed[l.ID] = true
			eff := l.Order
			if item.Order != 0 {
				eff = item.Order
			}
			sv.Lessons = append(sv.Lessons, &LessonView{Lesson: l, EffectiveOrder: eff})
		}
		sort.SliceStable(sv.Lessons, func(i, j int) bool {
			if sv.Lessons[i].EffectiveOrder != sv.Lessons[j].EffectiveOrder {
				return sv.Lessons[i].EffectiveOrder < sv.Lessons[j].EffectiveOrder
			}
			return sv.Lessons[i].Order < sv.Lessons[j].Order
		})
		flat = append(flat, sv.Lessons...)
		views = append(views, sv)
	}
	return views, flat, nil
}
