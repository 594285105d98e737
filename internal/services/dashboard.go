package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

const (
	dashboardActivityLimit = 10
	dashboardDeadlineLimit = 10
	recommendationLimit    = 4
	recentSignupLimit      = 5
)

var timeNow = func() time.Time { return time.Now().UTC() }

type StudentStats struct {
	TotalCourses     int `json:"total_courses"`
	CompletedCourses int `json:"completed_courses"`
	Points           int `json:"points"`
	Certificates     int `json:"certificates"`
}

type StudentDashboard struct {
	Courses         []*EnrolledCourse    `json:"courses"`
	Deadlines       []*types.Deadline    `json:"deadlines"`
	Activities      []*types.Activity    `json:"activities"`
	Certificates    []*types.Certificate `json:"certificates"`
	Recommendations []*CourseListItem    `json:"recommendations"`
	Stats           StudentStats         `json:"stats"`
}

type CourseAnalytics struct {
	CourseID       uuid.UUID `json:"course_id"`
	CourseName     string    `json:"course_name"`
	IsPublished    bool      `json:"is_published"`
	Enrollment     int       `json:"enrollment"`
	CompletionRate int       `json:"completion_rate"`
	Rating         float64   `json:"rating"`
}

type InstructorDashboard struct {
	TotalCourses    int                `json:"total_courses"`
	ActiveStudents  int                `json:"active_students"`
	Rating          float64            `json:"rating"`
	CourseAnalytics []*CourseAnalytics `json:"course_analytics"`
	Activities      []*types.Activity  `json:"activities"`
}

type AdminDashboard struct {
	TotalUsers       int64                `json:"total_users"`
	UsersByRole      map[types.Role]int64 `json:"users_by_role"`
	RecentSignups    []*types.User        `json:"recent_signups"`
	TotalCourses     int64                `json:"total_courses"`
	PublishedCourses int64                `json:"published_courses"`
	Enrollments      int64                `json:"enrollments"`
	Certificates     int64                `json:"certificates"`
}

type DashboardService interface {
	Student(ctx context.Context) (*StudentDashboard, error)
	Instructor(ctx context.Context) (*InstructorDashboard, error)
	Admin(ctx context.Context) (*AdminDashboard, error)
}

type dashboardService struct {
	log             *logger.Logger
	userRepo        repos.UserRepo
	courseRepo      repos.CourseRepo
	enrollmentRepo  repos.EnrollmentRepo
	activityRepo    repos.ActivityRepo
	deadlineRepo    repos.DeadlineRepo
	certificateRepo repos.CertificateRepo
	enrollments     EnrollmentService
	projection      ProjectionService
}

func NewDashboardService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	courseRepo repos.CourseRepo,
	enrollmentRepo repos.EnrollmentRepo,
	activityRepo repos.ActivityRepo,
	deadlineRepo repos.DeadlineRepo,
	certificateRepo repos.CertificateRepo,
	enrollments EnrollmentService,
	projection ProjectionService,
) DashboardService {
	return &dashboardService{
		log:             log.With("service", "DashboardService"),
		userRepo:        userRepo,
		courseRepo:      courseRepo,
		enrollmentRepo:  enrollmentRepo,
		activityRepo:    activityRepo,
		deadlineRepo:    deadlineRepo,
		certificateRepo: certificateRepo,
		enrollments:     enrollments,
		projection:      projection,
	}
}

func (s *dashboardService) Student(ctx context.Context) (*StudentDashboard, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}

	out := &StudentDashboard{}
	var featured []*types.Course

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		courses, err := s.enrollments.Summaries(dbctx.Of(gctx), actor.ID)
		out.Courses = courses
		return err
	})
	g.Go(func() error {
		d, err := s.deadlineRepo.ListUpcomingByStudent(dbctx.Of(gctx), actor.ID, timeNow(), dashboardDeadlineLimit)
		out.Deadlines = d
		return err
	})
	g.Go(func() error {
		a, err := s.activityRepo.ListByUser(dbctx.Of(gctx), actor.ID, dashboardActivityLimit)
		out.Activities = a
		return err
	})
	g.Go(func() error {
		c, err := s.certificateRepo.ListByStudent(dbctx.Of(gctx), actor.ID)
		out.Certificates = c
		return err
	})
	g.Go(func() error {
		yes := true
		c, _, err := s.courseRepo.List(dbctx.Of(gctx), repos.CourseFilter{Featured: &yes, Published: &yes, Limit: 20})
		featured = c
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apierr.From(err)
	}

	enrolled := make(map[uuid.UUID]bool, len(out.Courses))
	for _, ec := range out.Courses {
		enrolled[ec.Course.ID] = true
		out.Stats.TotalCourses++
		out.Stats.Points += ec.Points
		if ec.TotalLessons > 0 && ec.PercentComplete == 100 {
			out.Stats.CompletedCourses++
		}
	}
	out.Stats.Certificates = len(out.Certificates)

	out.Recommendations = []*CourseListItem{}
	for _, c := range featured {
		if enrolled[c.ID] {
			continue
		}
		out.Recommendations = append(out.Recommendations, &CourseListItem{Course: c, InstructorIDs: c.InstructorIDs()})
		if len(out.Recommendations) == recommendationLimit {
			break
		}
	}
	return out, nil
}

func (s *dashboardService) Instructor(ctx context.Context) (*InstructorDashboard, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role != types.RoleInstructor && actor.Role != types.RoleAdmin {
		return nil, apierr.Authorization("instructor access required")
	}

	dbc := dbctx.Of(ctx)
	courses, err := s.courseRepo.ListByInstructor(dbc, actor.ID)
	if err != nil {
		return nil, apierr.Store(err)
	}
	courseIDs := make([]uuid.UUID, 0, len(courses))
	for _, c := range courses {
		courseIDs = append(courseIDs, c.ID)
	}

	out := &InstructorDashboard{TotalCourses: len(courses), CourseAnalytics: []*CourseAnalytics{}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.activityRepo.ListByCourses(dbctx.Of(gctx), courseIDs, dashboardActivityLimit)
		out.Activities = a
		return err
	})
	g.Go(func() error {
		analytics, students, err := s.courseAnalytics(dbctx.Of(gctx), courses)
		out.CourseAnalytics = analytics
		out.ActiveStudents = students
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apierr.From(err)
	}

	var sum float64
	rated := 0
	for _, c := range courses {
		if c.Rating > 0 {
			sum += c.Rating
			rated++
		}
	}
	if rated > 0 {
		out.Rating = math.Round(sum/float64(rated)*10) / 10
	}
	return out, nil
}

// courseAnalytics returns per-course enrollment and average derived
// completion, plus the number of distinct students across courses.
func (s *dashboardService) courseAnalytics(dbc dbctx.Context, courses []*types.Course) ([]*CourseAnalytics, int, error) {
	if len(courses) == 0 {
		return []*CourseAnalytics{}, 0, nil
	}
	ids := make([]uuid.UUID, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	enrollments, err := s.enrollmentRepo.ListByCourses(dbc, ids)
	if err != nil {
		return nil, 0, err
	}
	enrollmentIDs := make([]uuid.UUID, 0, len(enrollments))
	byCourse := map[uuid.UUID][]*types.Enrollment{}
	students := map[uuid.UUID]struct{}{}
	for _, e := range enrollments {
		enrollmentIDs = append(enrollmentIDs, e.ID)
		byCourse[e.CourseID] = append(byCourse[e.CourseID], e)
		students[e.StudentID] = struct{}{}
	}
	entries, err := s.enrollmentRepo.ListEntries(dbc, enrollmentIDs)
	if err != nil {
		return nil, 0, err
	}
	entriesByEnrollment := map[uuid.UUID][]*types.ProgressEntry{}
	for _, pe := range entries {
		entriesByEnrollment[pe.EnrollmentID] = append(entriesByEnrollment[pe.EnrollmentID], pe)
	}

	out := make([]*CourseAnalytics, 0, len(courses))
	for _, c := range courses {
		ca := &CourseAnalytics{
			CourseID:    c.ID,
			CourseName:  c.Title,
			IsPublished: c.IsPublished,
			Enrollment:  len(byCourse[c.ID]),
			Rating:      c.Rating,
		}
		if ca.Enrollment > 0 {
			_, lessons, err := s.projection.Layout(dbc, c, false)
			if err != nil {
				return nil, 0, err
			}
			total := 0
			for _, e := range byCourse[c.ID] {
				total += types.PercentComplete(annotate(lessons, entriesByEnrollment[e.ID]), len(lessons))
			}
			ca.CompletionRate = total / ca.Enrollment
		}
		out = append(out, ca)
	}
	return out, len(students), nil
}

func (s *dashboardService) Admin(ctx context.Context) (*AdminDashboard, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := CheckRole(actor, ActionViewAdmin); err != nil {
		return nil, err
	}

	out := &AdminDashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.userRepo.CountByRole(dbctx.Of(gctx))
		out.UsersByRole = counts
		return err
	})
	g.Go(func() error {
		u, err := s.userRepo.ListRecent(dbctx.Of(gctx), recentSignupLimit)
		out.RecentSignups = u
		return err
	})
	g.Go(func() error {
		n, err := s.courseRepo.Count(dbctx.Of(gctx), false)
		out.TotalCourses = n
		return err
	})
	g.Go(func() error {
		n, err := s.courseRepo.Count(dbctx.Of(gctx), true)
		out.PublishedCourses = n
		return err
	})
	g.Go(func() error {
		n, err := s.enrollmentRepo.Count(dbctx.Of(gctx))
		out.Enrollments = n
		return err
	})
	g.Go(func() error {
		n, err := s.certificateRepo.Count(dbctx.Of(gctx))
		out.Certificates = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apierr.From(err)
	}
	for _, n := range out.UsersByRole {
		out.TotalUsers += n
	}
	return out, nil
}
