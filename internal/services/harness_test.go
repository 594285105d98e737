package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	"github.com/yungbote/lms-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/ctxutil"
)

type harness struct {
	db  *gorm.DB
	ctx context.Context

	userRepo        repos.UserRepo
	courseRepo      repos.CourseRepo
	lessonRepo      repos.LessonRepo
	curriculumRepo  repos.CurriculumRepo
	enrollmentRepo  repos.EnrollmentRepo
	certificateRepo repos.CertificateRepo
	oauthStateRepo  repos.OAuthStateRepo

	projection   ProjectionService
	activities   ActivityService
	certificates CertificateService
	enrollments  EnrollmentService
	courses      CourseService
	lessons      LessonService
	deadlines    DeadlineService
	dashboards   DashboardService
	users        UserService
	accounts     AccountService
	auth         AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	h := &harness{
		db:              db,
		ctx:             context.Background(),
		userRepo:        repos.NewUserRepo(db, log),
		courseRepo:      repos.NewCourseRepo(db, log),
		lessonRepo:      repos.NewLessonRepo(db, log),
		curriculumRepo:  repos.NewCurriculumRepo(db, log),
		enrollmentRepo:  repos.NewEnrollmentRepo(db, log),
		certificateRepo: repos.NewCertificateRepo(db, log),
		oauthStateRepo:  repos.NewOAuthStateRepo(db, log),
	}
	activityRepo := repos.NewActivityRepo(db, log)
	deadlineRepo := repos.NewDeadlineRepo(db, log)
	reviewRepo := repos.NewReviewRepo(db, log)
	userTokenRepo := repos.NewUserTokenRepo(db, log)

	h.projection = NewProjectionService(log, h.courseRepo, h.lessonRepo, h.curriculumRepo, h.enrollmentRepo)
	h.activities = NewActivityService(log, activityRepo)
	certs, err := NewCertificateService(log, h.certificateRepo, h.courseRepo, h.userRepo, h.activities, nil)
	require.NoError(t, err)
	h.certificates = certs
	h.enrollments = NewEnrollmentService(db, log, h.courseRepo, h.enrollmentRepo, h.projection, h.activities, h.certificates)
	h.courses = NewCourseService(db, log, h.courseRepo, h.curriculumRepo, reviewRepo, h.enrollmentRepo, h.userRepo, h.projection)
	h.lessons = NewLessonService(db, log, h.lessonRepo, h.curriculumRepo, h.courses, h.projection)
	h.deadlines = NewDeadlineService(db, log, deadlineRepo, h.enrollmentRepo, h.courses, h.activities)
	h.dashboards = NewDashboardService(log, h.userRepo, h.courseRepo, h.enrollmentRepo, activityRepo, deadlineRepo,
		h.certificateRepo, h.enrollments, h.projection)
	h.users = NewUserService(log, h.userRepo)
	h.accounts = NewAccountService(db, log, h.userRepo)
	h.auth = NewAuthService(db, log, h.userRepo, userTokenRepo, AuthConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		BcryptCost:    bcrypt.MinCost,
	})
	return h
}

func (h *harness) user(t *testing.T, email string, role types.Role) *types.User {
	t.Helper()
	return testutil.SeedUser(t, h.ctx, h.db, email, role)
}

// as returns a context authenticated as u.
func (h *harness) as(u *types.User) context.Context {
	return ctxutil.WithRequestData(h.ctx, &ctxutil.RequestData{UserID: u.ID, Role: string(u.Role)})
}
