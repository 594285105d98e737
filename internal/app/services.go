package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/clients/redis"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Accounts    services.AccountService
	OAuth       services.OAuthService
	User        services.UserService
	Projection  services.ProjectionService
	Activity    services.ActivityService
	Certificate services.CertificateService
	Enrollment  services.EnrollmentService
	Course      services.CourseService
	Lesson      services.LessonService
	Deadline    services.DeadlineService
	Dashboard   services.DashboardService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	auth := services.NewAuthService(db, log, r.User, r.UserToken, services.AuthConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		BcryptCost:    cfg.BcryptCost,
	})
	accounts := services.NewAccountService(db, log, r.User)

	var states services.OAuthStateStore
	if clients.Redis != nil {
		states = redis.NewOAuthStateStore(log, clients.Redis)
	} else {
		states = services.NewDBOAuthStateStore(r.OAuthState)
	}
	oauth := services.NewOAuthService(log, services.OAuthConfig{
		Google: services.OAuthProviderConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.CallbackURL,
		},
		GitHub: services.OAuthProviderConfig{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			RedirectURL:  cfg.GitHub.CallbackURL,
		},
		SessionSecret: cfg.SessionSecret,
		StateTTL:      cfg.OAuthStateTTL,
	}, states, accounts, auth)

	projection := services.NewProjectionService(log, r.Course, r.Lesson, r.Curriculum, r.Enrollment)
	activity := services.NewActivityService(log, r.Activity)
	certificate, err := services.NewCertificateService(log, r.Certificate, r.Course, r.User, activity, clients.Bucket)
	if err != nil {
		return Services{}, fmt.Errorf("init certificate service: %w", err)
	}
	enrollment := services.NewEnrollmentService(db, log, r.Course, r.Enrollment, projection, activity, certificate)
	course := services.NewCourseService(db, log, r.Course, r.Curriculum, r.Review, r.Enrollment, r.User, projection)
	lesson := services.NewLessonService(db, log, r.Lesson, r.Curriculum, course, projection)
	deadline := services.NewDeadlineService(db, log, r.Deadline, r.Enrollment, course, activity)
	dashboard := services.NewDashboardService(log, r.User, r.Course, r.Enrollment, r.Activity, r.Deadline,
		r.Certificate, enrollment, projection)

	return Services{
		Auth:        auth,
		Accounts:    accounts,
		OAuth:       oauth,
		User:        services.NewUserService(log, r.User),
		Projection:  projection,
		Activity:    activity,
		Certificate: certificate,
		Enrollment:  enrollment,
		Course:      course,
		Lesson:      lesson,
		Deadline:    deadline,
		Dashboard:   dashboard,
	}, nil
}
