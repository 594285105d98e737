package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type Repos struct {
	User        repos.UserRepo
	UserToken   repos.UserTokenRepo
	OAuthState  repos.OAuthStateRepo
	Course      repos.CourseRepo
	Lesson      repos.LessonRepo
	Curriculum  repos.CurriculumRepo
	Review      repos.ReviewRepo
	Enrollment  repos.EnrollmentRepo
	Activity    repos.ActivityRepo
	Deadline    repos.DeadlineRepo
	Certificate repos.CertificateRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:        repos.NewUserRepo(db, log),
		UserToken:   repos.NewUserTokenRepo(db, log),
		OAuthState:  repos.NewOAuthStateRepo(db, log),
		Course:      repos.NewCourseRepo(db, log),
		Lesson:      repos.NewLessonRepo(db, log),
		Curriculum:  repos.NewCurriculumRepo(db, log),
		Review:      repos.NewReviewRepo(db, log),
		Enrollment:  repos.NewEnrollmentRepo(db, log),
		Activity:    repos.NewActivityRepo(db, log),
		Deadline:    repos.NewDeadlineRepo(db, log),
		Certificate: repos.NewCertificateRepo(db, log),
	}
}
