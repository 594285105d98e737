package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos/auth"
	"github.com/yungbote/lms-backend/internal/data/repos/learning"
	"github.com/yungbote/lms-backend/internal/data/repos/user"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo
type OAuthStateRepo = auth.OAuthStateRepo

type CourseRepo = learning.CourseRepo
type CourseFilter = learning.CourseFilter
type LessonRepo = learning.LessonRepo
type CurriculumRepo = learning.CurriculumRepo
type ReviewRepo = learning.ReviewRepo
type EnrollmentRepo = learning.EnrollmentRepo
type ActivityRepo = learning.ActivityRepo
type DeadlineRepo = learning.DeadlineRepo
type CertificateRepo = learning.CertificateRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}
func NewOAuthStateRepo(db *gorm.DB, baseLog *logger.Logger) OAuthStateRepo {
	return auth.NewOAuthStateRepo(db, baseLog)
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, baseLog)
}
func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return learning.NewLessonRepo(db, baseLog)
}
func NewCurriculumRepo(db *gorm.DB, baseLog *logger.Logger) CurriculumRepo {
	return learning.NewCurriculumRepo(db, baseLog)
}
func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	return learning.NewReviewRepo(db, baseLog)
}
func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return learning.NewEnrollmentRepo(db, baseLog)
}
func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return learning.NewActivityRepo(db, baseLog)
}
func NewDeadlineRepo(db *gorm.DB, baseLog *logger.Logger) DeadlineRepo {
	return learning.NewDeadlineRepo(db, baseLog)
}
func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return learning.NewCertificateRepo(db, baseLog)
}
