package db

import (
	"fmt"

	types "github.com/yungbote/lms-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// Identity + auth
		&types.User{},
		&types.UserToken{},
		&types.OAuthState{},

		// Catalog
		&types.Course{},
		&types.CourseInstructor{},
		&types.Lesson{},
		&types.CurriculumSection{},
		&types.CurriculumItem{},
		&types.CourseReview{},

		// Progress
		&types.Enrollment{},
		&types.ProgressEntry{},
		&types.Certificate{},

		// Feed
		&types.Activity{},
		&types.Deadline{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
