package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/lms-backend/internal/domain"
)

const TestPassword = "correct horse battery"

var testPasswordHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string, role types.Role) *types.User {
	tb.Helper()
	u := &types.User{
		ID:           uuid.New(),
		Name:         "User " + email,
		Email:        email,
		PasswordHash: testPasswordHash,
		Role:         role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedCourse creates a published flat-layout course owned by instructorIDs.
func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, title string, instructorIDs ...uuid.UUID) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:                  uuid.New(),
		Title:               title,
		Description:         "about " + title,
		Category:            "programming",
		Level:               "Beginner",
		IsPublished:         true,
		CertificateIncluded: true,
		LessonLayout:        types.LayoutFlat,
		InstructorInfo:      datatypes.NewJSONType(types.InstructorInfo{Name: "Instructor"}),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	for _, id := range instructorIDs {
		ci := &types.CourseInstructor{CourseID: c.ID, UserID: id}
		if err := tx.WithContext(ctx).Create(ci).Error; err != nil {
			tb.Fatalf("seed course instructor: %v", err)
		}
		c.Instructors = append(c.Instructors, *ci)
	}
	return c
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, order int) *types.Lesson {
	tb.Helper()
	l := &types.Lesson{
		ID:          uuid.New(),
		CourseID:    courseID,
		Title:       fmt.Sprintf("Lesson %d", order),
		Order:       order,
		Type:        "text",
		IsPublished: true,
		Metadata:    datatypes.NewJSONType(types.LessonMetadata{Points: 10, Required: true}),
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}
