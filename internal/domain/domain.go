package domain

import (
	"github.com/yungbote/lms-backend/internal/domain/auth"
	"github.com/yungbote/lms-backend/internal/domain/learning"
	"github.com/yungbote/lms-backend/internal/domain/user"
)

type User = user.User
type Role = user.Role
type Provider = user.Provider

const (
	RoleStudent    = user.RoleStudent
	RoleInstructor = user.RoleInstructor
	RoleAdmin      = user.RoleAdmin

	ProviderGoogle = user.ProviderGoogle
	ProviderGitHub = user.ProviderGitHub
)

var (
	NormalizeEmail  = user.NormalizeEmail
	PercentComplete = learning.PercentComplete
)

type UserToken = auth.UserToken
type OAuthState = auth.OAuthState

type Course = learning.Course
type CourseInstructor = learning.CourseInstructor
type CourseReview = learning.CourseReview
type CurriculumSection = learning.CurriculumSection
type CurriculumItem = learning.CurriculumItem
type InstructorInfo = learning.InstructorInfo
type Level = learning.Level
type LessonLayout = learning.LessonLayout

const (
	LayoutFlat       = learning.LayoutFlat
	LayoutCurriculum = learning.LayoutCurriculum
)

type Lesson = learning.Lesson
type LessonType = learning.LessonType
type LessonMetadata = learning.LessonMetadata
type CodeBlock = learning.CodeBlock
type QuizQuestion = learning.QuizQuestion
type Resource = learning.Resource

type Enrollment = learning.Enrollment
type ProgressEntry = learning.ProgressEntry

type Activity = learning.Activity
type ActivityType = learning.ActivityType

const (
	ActivityAccess       = learning.ActivityAccess
	ActivityMessage      = learning.ActivityMessage
	ActivityNotification = learning.ActivityNotification
)

type Deadline = learning.Deadline
type Certificate = learning.Certificate
