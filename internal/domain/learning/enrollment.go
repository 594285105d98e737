package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Enrollment is one student's membership in one course. At most one row
// exists per (course, student).
type Enrollment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_course_student,priority:1" json:"course_id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_enrollment_course_student,priority:2" json:"student_id"`
	// ReportedProgress is the client-reported overall percentage. Derived
	// completion is always computed from the ledger.
	ReportedProgress *int      `gorm:"column:reported_progress" json:"reported_progress,omitempty"`
	EnrolledAt       time.Time `gorm:"not null;column:enrolled_at" json:"enrolled_at"`

	Progress []ProgressEntry `gorm:"foreignKey:EnrollmentID;references:ID" json:"progress,omitempty"`
}

func (Enrollment) TableName() string { return "enrollment" }

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	return nil
}

// ProgressEntry is one lesson in an enrollment's ledger.
type ProgressEntry struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EnrollmentID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_progress_entry_enrollment_lesson,priority:1" json:"enrollment_id"`
	LessonID     uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_progress_entry_enrollment_lesson,priority:2" json:"lesson_id"`
	Completed    bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (ProgressEntry) TableName() string { return "progress_entry" }

func (p *ProgressEntry) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PercentComplete is completed/total as a whole percentage, rounded down.
// An empty course is 0%.
func PercentComplete(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return completed * 100 / total
}
