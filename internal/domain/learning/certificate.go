package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Certificate is issued at most once per (course, student).
type Certificate struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_certificate_course_student,priority:1" json:"course_id"`
	StudentID      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_certificate_course_student,priority:2" json:"student_id"`
	IssuedAt       time.Time `gorm:"column:issued_at;not null" json:"issued_at"`
	CertificateURL string    `gorm:"column:certificate_url" json:"certificate_url"`
	StorageKey     string    `gorm:"column:storage_key" json:"-"`
}

func (Certificate) TableName() string { return "certificate" }

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now().UTC()
	}
	return nil
}
