package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Deadline struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	DueDate   time.Time `gorm:"column:due_date;not null;index" json:"due_date"`
	Completed bool      `gorm:"column:completed;not null;default:false" json:"completed"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Deadline) TableName() string { return "deadline" }

func (d *Deadline) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
