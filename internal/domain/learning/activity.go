package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityType string

const (
	ActivityAccess       ActivityType = "access"
	ActivityMessage      ActivityType = "message"
	ActivityNotification ActivityType = "notification"
)

// Activity is an append-only feed entry. Only Read ever changes.
type Activity struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID    `gorm:"type:uuid;not null;index:idx_activity_user_time,priority:1" json:"user_id"`
	CourseID    *uuid.UUID   `gorm:"type:uuid;index" json:"course_id,omitempty"`
	Type        ActivityType `gorm:"column:type;not null" json:"type"`
	Title       string       `gorm:"column:title;not null" json:"title"`
	Description string       `gorm:"column:description" json:"description,omitempty"`
	Read        bool         `gorm:"column:read;not null;default:false" json:"read"`
	Timestamp   time.Time    `gorm:"column:timestamp;not null;index:idx_activity_user_time,priority:2" json:"timestamp"`
}

func (Activity) TableName() string { return "activity" }

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	return nil
}
