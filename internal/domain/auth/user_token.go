package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/lms-backend/internal/domain/user"
	"gorm.io/gorm"
)

// UserToken records an issued refresh token. ID is the token's jti; a refresh
// token is only honored while its row exists and has not expired.
type UserToken struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	User      *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index;column:expires_at" json:"expires_at"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
}

func (UserToken) TableName() string { return "user_token" }

func (t *UserToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *UserToken) Expired(now time.Time) bool { return !t.ExpiresAt.After(now) }
