package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OAuthState is the database fallback for pending OAuth authorization
// requests. Only a keyed hash of the state value is stored.
type OAuthState struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Provider  string     `gorm:"not null;column:provider" json:"provider"`
	StateHash string     `gorm:"not null;uniqueIndex;column:state_hash" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index;column:expires_at" json:"expires_at"`
	UsedAt    *time.Time `gorm:"column:used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
}

func (OAuthState) TableName() string { return "oauth_state" }

func (s *OAuthState) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
