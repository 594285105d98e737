package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	default:
		return false
	}
}

// Provider names an external identity provider.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

func (p Provider) Valid() bool {
	return p == ProviderGoogle || p == ProviderGitHub
}

// DisplayName is the label used when the provider gives no name.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderGitHub:
		return "GitHub"
	case ProviderGoogle:
		return "Google"
	default:
		return string(p)
	}
}

// Column is the user column holding this provider's subject id.
func (p Provider) Column() string {
	switch p {
	case ProviderGoogle:
		return "google_id"
	case ProviderGitHub:
		return "github_id"
	default:
		return ""
	}
}

var ErrNoCredential = errors.New("user must have a password or an external identity")

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"not null;column:name" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`
	Role         Role      `gorm:"not null;default:student;column:role;index" json:"role"`
	GoogleID     *string   `gorm:"uniqueIndex;column:google_id" json:"-"`
	GitHubID     *string   `gorm:"uniqueIndex;column:github_id" json:"-"`

	Bio        string `gorm:"column:bio" json:"bio,omitempty"`
	AvatarURL  string `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	Title      string `gorm:"column:title" json:"title,omitempty"`
	Experience string `gorm:"column:experience" json:"experience,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "user" }

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool { return u != nil && u.PasswordHash != "" }

// HasExternalIdentity reports whether any provider id is attached.
func (u *User) HasExternalIdentity() bool {
	return u != nil && (nonEmpty(u.GoogleID) || nonEmpty(u.GitHubID))
}

// ExternalID returns the stored subject id for provider.
func (u *User) ExternalID(p Provider) string {
	var v *string
	switch p {
	case ProviderGoogle:
		v = u.GoogleID
	case ProviderGitHub:
		v = u.GitHubID
	}
	if v == nil {
		return ""
	}
	return *v
}

// SetExternalID attaches a provider subject id.
func (u *User) SetExternalID(p Provider, subject string) {
	s := subject
	switch p {
	case ProviderGoogle:
		u.GoogleID = &s
	case ProviderGitHub:
		u.GitHubID = &s
	}
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = RoleStudent
	}
	if !u.HasPassword() && !u.HasExternalIdentity() {
		return ErrNoCredential
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nonEmpty(s *string) bool { return s != nil && strings.TrimSpace(*s) != "" }
