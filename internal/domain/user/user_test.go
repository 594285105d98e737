package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeforeCreateRequiresCredential(t *testing.T) {
	u := &User{Name: "Ada", Email: "ada@example.com"}
	require.ErrorIs(t, u.BeforeCreate(nil), ErrNoCredential)

	u.PasswordHash = "$2a$10$hash"
	require.NoError(t, u.BeforeCreate(nil))
	assert.Equal(t, RoleStudent, u.Role)
	assert.NotEmpty(t, u.ID)
}

func TestBeforeCreateExternalOnly(t *testing.T) {
	u := &User{Name: "Grace", Email: "  Grace@Example.com "}
	u.SetExternalID(ProviderGitHub, "42")
	require.NoError(t, u.BeforeCreate(nil))
	assert.Equal(t, "grace@example.com", u.Email)
	assert.False(t, u.HasPassword())
	assert.True(t, u.HasExternalIdentity())
	assert.Equal(t, "42", u.ExternalID(ProviderGitHub))
	assert.Equal(t, "", u.ExternalID(ProviderGoogle))
}

func TestProviderColumns(t *testing.T) {
	assert.Equal(t, "google_id", ProviderGoogle.Column())
	assert.Equal(t, "github_id", ProviderGitHub.Column())
	assert.Equal(t, "GitHub", ProviderGitHub.DisplayName())
	assert.False(t, Provider("apple").Valid())
}
