package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lms-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserTokenRepo(db, testutil.Logger(t))
	ctx := context.Background()
	dbc := dbctx.Of(ctx)

	u := testutil.SeedUser(t, ctx, db, "tok@example.com", types.RoleStudent)
	now := time.Now().UTC()

	live := &types.UserToken{ID: uuid.New(), UserID: u.ID, ExpiresAt: now.Add(time.Hour)}
	dead := &types.UserToken{ID: uuid.New(), UserID: u.ID, ExpiresAt: now.Add(-time.Hour)}
	_, err := repo.Create(dbc, []*types.UserToken{live, dead})
	require.NoError(t, err)

	n, err := repo.DeleteExpired(dbc, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByIDs(dbc, []uuid.UUID{live.ID, dead.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, live.ID, got[0].ID)

	other := &types.UserToken{ID: uuid.New(), UserID: u.ID, ExpiresAt: now.Add(time.Hour)}
	_, err = repo.Create(dbc, []*types.UserToken{other})
	require.NoError(t, err)
	n, err = repo.DeleteByIDs(dbc, []uuid.UUID{other.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.DeleteByIDs(dbc, []uuid.UUID{other.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "already revoked")

	require.NoError(t, repo.DeleteByUserIDs(dbc, []uuid.UUID{u.ID}))
	got, err = repo.GetByIDs(dbc, []uuid.UUID{live.ID})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOAuthStateConsumeOnce(t *testing.T) {
	db := testutil.DB(t)
	repo := NewOAuthStateRepo(db, testutil.Logger(t))
	dbc := dbctx.Of(context.Background())
	now := time.Now().UTC()

	_, err := repo.Create(dbc, []*types.OAuthState{
		{Provider: "google", StateHash: "h1", ExpiresAt: now.Add(10 * time.Minute)},
		{Provider: "github", StateHash: "h2", ExpiresAt: now.Add(-time.Minute)},
	})
	require.NoError(t, err)

	ok, err := repo.Consume(dbc, "github", "h1", now)
	require.NoError(t, err)
	assert.False(t, ok, "provider mismatch")

	ok, err = repo.Consume(dbc, "google", "h1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Consume(dbc, "google", "h1", now)
	require.NoError(t, err)
	assert.False(t, ok, "replay")

	ok, err = repo.Consume(dbc, "github", "h2", now)
	require.NoError(t, err)
	assert.False(t, ok, "expired")
}
