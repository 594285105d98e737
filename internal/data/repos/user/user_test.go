package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lms-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lms-backend/internal/domain"
	pkgerrors "github.com/yungbote/lms-backend/internal/pkg/errors"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Of(context.Background())

	created, err := repo.Create(dbc, []*types.User{{
		Name:         "Ada",
		Email:        "Ada@Example.com",
		PasswordHash: "hash",
	}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.NotEqual(t, uuid.Nil, created[0].ID)

	got, err := repo.GetByEmail(dbc, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created[0].ID, got.ID)
	assert.Equal(t, types.RoleStudent, got.Role)

	missing, err := repo.GetByEmail(dbc, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	exists, err := repo.EmailExists(dbc, "ADA@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.Create(dbc, []*types.User{{Name: "Dup", Email: "ada@example.com", PasswordHash: "x"}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsUniqueViolation(err))
}

func TestUserRepoExternalIdentity(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Of(context.Background())

	u := testutil.SeedUser(t, dbc.Ctx, db, "grace@example.com", types.RoleStudent)

	none, err := repo.GetByExternalID(dbc, types.ProviderGoogle, "g-1")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, repo.LinkExternalID(dbc, u.ID, types.ProviderGoogle, "g-1"))

	got, err := repo.GetByExternalID(dbc, types.ProviderGoogle, "g-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.HasPassword())
	assert.True(t, got.HasExternalIdentity())

	other, err := repo.GetByExternalID(dbc, types.ProviderGitHub, "g-1")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestUserRepoCountByRole(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	ctx := context.Background()

	testutil.SeedUser(t, ctx, db, "s1@example.com", types.RoleStudent)
	testutil.SeedUser(t, ctx, db, "s2@example.com", types.RoleStudent)
	testutil.SeedUser(t, ctx, db, "i1@example.com", types.RoleInstructor)

	counts, err := repo.CountByRole(dbctx.Of(ctx))
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[types.RoleStudent])
	assert.Equal(t, int64(1), counts[types.RoleInstructor])
	assert.Equal(t, int64(0), counts[types.RoleAdmin])

	instructors, err := repo.ListByRole(dbctx.Of(ctx), types.RoleInstructor, 10)
	require.NoError(t, err)
	require.Len(t, instructors, 1)
	assert.Equal(t, "i1@example.com", instructors[0].Email)
}
