package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lms-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
)

func TestActivityFeed(t *testing.T) {
	h := newHarness(t)
	stud := h.user(t, "stud@example.com", types.RoleStudent)
	other := h.user(t, "other@example.com", types.RoleStudent)
	course := testutil.SeedCourse(t, h.ctx, h.db, "Go")

	_, err := h.enrollments.Enroll(h.as(stud), course.ID)
	require.NoError(t, err)

	feed, err := h.activities.ListMine(h.as(stud), 10)
	require.NoError(t, err)
	require.NotEmpty(t, feed)
	assert.False(t, feed[0].Read)

	err = h.activities.MarkRead(h.as(other), feed[0].ID)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err), "another user's entry")

	err = h.activities.MarkRead(h.as(stud), uuid.New())
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))

	require.NoError(t, h.activities.MarkRead(h.as(stud), feed[0].ID))
	require.NoError(t, h.activities.MarkRead(h.as(stud), feed[0].ID), "marking twice is fine")

	feed, err = h.activities.ListMine(h.as(stud), 10)
	require.NoError(t, err)
	assert.True(t, feed[0].Read)

	empty, err := h.activities.ListMine(h.as(other), 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = h.activities.ListMine(h.ctx, 10)
	assert.Equal(t, apierr.KindAuthentication, apierr.KindOf(err))
}
