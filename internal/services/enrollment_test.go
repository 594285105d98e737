package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lms-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
)

func TestEnrollSeedsLedgerFromProjection(t *testing.T) {
	h := newHarness(t)
	inst := h.user(t, "inst@example.com", types.RoleInstructor)
	stud := h.user(t, "stud@example.com", types.RoleStudent)
	course := testutil.SeedCourse(t, h.ctx, h.db, "Go", inst.ID)
	for i := 1; i <= 3; i++ {
		testutil.SeedLesson(t, h.ctx, h.db, course.ID, i)
	}

	e, err := h.enrollments.Enroll(h.as(stud), course.ID)
	require.NoError(t, err)
	assert.Equal(t, stud.ID, e.StudentID)

	view, err := h.courses.Get(h.as(stud), course.ID)
	require.NoError(t, err)
	assert.True(t, view.IsEnrolled)
	assert.Equal(t, 3, view.TotalLessons)
	assert.Equal(t, 0, view.PercentComplete)
	for _, l := range view.Lessons {
		assert.False(t, l.Completed)
	}
	assert.EqualValues(t, 1, view.StudentsCount)

	entries, err := h.enrollmentRepo.ListEntries(dbctx.Of(h.ctx), []uuid.UUID{e.ID})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestEnrollTwiceConflicts(t *testing.T) {
	h := newHarness(t)
	stud := h.user(t, "stud@example.com", types.RoleStudent)
	course := testutil.SeedCourse(t, h.ctx, h.db, "Go")

	_, err := h.enrollments.Enroll(h.as(stud), course.ID)
	require.NoError(t, err)
	_, err = h.enrollments.Enroll(h.as(stud), course.ID)
	assert.Equal(t, apierr.KindConflict, apierr.KindOf(err))

	got, err := h.courseRepo.GetByIDs(dbctx.Of(h.ctx), []uuid.UUID{course.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, got[0].StudentsCount)
}

func TestEnrollMissingOrDraftCourse(t *testing.T) {
	h := newHarness(t)
	inst := h.user(t, "inst@example.com", types.RoleInstructor)
	stud := h.user(t, "stud@example.com", types.RoleStudent)

	_, err := h.enrollments.Enroll(h.as(stud), uuid.New())
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))

	course := testutil.SeedCourse(t, h.ctx, h.db, "Draft", inst.ID)
	require.NoError(t, h.courseRepo.Update(dbctx.Of(h.ctx), course.ID, map[string]any{"is_published": false}))

	_, err = h.enrollments.Enroll(h.as(stud), course.ID)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))

	_, err = h.enrollments.Enroll(h.as(inst), course.ID)
	assert.NoError(t, err)
}

func TestEnrollAnonymousRejected(t *testing.T) {
	h := newHarness(t)
	course := testutil.SeedCourse(t, h.ctx, h.db, "Go")
	_, err := h.enrollments.Enroll(h.ctx, course.ID)
	assert.Equal(t, apierr.KindAuthentication, apierr.KindOf(err))
}

func TestCompleteLessonProgress(t *testing.T) {
	h := newHarness(t)
	stud := h.user(t, "stud@example.com", types.RoleStudent)
	course := testutil.SeedCourse(t, h.ctx, h.db, "Go")
	require.NoError(t, h.courseRepo.Update(dbctx.Of(h.ctx), course.ID, map[string]any{"certificate_included": false}))
	l1 := testutil.SeedLesson(t, h.ctx, h.db, course.ID, 1)
	testutil.SeedLesson(t, h.ctx, h.db, course.ID, 2)

	_, err := h.enrollments.CompleteLesson(h.as(stud), course.ID, l1.ID)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err), "not enrolled")

	_, err = h.enrollments.Enroll(h.as(stud), course.ID)
	require.NoError(t, err)

	res, err := h.enrollments.CompleteLesson(h.as(stud), course.ID, l1.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, res.PercentComplete)
	assert.Equal(t, 1, res.CompletedLessons)
	assert.Equal(t, 2, res.TotalLessons)
	require.NotNil(t, res.Entry.CompletedAt)
	first := *res.Entry.CompletedAt

	again, err := h.enrollments.CompleteLesson(h.as(stud), course.ID, l1.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, again.PercentComplete)
	assert.True(t, again.Entry.CompletedAt.Equal(first))
	assert.Nil(t, again.Certificate)

	_, err = h.enrollments.CompleteLesson(h.as(stud), course.ID, uuid.New())
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))

	other := testutil.SeedCourse(t, h.ctx, h.db, "Other")
	foreign := testutil.SeedLesson(t, h.ctx, h.db, other.ID, 1)
	_, err = h.enrollments.CompleteLesson(h.as(stud), course.ID, foreign.ID)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))

	list, err := h.enrollments.ListEnrolled(h.as(stud))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 50, list[0].PercentComplete)
	assert.Equal(t, 10, list[0].Points)
}

func TestCompleteLessonAddedAfterEnrollment(t *testing.T) {
	h := newHarness(t)
	stud := h.user(t, "stud@example.com", types.RoleStudent)
	course := testutil.SeedCourse(t, h.ctx, h.db, "Go")
	testutil.SeedLesson(t, h.ctx, h.db, course.ID, 1)

	_, err := h.enrollments.Enroll(h.as(stud), course.ID)
	require.NoError(t, err)

	late := testutil.SeedLesson(t, h.ctx, h.db, course.ID, 2)
	res, err := h.enrollments.CompleteLesson(h.as(stud), course.ID, late.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, res.PercentComplete)
}

func TestCompletingCourseIssuesCertificateOnce(t *testing.T) {
	h := newHarness(t)
	stud := h.user(t, "stud@example.com", types.RoleStudent)
	course := testutil.SeedCourse(t, h.ctx, h.db, "Go")
	l1 := testutil.SeedLesson(t, h.ctx, h.db, course.ID, 1)
	l2 := testutil.SeedLesson(t, h.ctx, h.db, course.ID, 2)

	_, err := h.enrollments.Enroll(h.as(stud), course.ID)
	require.NoError(t, err)
	_, err = h.enrollments.CompleteLesson(h.as(stud), course.ID, l1.ID)
	require.NoError(t, err)

	res, err := h.enrollments.CompleteLesson(h.as(stud), course.ID, l2.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, res.PercentComplete)
	require.NotNil(t, res.Certificate)
	assert.Equal(t, fmt.Sprintf("/api/certificates/%s/artifact", res.Certificate.ID), res.Certificate.CertificateURL)

	again, err := h.enrollments.CompleteLesson(h.as(stud), course.ID, l2.ID)
	require.NoError(t, err)
	require.NotNil(t, again.Certificate)
	assert.Equal(t, res.Certificate.ID, again.Certificate.ID)

	mine, err := h.certificates.ListMine(h.as(stud))
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	png, err := h.certificates.Artifact(h.as(stud), res.Certificate.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	stranger := h.user(t, "other@example.com", types.RoleStudent)
	_, err = h.certificates.Artifact(h.as(stranger), res.Certificate.ID)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
}

func TestReportProgress(t *testing.T) {
	h := newHarness(t)
	stud := h.user(t, "stud@example.com", types.RoleStudent)
	course := testutil.SeedCourse(t, h.ctx, h.db, "Go")

	_, err := h.enrollments.ReportProgress(h.as(stud), course.ID, 40)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))

	_, err = h.enrollments.Enroll(h.as(stud), course.ID)
	require.NoError(t, err)

	_, err = h.enrollments.ReportProgress(h.as(stud), course.ID, 101)
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))

	e, err := h.enrollments.ReportProgress(h.as(stud), course.ID, 40)
	require.NoError(t, err)
	require.NotNil(t, e.ReportedProgress)
	assert.Equal(t, 40, *e.ReportedProgress)

	stored, err := h.enrollmentRepo.Get(dbctx.Of(h.ctx), course.ID, stud.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReportedProgress)
	assert.Equal(t, 40, *stored.ReportedProgress)
}

func TestConcurrentEnrollSamePair(t *testing.T) {
	h := newHarness(t)
	stud := h.user(t, "stud@example.com", types.RoleStudent)
	course := testutil.SeedCourse(t, h.ctx, h.db, "Go")
	testutil.SeedLesson(t, h.ctx, h.db, course.ID, 1)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.enrollments.Enroll(h.as(stud), course.ID)
		}(i)
	}
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apierr.KindOf(err) == apierr.KindConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)

	var rows int64
	require.NoError(t, h.db.Model(&types.Enrollment{}).
		Where("course_id = ? AND student_id = ?", course.ID, stud.ID).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	got, err := h.courseRepo.GetByIDs(dbctx.Of(h.ctx), []uuid.UUID{course.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, got[0].StudentsCount)
}

func TestConcurrentCompletionsKeepProgressPerStudent(t *testing.T) {
	h := newHarness(t)
	course := testutil.SeedCourse(t, h.ctx, h.db, "Go")
	require.NoError(t, h.courseRepo.Update(dbctx.Of(h.ctx), course.ID, map[string]any{"certificate_included": false}))
	l1 := testutil.SeedLesson(t, h.ctx, h.db, course.ID, 1)
	testutil.SeedLesson(t, h.ctx, h.db, course.ID, 2)

	const n = 6
	students := make([]*types.User, n)
	for i := range students {
		students[i] = h.user(t, fmt.Sprintf("stud%d@example.com", i), types.RoleStudent)
		_, err := h.enrollments.Enroll(h.as(students[i]), course.ID)
		require.NoError(t, err)
	}
	late := h.user(t, "late@example.com", types.RoleStudent)

	results := make([]*CompletionResult, n)
	errs := make([]error, n+1)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.enrollments.CompleteLesson(h.as(students[i]), course.ID, l1.ID)
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[n] = h.enrollments.Enroll(h.as(late), course.ID)
	}()
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "call %d", i)
	}
	for i, res := range results {
		assert.Equal(t, 50, res.PercentComplete, "student %d", i)
		assert.Equal(t, 1, res.CompletedLessons, "student %d", i)
	}
	for i, stud := range students {
		view, err := h.courses.Get(h.as(stud), course.ID)
		require.NoError(t, err)
		assert.Equal(t, 50, view.PercentComplete, "student %d", i)
	}

	view, err := h.courses.Get(h.as(late), course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.PercentComplete, "other students' completions do not leak")
	assert.EqualValues(t, n+1, view.StudentsCount)
}
