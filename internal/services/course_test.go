package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lms-backend/internal/data/repos"
	"github.com/yungbote/lms-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
)

func ptr[T any](v T) *T { return &v }

func TestStudentsCannotMutateEvenMissingCourses(t *testing.T) {
	h := newHarness(t)
	stud := h.user(t, "stud@example.com", types.RoleStudent)
	ctx := h.as(stud)
	missing := uuid.New()

	_, err := h.courses.Create(ctx, CourseInput{Title: ptr("Mine")})
	assert.Equal(t, apierr.KindAuthorization, apierr.KindOf(err))

	_, err = h.courses.Update(ctx, missing, CourseInput{Title: ptr("x")})
	assert.Equal(t, apierr.KindAuthorization, apierr.KindOf(err))

	err = h.courses.Delete(ctx, missing)
	assert.Equal(t, apierr.KindAuthorization, apierr.KindOf(err))

	_, err = h.lessons.Create(ctx, missing, LessonInput{Title: ptr("l")})
	assert.Equal(t, apierr.KindAuthorization, apierr.KindOf(err))

	_, err = h.deadlines.Create(ctx, missing, DeadlineInput{Title: "d", DueDate: time.Now()})
	assert.Equal(t, apierr.KindAuthorization, apierr.KindOf(err))
}

func TestInstructorScopedToOwnCourses(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t, "owner@example.com", types.RoleInstructor)
	other := h.user(t, "other@example.com", types.RoleInstructor)
	admin := h.user(t, "admin@example.com", types.RoleAdmin)

	course, err := h.courses.Create(h.as(owner), CourseInput{Title: ptr("Owned"), Level: ptr(types.Level("Beginner"))})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{owner.ID}, course.InstructorIDs())
	assert.True(t, course.CertificateIncluded)
	assert.False(t, course.IsPublished)

	_, err = h.courses.Update(h.as(other), course.ID, CourseInput{Title: ptr("Hijack")})
	assert.Equal(t, apierr.KindAuthorization, apierr.KindOf(err))

	_, err = h.courses.Update(h.as(owner), uuid.New(), CourseInput{Title: ptr("x")})
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))

	updated, err := h.courses.Update(h.as(owner), course.ID, CourseInput{Title: ptr("Renamed"), IsPublished: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.True(t, updated.IsPublished)

	_, err = h.courses.Update(h.as(owner), course.ID, CourseInput{InstructorIDs: &[]uuid.UUID{other.ID}})
	assert.Equal(t, apierr.KindAuthorization, apierr.KindOf(err))

	updated, err = h.courses.Update(h.as(admin), course.ID, CourseInput{InstructorIDs: &[]uuid.UUID{owner.ID, other.ID}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{owner.ID, other.ID}, updated.InstructorIDs())

	_, err = h.courses.Update(h.as(other), course.ID, CourseInput{Description: ptr("now mine too")})
	assert.NoError(t, err)

	_, err = h.courses.Update(h.as(owner), course.ID, CourseInput{Level: ptr(types.Level("Expert"))})
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))

	require.NoError(t, h.courses.Delete(h.as(admin), course.ID))
	_, err = h.courses.Get(h.as(admin), course.ID)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
}

func TestDraftCoursesHiddenFromNonManagers(t *testing.T) {
	h := newHarness(t)
	inst := h.user(t, "inst@example.com", types.RoleInstructor)
	stud := h.user(t, "stud@example.com", types.RoleStudent)

	draft, err := h.courses.Create(h.as(inst), CourseInput{Title: ptr("Draft")})
	require.NoError(t, err)
	_, err = h.courses.Create(h.as(inst), CourseInput{Title: ptr("Live"), IsPublished: ptr(true)})
	require.NoError(t, err)

	_, err = h.courses.Get(h.as(stud), draft.ID)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
	_, err = h.courses.Get(h.ctx, draft.ID)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
	_, err = h.courses.Get(h.as(inst), draft.ID)
	assert.NoError(t, err)

	list, err := h.courses.List(h.as(stud), repos.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, list.Courses, 1)
	assert.Equal(t, "Live", list.Courses[0].Title)

	list, err = h.courses.List(h.as(inst), repos.CourseFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Total)
}

func TestCurriculumProjectionOrdering(t *testing.T) {
	h := newHarness(t)
	inst := h.user(t, "inst@example.com", types.RoleInstructor)
	ctx := h.as(inst)

	course, err := h.courses.Create(ctx, CourseInput{
		Title:        ptr("Sectioned"),
		IsPublished:  ptr(true),
		LessonLayout: types.LayoutCurriculum,
		Sections:     []SectionInput{{Title: "Basics", Order: 1}, {Title: "Advanced", Order: 2}},
	})
	require.NoError(t, err)

	sections, err := h.curriculumRepo.ListByCourse(dbctx.Of(h.ctx), course.ID)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	basics, advanced := sections[0].ID, sections[1].ID

	mk := func(title string, order int, section uuid.UUID, sectionOrder int) *types.Lesson {
		l, err := h.lessons.Create(ctx, course.ID, LessonInput{
			Title:        ptr(title),
			Order:        ptr(order),
			IsPublished:  ptr(true),
			SectionID:    &section,
			SectionOrder: sectionOrder,
		})
		require.NoError(t, err)
		return l
	}
	l1 := mk("one", 1, advanced, 0)
	l2 := mk("two", 2, basics, 5)
	l3 := mk("three", 3, basics, 1)
	_, err = h.lessons.Create(ctx, course.ID, LessonInput{Title: ptr("loose"), Order: ptr(4), IsPublished: ptr(true)})
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err), "curriculum lessons must be placed")
	_, err = h.lessons.Create(ctx, course.ID, LessonInput{Title: ptr("stray"), Order: ptr(4), SectionID: ptr(uuid.New())})
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))

	// A second placement of the same lesson is ignored.
	require.NoError(t, h.curriculumRepo.AddItem(dbctx.Of(h.ctx), &types.CurriculumItem{SectionID: advanced, LessonID: l3.ID, Order: 9}))

	view, err := h.courses.Get(h.ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, view.Sections, 2)
	assert.Equal(t, "Basics", view.Sections[0].Title)

	ids := func(ls []*LessonView) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(ls))
		for _, l := range ls {
			out = append(out, l.ID)
		}
		return out
	}
	assert.Equal(t, []uuid.UUID{l3.ID, l2.ID}, ids(view.Sections[0].Lessons))
	assert.Equal(t, []uuid.UUID{l1.ID}, ids(view.Sections[1].Lessons))
	assert.Equal(t, []uuid.UUID{l3.ID, l2.ID, l1.ID}, ids(view.Lessons))
	assert.Equal(t, 3, view.TotalLessons)
	assert.Equal(t, 5, view.Sections[0].Lessons[1].EffectiveOrder)

	_, err = h.lessons.Create(ctx, course.ID, LessonInput{Title: ptr("dup"), Order: ptr(2), SectionID: &basics})
	assert.Equal(t, apierr.KindConflict, apierr.KindOf(err))

	lessons, err := h.lessonRepo.ListByCourse(dbctx.Of(h.ctx), course.ID)
	require.NoError(t, err)
	assert.Len(t, lessons, 3, "rejected creates leave no rows")
}

func TestLessonLifecycle(t *testing.T) {
	h := newHarness(t)
	inst := h.user(t, "inst@example.com", types.RoleInstructor)
	stud := h.user(t, "stud@example.com", types.RoleStudent)
	course := testutil.SeedCourse(t, h.ctx, h.db, "Go", inst.ID)

	first, err := h.lessons.Create(h.as(inst), course.ID, LessonInput{Title: ptr("Intro"), IsPublished: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Order)
	assert.Equal(t, types.LessonType("video"), first.Type)

	draft, err := h.lessons.Create(h.as(inst), course.ID, LessonInput{Title: ptr("Draft")})
	require.NoError(t, err)
	assert.Equal(t, 2, draft.Order)

	visible, err := h.lessons.List(h.as(stud), course.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)

	_, err = h.lessons.Get(h.as(stud), course.ID, draft.ID)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))

	all, err := h.lessons.List(h.as(inst), course.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = h.lessons.Create(h.as(inst), course.ID, LessonInput{
		Title: ptr("Quiz"),
		Quiz:  &[]types.QuizQuestion{{Question: "?", Options: []string{"a"}, CorrectAnswer: 3}},
	})
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))

	updated, err := h.lessons.Update(h.as(inst), course.ID, draft.ID, LessonInput{IsPublished: ptr(true), Content: ptr("body")})
	require.NoError(t, err)
	assert.True(t, updated.IsPublished)
	assert.Equal(t, "body", updated.Content)

	_, err = h.enrollments.Enroll(h.as(stud), course.ID)
	require.NoError(t, err)
	_, err = h.enrollments.CompleteLesson(h.as(stud), course.ID, first.ID)
	require.NoError(t, err)

	_, err = h.lessons.Update(h.as(stud), course.ID, first.ID, LessonInput{Title: ptr("x")})
	assert.Equal(t, apierr.KindAuthorization, apierr.KindOf(err))

	require.NoError(t, h.lessons.Delete(h.as(inst), course.ID, first.ID))
	err = h.lessons.Delete(h.as(inst), course.ID, first.ID)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))

	view, err := h.courses.Get(h.as(stud), course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.TotalLessons)
	assert.Equal(t, 0, view.PercentComplete)
}

func TestReviewsRequireEnrollment(t *testing.T) {
	h := newHarness(t)
	a := h.user(t, "a@example.com", types.RoleStudent)
	b := h.user(t, "b@example.com", types.RoleStudent)
	course := testutil.SeedCourse(t, h.ctx, h.db, "Go")

	_, err := h.courses.AddReview(h.as(a), course.ID, ReviewInput{Rating: 4})
	assert.Equal(t, apierr.KindAuthorization, apierr.KindOf(err))

	for _, u := range []*types.User{a, b} {
		_, err := h.enrollments.Enroll(h.as(u), course.ID)
		require.NoError(t, err)
	}

	_, err = h.courses.AddReview(h.as(a), course.ID, ReviewInput{Rating: 6})
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))

	r, err := h.courses.AddReview(h.as(a), course.ID, ReviewInput{Rating: 4, Comment: " good "})
	require.NoError(t, err)
	assert.Equal(t, "good", r.Comment)
	assert.Equal(t, a.Name, r.Name)

	_, err = h.courses.AddReview(h.as(a), course.ID, ReviewInput{Rating: 5})
	assert.Equal(t, apierr.KindConflict, apierr.KindOf(err))

	_, err = h.courses.AddReview(h.as(b), course.ID, ReviewInput{Rating: 5})
	require.NoError(t, err)

	view, err := h.courses.Get(h.ctx, course.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, view.Rating, 0.001)

	reviews, err := h.courses.ListReviews(h.ctx, course.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}

func TestDeadlinesFanOutToEnrolledStudents(t *testing.T) {
	h := newHarness(t)
	inst := h.user(t, "inst@example.com", types.RoleInstructor)
	a := h.user(t, "a@example.com", types.RoleStudent)
	b := h.user(t, "b@example.com", types.RoleStudent)
	outsider := h.user(t, "c@example.com", types.RoleStudent)
	course := testutil.SeedCourse(t, h.ctx, h.db, "Go", inst.ID)
	for _, u := range []*types.User{a, b} {
		_, err := h.enrollments.Enroll(h.as(u), course.ID)
		require.NoError(t, err)
	}
	due := time.Now().UTC().Add(48 * time.Hour)

	all, err := h.deadlines.Create(h.as(inst), course.ID, DeadlineInput{Title: "Project", DueDate: due})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = h.deadlines.Create(h.as(inst), course.ID, DeadlineInput{Title: "Solo", DueDate: due, StudentID: &outsider.ID})
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))

	solo, err := h.deadlines.Create(h.as(inst), course.ID, DeadlineInput{Title: "Solo", DueDate: due, StudentID: &a.ID})
	require.NoError(t, err)
	require.Len(t, solo, 1)

	upcoming, err := h.deadlines.ListUpcoming(h.as(a), 0)
	require.NoError(t, err)
	assert.Len(t, upcoming, 2)

	err = h.deadlines.Complete(h.as(b), solo[0].ID)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
	require.NoError(t, h.deadlines.Complete(h.as(a), solo[0].ID))

	upcoming, err = h.deadlines.ListUpcoming(h.as(a), 0)
	require.NoError(t, err)
	assert.Len(t, upcoming, 1)

	byCourse, err := h.deadlines.ListByCourse(h.as(inst), course.ID)
	require.NoError(t, err)
	assert.Len(t, byCourse, 3)
}
