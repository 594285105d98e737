package learning

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

// CourseFilter narrows List. Zero values mean "any".
type CourseFilter struct {
	Category  string
	Level     string
	Search    string
	Featured  *bool
	Published *bool
	Limit     int
	Offset    int
}

type CourseRepo interface {
	Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error)
	GetByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Course, error)
	List(dbc dbctx.Context, f CourseFilter) ([]*types.Course, int64, error)
	ListByInstructor(dbc dbctx.Context, userID uuid.UUID) ([]*types.Course, error)
	Update(dbc dbctx.Context, courseID uuid.UUID, updates map[string]any) error
	SetInstructors(dbc dbctx.Context, courseID uuid.UUID, userIDs []uuid.UUID) error
	RecomputeStudentsCount(dbc dbctx.Context, courseID uuid.UUID) error
	DeleteCascade(dbc dbctx.Context, courseID uuid.UUID) error
	Count(dbc dbctx.Context, publishedOnly bool) (int64, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	repoLog := baseLog.With("repo", "CourseRepo")
	return &courseRepo{db: db, log: repoLog}
}

func (r *courseRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *courseRepo) Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error) {
	if len(courses) == 0 {
		return []*types.Course{}, nil
	}
	if err := r.tx(dbc).Omit("Instructors").Create(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) GetByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Course, error) {
	var results []*types.Course
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := r.tx(dbc).
		Preload("Instructors").
		Where("id IN ?", courseIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseRepo) List(dbc dbctx.Context, f CourseFilter) ([]*types.Course, int64, error) {
	q := r.tx(dbc).Model(&types.Course{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Level != "" {
		q = q.Where("level = ?", f.Level)
	}
	if f.Featured != nil {
		q = q.Where("is_featured = ?", *f.Featured)
	}
	if f.Published != nil {
		q = q.Where("is_published = ?", *f.Published)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var results []*types.Course
	if err := q.
		Preload("Instructors").
		Order("created_at DESC").
		Limit(limit).
		Offset(f.Offset).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *courseRepo) ListByInstructor(dbc dbctx.Context, userID uuid.UUID) ([]*types.Course, error) {
	var results []*types.Course
	if err := r.tx(dbc).
		Preload("Instructors").
		Where("id IN (?)", r.tx(dbc).Model(&types.CourseInstructor{}).Select("course_id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseRepo) Update(dbc dbctx.Context, courseID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.tx(dbc).Model(&types.Course{}).Where("id = ?", courseID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepo) SetInstructors(dbc dbctx.Context, courseID uuid.UUID, userIDs []uuid.UUID) error {
	t := r.tx(dbc)
	if err := t.Where("course_id = ?", courseID).Delete(&types.CourseInstructor{}).Error; err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]*types.CourseInstructor, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, &types.CourseInstructor{CourseID: courseID, UserID: id})
	}
	return t.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// RecomputeStudentsCount sets students_count from the enrollment table in a
// single statement.
func (r *courseRepo) RecomputeStudentsCount(dbc dbctx.Context, courseID uuid.UUID) error {
	t := r.tx(dbc)
	return t.Model(&types.Course{}).
		Where("id = ?", courseID).
		UpdateColumn("students_count",
			t.Session(&gorm.Session{NewDB: true}).
				Model(&types.Enrollment{}).
				Select("COUNT(*)").
				Where("course_id = ?", courseID),
		).Error
}

// DeleteCascade removes the course and everything it owns. Certificates are
// kept as a historical record.
func (r *courseRepo) DeleteCascade(dbc dbctx.Context, courseID uuid.UUID) error {
	t := r.tx(dbc)
	enrollments := t.Session(&gorm.Session{NewDB: true}).Model(&types.Enrollment{}).Select("id").Where("course_id = ?", courseID)
	sections := t.Session(&gorm.Session{NewDB: true}).Model(&types.CurriculumSection{}).Select("id").Where("course_id = ?", courseID)

	steps := []func() error{
		func() error { return t.Where("enrollment_id IN (?)", enrollments).Delete(&types.ProgressEntry{}).Error },
		func() error { return t.Where("course_id = ?", courseID).Delete(&types.Enrollment{}).Error },
		func() error { return t.Where("section_id IN (?)", sections).Delete(&types.CurriculumItem{}).Error },
		func() error { return t.Where("course_id = ?", courseID).Delete(&types.CurriculumSection{}).Error },
		func() error { return t.Where("course_id = ?", courseID).Delete(&types.Lesson{}).Error },
		func() error { return t.Where("course_id = ?", courseID).Delete(&types.CourseReview{}).Error },
		func() error { return t.Where("course_id = ?", courseID).Delete(&types.Deadline{}).Error },
		func() error { return t.Where("course_id = ?", courseID).Delete(&types.CourseInstructor{}).Error },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	res := t.Where("id = ?", courseID).Delete(&types.Course{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepo) Count(dbc dbctx.Context, publishedOnly bool) (int64, error) {
	var n int64
	q := r.tx(dbc).Model(&types.Course{})
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
