package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type EnrollmentRepo interface {
	// Insert creates the enrollment unless one already exists for the
	// (course, student) pair. It reports whether a row was written.
	Insert(dbc dbctx.Context, e *types.Enrollment) (bool, error)
	Get(dbc dbctx.Context, courseID, studentID uuid.UUID) (*types.Enrollment, error)
	ListByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*types.Enrollment, error)
	ListByCourses(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Enrollment, error)
	Count(dbc dbctx.Context) (int64, error)
	SetReportedProgress(dbc dbctx.Context, enrollmentID uuid.UUID, percent int) error

	// SeedEntries adds one not-completed ledger entry per lesson, skipping
	// lessons already present.
	SeedEntries(dbc dbctx.Context, enrollmentID uuid.UUID, lessonIDs []uuid.UUID) error
	// MarkCompleted flips a single ledger entry to completed. It never
	// touches other entries and never rewrites an existing completed_at.
	MarkCompleted(dbc dbctx.Context, enrollmentID, lessonID uuid.UUID, at time.Time) (*types.ProgressEntry, error)
	ListEntries(dbc dbctx.Context, enrollmentIDs []uuid.UUID) ([]*types.ProgressEntry, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	repoLog := baseLog.With("repo", "EnrollmentRepo")
	return &enrollmentRepo{db: db, log: repoLog}
}

func (r *enrollmentRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *enrollmentRepo) Insert(dbc dbctx.Context, e *types.Enrollment) (bool, error) {
	res := r.tx(dbc).
		Omit("Progress").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *enrollmentRepo) Get(dbc dbctx.Context, courseID, studentID uuid.UUID) (*types.Enrollment, error) {
	var results []*types.Enrollment
	if err := r.tx(dbc).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *enrollmentRepo) ListByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*types.Enrollment, error) {
	var results []*types.Enrollment
	if err := r.tx(dbc).
		Where("student_id = ?", studentID).
		Order("enrolled_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *enrollmentRepo) ListByCourses(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Enrollment, error) {
	var results []*types.Enrollment
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := r.tx(dbc).
		Where("course_id IN ?", courseIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *enrollmentRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	if err := r.tx(dbc).Model(&types.Enrollment{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *enrollmentRepo) SetReportedProgress(dbc dbctx.Context, enrollmentID uuid.UUID, percent int) error {
	return r.tx(dbc).
		Model(&types.Enrollment{}).
		Where("id = ?", enrollmentID).
		UpdateColumn("reported_progress", percent).Error
}

func (r *enrollmentRepo) SeedEntries(dbc dbctx.Context, enrollmentID uuid.UUID, lessonIDs []uuid.UUID) error {
	if len(lessonIDs) == 0 {
		return nil
	}
	entries := make([]*types.ProgressEntry, 0, len(lessonIDs))
	for _, id := range lessonIDs {
		entries = append(entries, &types.ProgressEntry{
			ID:           uuid.New(),
			EnrollmentID: enrollmentID,
			LessonID:     id,
		})
	}
	return r.tx(dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "lesson_id"}},
			DoNothing: true,
		}).
		CreateInBatches(&entries, 200).Error
}

func (r *enrollmentRepo) MarkCompleted(dbc dbctx.Context, enrollmentID, lessonID uuid.UUID, at time.Time) (*types.ProgressEntry, error) {
	t := r.tx(dbc)
	res := t.Model(&types.ProgressEntry{}).
		Where("enrollment_id = ? AND lesson_id = ? AND completed = ?", enrollmentID, lessonID, false).
		UpdateColumns(map[string]any{"completed": true, "completed_at": at})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Either already completed or the lesson postdates the enrollment.
		entry := &types.ProgressEntry{
			ID:           uuid.New(),
			EnrollmentID: enrollmentID,
			LessonID:     lessonID,
			Completed:    true,
			CompletedAt:  &at,
		}
		if err := t.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "lesson_id"}},
			DoNothing: true,
		}).Create(entry).Error; err != nil {
			return nil, err
		}
	}

	var out types.ProgressEntry
	if err := t.Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *enrollmentRepo) ListEntries(dbc dbctx.Context, enrollmentIDs []uuid.UUID) ([]*types.ProgressEntry, error) {
	var results []*types.ProgressEntry
	if len(enrollmentIDs) == 0 {
		return results, nil
	}
	if err := r.tx(dbc).
		Where("enrollment_id IN ?", enrollmentIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
