package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type DeadlineRepo interface {
	Create(dbc dbctx.Context, deadlines []*types.Deadline) ([]*types.Deadline, error)
	GetByID(dbc dbctx.Context, deadlineID uuid.UUID) (*types.Deadline, error)
	// ListUpcomingByStudent returns open deadlines due at or after since,
	// soonest first.
	ListUpcomingByStudent(dbc dbctx.Context, studentID uuid.UUID, since time.Time, limit int) ([]*types.Deadline, error)
	ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Deadline, error)
	MarkCompleted(dbc dbctx.Context, deadlineID, studentID uuid.UUID) (bool, error)
}

type deadlineRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeadlineRepo(db *gorm.DB, baseLog *logger.Logger) DeadlineRepo {
	repoLog := baseLog.With("repo", "DeadlineRepo")
	return &deadlineRepo{db: db, log: repoLog}
}

func (r *deadlineRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *deadlineRepo) Create(dbc dbctx.Context, deadlines []*types.Deadline) ([]*types.Deadline, error) {
	if len(deadlines) == 0 {
		return []*types.Deadline{}, nil
	}
	if err := r.tx(dbc).Create(&deadlines).Error; err != nil {
		return nil, err
	}
	return deadlines, nil
}

func (r *deadlineRepo) GetByID(dbc dbctx.Context, deadlineID uuid.UUID) (*types.Deadline, error) {
	var results []*types.Deadline
	if err := r.tx(dbc).Where("id = ?", deadlineID).Limit(1).Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *deadlineRepo) ListUpcomingByStudent(dbc dbctx.Context, studentID uuid.UUID, since time.Time, limit int) ([]*types.Deadline, error) {
	var results []*types.Deadline
	if err := r.tx(dbc).
		Where("student_id = ? AND completed = ? AND due_date >= ?", studentID, false, since).
		Order("due_date ASC").
		Limit(clampLimit(limit, 20, 100)).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *deadlineRepo) ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Deadline, error) {
	var results []*types.Deadline
	if err := r.tx(dbc).
		Where("course_id = ?", courseID).
		Order("due_date ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *deadlineRepo) MarkCompleted(dbc dbctx.Context, deadlineID, studentID uuid.UUID) (bool, error) {
	var n int64
	t := r.tx(dbc)
	if err := t.Model(&types.Deadline{}).
		Where("id = ? AND student_id = ?", deadlineID, studentID).
		Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if err := t.Model(&types.Deadline{}).
		Where("id = ? AND student_id = ?", deadlineID, studentID).
		UpdateColumn("completed", true).Error; err != nil {
		return false, err
	}
	return true, nil
}
