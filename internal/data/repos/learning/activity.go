package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type ActivityRepo interface {
	Create(dbc dbctx.Context, activities []*types.Activity) ([]*types.Activity, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Activity, error)
	ListByCourses(dbc dbctx.Context, courseIDs []uuid.UUID, limit int) ([]*types.Activity, error)
	// MarkRead flips Read for an activity owned by userID. It reports whether
	// a matching activity existed.
	MarkRead(dbc dbctx.Context, activityID, userID uuid.UUID) (bool, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	repoLog := baseLog.With("repo", "ActivityRepo")
	return &activityRepo{db: db, log: repoLog}
}

func (r *activityRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

var newestFirst = clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func (r *activityRepo) Create(dbc dbctx.Context, activities []*types.Activity) ([]*types.Activity, error) {
	if len(activities) == 0 {
		return []*types.Activity{}, nil
	}
	if err := r.tx(dbc).Create(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *activityRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Activity, error) {
	var results []*types.Activity
	if err := r.tx(dbc).
		Where("user_id = ?", userID).
		Order(newestFirst).
		Limit(clampLimit(limit, 20, 100)).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *activityRepo) ListByCourses(dbc dbctx.Context, courseIDs []uuid.UUID, limit int) ([]*types.Activity, error) {
	var results []*types.Activity
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := r.tx(dbc).
		Where("course_id IN ?", courseIDs).
		Order(newestFirst).
		Limit(clampLimit(limit, 20, 100)).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *activityRepo) MarkRead(dbc dbctx.Context, activityID, userID uuid.UUID) (bool, error) {
	var n int64
	t := r.tx(dbc)
	if err := t.Model(&types.Activity{}).
		Where("id = ? AND user_id = ?", activityID, userID).
		Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if err := t.Model(&types.Activity{}).
		Where("id = ? AND user_id = ?", activityID, userID).
		UpdateColumn("read", true).Error; err != nil {
		return false, err
	}
	return true, nil
}
