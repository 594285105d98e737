package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type ReviewRepo interface {
	Create(dbc dbctx.Context, review *types.CourseReview) error
	ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.CourseReview, error)
	// AverageRating returns the mean rating and the number of reviews.
	AverageRating(dbc dbctx.Context, courseID uuid.UUID) (float64, int64, error)
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	repoLog := baseLog.With("repo", "ReviewRepo")
	return &reviewRepo{db: db, log: repoLog}
}

func (r *reviewRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *reviewRepo) Create(dbc dbctx.Context, review *types.CourseReview) error {
	return r.tx(dbc).Create(review).Error
}

func (r *reviewRepo) ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.CourseReview, error) {
	var results []*types.CourseReview
	if err := r.tx(dbc).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *reviewRepo) AverageRating(dbc dbctx.Context, courseID uuid.UUID) (float64, int64, error) {
	var row struct {
		Avg   *float64
		Total int64
	}
	if err := r.tx(dbc).
		Model(&types.CourseReview{}).
		Select("AVG(rating) AS avg, COUNT(*) AS total").
		Where("course_id = ?", courseID).
		Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	if row.Avg == nil {
		return 0, row.Total, nil
	}
	return *row.Avg, row.Total, nil
}
