package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type LessonRepo interface {
	Create(dbc dbctx.Context, lessons []*types.Lesson) ([]*types.Lesson, error)
	GetByIDs(dbc dbctx.Context, lessonIDs []uuid.UUID) ([]*types.Lesson, error)
	ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Lesson, error)
	Update(dbc dbctx.Context, lessonID uuid.UUID, updates map[string]any) error
	// Delete removes the lesson along with its ledger entries and curriculum
	// placements.
	Delete(dbc dbctx.Context, lessonID uuid.UUID) error
	MaxOrder(dbc dbctx.Context, courseID uuid.UUID) (int, error)
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	repoLog := baseLog.With("repo", "LessonRepo")
	return &lessonRepo{db: db, log: repoLog}
}

func (r *lessonRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *lessonRepo) Create(dbc dbctx.Context, lessons []*types.Lesson) ([]*types.Lesson, error) {
	if len(lessons) == 0 {
		return []*types.Lesson{}, nil
	}
	if err := r.tx(dbc).Create(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) GetByIDs(dbc dbctx.Context, lessonIDs []uuid.UUID) ([]*types.Lesson, error) {
	var results []*types.Lesson
	if len(lessonIDs) == 0 {
		return results, nil
	}
	if err := r.tx(dbc).Where("id IN ?", lessonIDs).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lessonRepo) ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Lesson, error) {
	var results []*types.Lesson
	if err := r.tx(dbc).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lessonRepo) Update(dbc dbctx.Context, lessonID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.tx(dbc).Model(&types.Lesson{}).Where("id = ?", lessonID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *lessonRepo) Delete(dbc dbctx.Context, lessonID uuid.UUID) error {
	t := r.tx(dbc)
	if err := t.Where("lesson_id = ?", lessonID).Delete(&types.ProgressEntry{}).Error; err != nil {
		return err
	}
	if err := t.Where("lesson_id = ?", lessonID).Delete(&types.CurriculumItem{}).Error; err != nil {
		return err
	}
	res := t.Where("id = ?", lessonID).Delete(&types.Lesson{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *lessonRepo) MaxOrder(dbc dbctx.Context, courseID uuid.UUID) (int, error) {
	var max *int
	if err := r.tx(dbc).
		Model(&types.Lesson{}).
		Select("MAX(position)").
		Where("course_id = ?", courseID).
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}
