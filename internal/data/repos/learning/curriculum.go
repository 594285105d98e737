package learning

import (
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type CurriculumRepo interface {
	// Replace swaps the course's sections and items for the given ones.
	Replace(dbc dbctx.Context, courseID uuid.UUID, sections []*types.CurriculumSection) error
	// ListByCourse returns sections ordered by position with their items
	// ordered the same way.
	ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.CurriculumSection, error)
	GetSection(dbc dbctx.Context, sectionID uuid.UUID) (*types.CurriculumSection, error)
	AddItem(dbc dbctx.Context, item *types.CurriculumItem) error
}

type curriculumRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCurriculumRepo(db *gorm.DB, baseLog *logger.Logger) CurriculumRepo {
	repoLog := baseLog.With("repo", "CurriculumRepo")
	return &curriculumRepo{db: db, log: repoLog}
}

func (r *curriculumRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *curriculumRepo) Replace(dbc dbctx.Context, courseID uuid.UUID, sections []*types.CurriculumSection) error {
	t := r.tx(dbc)
	existing := t.Session(&gorm.Session{NewDB: true}).Model(&types.CurriculumSection{}).Select("id").Where("course_id = ?", courseID)
	if err := t.Where("section_id IN (?)", existing).Delete(&types.CurriculumItem{}).Error; err != nil {
		return err
	}
	if err := t.Where("course_id = ?", courseID).Delete(&types.CurriculumSection{}).Error; err != nil {
		return err
	}
	for i, s := range sections {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.CourseID = courseID
		if s.Order == 0 {
			s.Order = i + 1
		}
		items := s.Items
		s.Items = nil
		if err := t.Create(s).Error; err != nil {
			return err
		}
		for j := range items {
			items[j].SectionID = s.ID
		}
		if len(items) > 0 {
			if err := t.Create(&items).Error; err != nil {
				return err
			}
		}
		s.Items = items
	}
	return nil
}

func (r *curriculumRepo) ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.CurriculumSection, error) {
	var results []*types.CurriculumSection
	if err := r.tx(dbc).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	for _, s := range results {
		sort.SliceStable(s.Items, func(i, j int) bool { return s.Items[i].Order < s.Items[j].Order })
	}
	return results, nil
}

func (r *curriculumRepo) GetSection(dbc dbctx.Context, sectionID uuid.UUID) (*types.CurriculumSection, error) {
	var results []*types.CurriculumSection
	if err := r.tx(dbc).Where("id = ?", sectionID).Limit(1).Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *curriculumRepo) AddItem(dbc dbctx.Context, item *types.CurriculumItem) error {
	return r.tx(dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "section_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"position"}),
		}).
		Create(item).Error
}
