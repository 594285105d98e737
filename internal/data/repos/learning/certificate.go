package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type CertificateRepo interface {
	// Create inserts unless a certificate already exists for the pair and
	// reports whether a row was written.
	Create(dbc dbctx.Context, cert *types.Certificate) (bool, error)
	Get(dbc dbctx.Context, courseID, studentID uuid.UUID) (*types.Certificate, error)
	GetByID(dbc dbctx.Context, certID uuid.UUID) (*types.Certificate, error)
	ListByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*types.Certificate, error)
	UpdateURL(dbc dbctx.Context, certID uuid.UUID, url, storageKey string) error
	Count(dbc dbctx.Context) (int64, error)
}

type certificateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	repoLog := baseLog.With("repo", "CertificateRepo")
	return &certificateRepo{db: db, log: repoLog}
}

func (r *certificateRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *certificateRepo) Create(dbc dbctx.Context, cert *types.Certificate) (bool, error) {
	res := r.tx(dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(cert)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *certificateRepo) first(dbc dbctx.Context, query string, args ...any) (*types.Certificate, error) {
	var results []*types.Certificate
	if err := r.tx(dbc).Where(query, args...).Limit(1).Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *certificateRepo) Get(dbc dbctx.Context, courseID, studentID uuid.UUID) (*types.Certificate, error) {
	return r.first(dbc, "course_id = ? AND student_id = ?", courseID, studentID)
}

func (r *certificateRepo) GetByID(dbc dbctx.Context, certID uuid.UUID) (*types.Certificate, error) {
	return r.first(dbc, "id = ?", certID)
}

func (r *certificateRepo) ListByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*types.Certificate, error) {
	var results []*types.Certificate
	if err := r.tx(dbc).
		Where("student_id = ?", studentID).
		Order("issued_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *certificateRepo) UpdateURL(dbc dbctx.Context, certID uuid.UUID, url, storageKey string) error {
	return r.tx(dbc).
		Model(&types.Certificate{}).
		Where("id = ?", certID).
		UpdateColumns(map[string]any{"certificate_url": url, "storage_key": storageKey}).Error
}

func (r *certificateRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	if err := r.tx(dbc).Model(&types.Certificate{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
