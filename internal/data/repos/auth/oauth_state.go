package auth

import (
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type OAuthStateRepo interface {
	Create(dbc dbctx.Context, states []*types.OAuthState) ([]*types.OAuthState, error)
	// Consume marks a pending state used. It reports false when the state is
	// unknown, expired, already used, or belongs to another provider.
	Consume(dbc dbctx.Context, provider, stateHash string, now time.Time) (bool, error)
	DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error)
}

type oauthStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOAuthStateRepo(db *gorm.DB, baseLog *logger.Logger) OAuthStateRepo {
	repoLog := baseLog.With("repo", "OAuthStateRepo")
	return &oauthStateRepo{db: db, log: repoLog}
}

func (r *oauthStateRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *oauthStateRepo) Create(dbc dbctx.Context, states []*types.OAuthState) ([]*types.OAuthState, error) {
	if len(states) == 0 {
		return []*types.OAuthState{}, nil
	}
	if err := r.tx(dbc).Create(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}

func (r *oauthStateRepo) Consume(dbc dbctx.Context, provider, stateHash string, now time.Time) (bool, error) {
	res := r.tx(dbc).
		Model(&types.OAuthState{}).
		Where("state_hash = ? AND provider = ? AND used_at IS NULL AND expires_at > ?", stateHash, provider, now).
		Update("used_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *oauthStateRepo) DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error) {
	res := r.tx(dbc).Where("expires_at <= ?", now).Delete(&types.OAuthState{})
	return res.RowsAffected, res.Error
}
