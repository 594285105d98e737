package user

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	GetByExternalID(dbc dbctx.Context, provider types.Provider, subject string) (*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	LinkExternalID(dbc dbctx.Context, userID uuid.UUID, provider types.Provider, subject string) error
	UpdateProfile(dbc dbctx.Context, userID uuid.UUID, updates map[string]any) error
	ListByRole(dbc dbctx.Context, role types.Role, limit int) ([]*types.User, error)
	ListRecent(dbc dbctx.Context, limit int) ([]*types.User, error)
	CountByRole(dbc dbctx.Context) (map[types.Role]int64, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := ur.tx(dbc).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error) {
	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := ur.tx(dbc).Where("id IN ?", userIDs).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByEmail returns nil, nil when no user has the email.
func (ur *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	var results []*types.User
	if err := ur.tx(dbc).
		Where("email = ?", types.NormalizeEmail(email)).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// GetByExternalID returns nil, nil when no user carries the provider subject.
func (ur *userRepo) GetByExternalID(dbc dbctx.Context, provider types.Provider, subject string) (*types.User, error) {
	col := provider.Column()
	if col == "" || strings.TrimSpace(subject) == "" {
		return nil, nil
	}
	var results []*types.User
	if err := ur.tx(dbc).
		Where(col+" = ?", subject).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	var count int64
	if err := ur.tx(dbc).
		Model(&types.User{}).
		Where("email = ?", types.NormalizeEmail(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// LinkExternalID writes only the provider column so a concurrent profile
// edit is never overwritten.
func (ur *userRepo) LinkExternalID(dbc dbctx.Context, userID uuid.UUID, provider types.Provider, subject string) error {
	col := provider.Column()
	if col == "" {
		return gorm.ErrInvalidField
	}
	return ur.tx(dbc).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update(col, subject).Error
}

func (ur *userRepo) UpdateProfile(dbc dbctx.Context, userID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := ur.tx(dbc).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (ur *userRepo) ListByRole(dbc dbctx.Context, role types.Role, limit int) ([]*types.User, error) {
	var results []*types.User
	q := ur.tx(dbc).Where("role = ?", role).Order("name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.User, error) {
	var results []*types.User
	if limit <= 0 {
		limit = 5
	}
	if err := ur.tx(dbc).Order("created_at DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) CountByRole(dbc dbctx.Context) (map[types.Role]int64, error) {
	var rows []struct {
		Role  types.Role
		Count int64
	}
	if err := ur.tx(dbc).
		Model(&types.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := map[types.Role]int64{}
	for _, r := range rows {
		out[r.Role] = r.Count
	}
	return out, nil
}
