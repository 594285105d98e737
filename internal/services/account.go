package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	pkgerrors "github.com/yungbote/lms-backend/internal/pkg/errors"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

// ExternalProfile is what an identity provider tells us about the caller.
type ExternalProfile struct {
	Provider      types.Provider
	Subject       string
	Email         string
	EmailVerified bool
	DisplayName   string
	Login         string
	AvatarURL     string
}

type AccountService interface {
	// ResolveExternal maps a provider identity onto exactly one user: an
	// existing link, an account with the same verified email, or a new
	// student account.
	ResolveExternal(ctx context.Context, p ExternalProfile) (*types.User, error)
}

type accountService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewAccountService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) AccountService {
	return &accountService{db: db, log: log.With("service", "AccountService"), userRepo: userRepo}
}

func (s *accountService) ResolveExternal(ctx context.Context, p ExternalProfile) (*types.User, error) {
	subject := strings.TrimSpace(p.Subject)
	if !p.Provider.Valid() || subject == "" {
		return nil, apierr.Authentication("external identity is incomplete")
	}

	var resolved *types.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.resolve(dbctx.InTx(ctx, tx), p, subject)
		if err != nil {
			return err
		}
		resolved = u
		return nil
	})
	if err != nil && pkgerrors.IsUniqueViolation(err) {
		// A concurrent callback for the same identity won the insert.
		u, lookupErr := s.userRepo.GetByExternalID(dbctx.Of(ctx), p.Provider, subject)
		if lookupErr == nil && u != nil {
			return u, nil
		}
	}
	if err != nil {
		s.log.Warn("Resolve external identity failed", "provider", p.Provider, "error", err)
		return nil, apierr.New(apierr.KindAuthentication, "could not sign in with "+p.Provider.DisplayName(), err)
	}
	return resolved, nil
}

func (s *accountService) resolve(dbc dbctx.Context, p ExternalProfile, subject string) (*types.User, error) {
	linked, err := s.userRepo.GetByExternalID(dbc, p.Provider, subject)
	if err != nil {
		return nil, err
	}
	if linked != nil {
		return linked, nil
	}

	email := types.NormalizeEmail(p.Email)
	if p.EmailVerified && email != "" {
		existing, err := s.userRepo.GetByEmail(dbc, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := s.userRepo.LinkExternalID(dbc, existing.ID, p.Provider, subject); err != nil {
				return nil, err
			}
			existing.SetExternalID(p.Provider, subject)
			s.log.Info("Linked external identity", "provider", p.Provider, "user_id", existing.ID)
			return existing, nil
		}
	} else {
		email = ""
	}

	u := &types.User{
		Name:      displayNameFor(p),
		Email:     email,
		Role:      types.RoleStudent,
		AvatarURL: p.AvatarURL,
	}
	if u.Email == "" {
		u.Email = placeholderEmail(p, subject)
	}
	u.SetExternalID(p.Provider, subject)
	if _, err := s.userRepo.Create(dbc, []*types.User{u}); err != nil {
		return nil, err
	}
	s.log.Info("Created user from external identity", "provider", p.Provider, "user_id", u.ID)
	return u, nil
}

func displayNameFor(p ExternalProfile) string {
	if n := strings.TrimSpace(p.DisplayName); n != "" {
		return n
	}
	if l := strings.TrimSpace(p.Login); l != "" {
		return l
	}
	return p.Provider.DisplayName() + " User"
}

// placeholderEmail fills the required email column for accounts whose
// provider shares no verified address.
func placeholderEmail(p ExternalProfile, subject string) string {
	local := strings.TrimSpace(p.Login)
	if local == "" {
		local = subject
	}
	return types.NormalizeEmail(fmt.Sprintf("%s@%s.temp", local, p.Provider))
}
