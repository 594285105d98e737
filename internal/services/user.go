package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	pkgerrors "github.com/yungbote/lms-backend/internal/pkg/errors"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

const maxInstructors = 200

type ProfileInput struct {
	Name      *string
	Bio       *string
	AvatarURL *string
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdateMe(ctx context.Context, in ProfileInput) (*types.User, error)
	// AdminProfile returns the caller's profile after checking the admin role.
	AdminProfile(ctx context.Context) (*types.User, error)
	ListInstructors(ctx context.Context) ([]*types.User, error)
}

type userService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{log: log.With("service", "UserService"), userRepo: userRepo}
}

func (us *userService) load(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	users, err := us.userRepo.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, apierr.Store(err)
	}
	if len(users) == 0 {
		return nil, apierr.NotFound("User not found")
	}
	return users[0], nil
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	return us.load(dbctx.Of(ctx), actor.ID)
}

func (us *userService) UpdateMe(ctx context.Context, in ProfileInput) (*types.User, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apierr.Validation("name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Bio != nil {
		updates["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
	}
	dbc := dbctx.Of(ctx)
	if err := us.userRepo.UpdateProfile(dbc, actor.ID, updates); err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, apierr.NotFound("User not found")
		}
		return nil, apierr.Store(err)
	}
	return us.load(dbc, actor.ID)
}

func (us *userService) AdminProfile(ctx context.Context) (*types.User, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := CheckRole(actor, ActionViewAdmin); err != nil {
		return nil, err
	}
	return us.load(dbctx.Of(ctx), actor.ID)
}

func (us *userService) ListInstructors(ctx context.Context) ([]*types.User, error) {
	out, err := us.userRepo.ListByRole(dbctx.Of(ctx), types.RoleInstructor, maxInstructors)
	if err != nil {
		return nil, apierr.Store(err)
	}
	return out, nil
}
