package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/ctxutil"
)

type Action string

const (
	ActionCreateCourse   Action = "course:create"
	ActionUpdateCourse   Action = "course:update"
	ActionDeleteCourse   Action = "course:delete"
	ActionManageLessons  Action = "lesson:manage"
	ActionManageDeadline Action = "deadline:manage"
	ActionViewAdmin      Action = "admin:view"
)

// Actor is the authenticated caller.
type Actor struct {
	ID   uuid.UUID
	Role types.Role
}

func (a Actor) IsZero() bool { return a.ID == uuid.Nil }

// ActorFrom reads the caller attached by the auth middleware.
func ActorFrom(ctx context.Context) (Actor, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return Actor{}, apierr.Authentication("authentication required")
	}
	return Actor{ID: rd.UserID, Role: types.Role(rd.Role)}, nil
}

// OptionalActor is ActorFrom for routes that also serve anonymous callers.
func OptionalActor(ctx context.Context) *Actor {
	a, err := ActorFrom(ctx)
	if err != nil {
		return nil
	}
	return &a
}

// CheckRole is the existence-independent half of Authorize. It runs before
// any lookup so students are refused even for courses that do not exist.
func CheckRole(actor Actor, action Action) error {
	switch actor.Role {
	case types.RoleAdmin:
		return nil
	case types.RoleInstructor:
		if action == ActionViewAdmin {
			return apierr.Authorization("admin access required")
		}
		return nil
	default:
		return apierr.Authorization("you are not allowed to perform this action")
	}
}

// Authorize decides whether actor may perform action on a course owned by
// instructorIDs. Pass nil instructorIDs for actions that are not scoped to a
// course.
func Authorize(actor Actor, action Action, instructorIDs []uuid.UUID) error {
	if err := CheckRole(actor, action); err != nil {
		return err
	}
	if actor.Role == types.RoleAdmin || action == ActionCreateCourse {
		return nil
	}
	for _, id := range instructorIDs {
		if id == actor.ID {
			return nil
		}
	}
	return apierr.Authorization("only this course's instructors may do that")
}
