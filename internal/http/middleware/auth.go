package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/ctxutil"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/services"
)

// RefreshCookie holds the refresh token issued at login.
const RefreshCookie = "refreshToken"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

// RequireAuth accepts a bearer access token and falls back to the refresh
// cookie when no header is sent.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, err := am.authenticate(c)
		if err != nil {
			response.RespondErr(c, err)
			return
		}
		if ctx == nil {
			response.RespondErr(c, apierr.Authentication("Not authorized, no token"))
			return
		}
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			response.RespondErr(c, apierr.Authentication("Not authorized"))
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid credential is present and
// continues anonymously otherwise.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, err := am.authenticate(c)
		if err != nil {
			am.log.Debug("ignoring invalid credential on optional route", "path", c.FullPath(), "error", err)
		}
		if err == nil && ctx != nil {
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil {
			response.RespondErr(c, apierr.Authentication("Not authorized"))
			return
		}
		for _, r := range roles {
			if string(r) == rd.Role {
				c.Next()
				return
			}
		}
		response.RespondErr(c, apierr.Authorization("Forbidden"))
	}
}

// authenticate returns a nil context when the request carries no credential.
func (am *AuthMiddleware) authenticate(c *gin.Context) (context.Context, error) {
	if token := bearerToken(c); token != "" {
		return am.authService.SetContextFromToken(c.Request.Context(), token)
	}
	if cookie, err := c.Cookie(RefreshCookie); err == nil && cookie != "" {
		return am.authService.SetContextFromRefreshToken(c.Request.Context(), cookie)
	}
	return nil, nil
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
