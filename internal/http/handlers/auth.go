package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/http/middleware"
	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/services"
)

type AuthHandlerConfig struct {
	// SecureCookies marks the refresh cookie Secure; on in production.
	SecureCookies bool
	// ClientURL is where OAuth callbacks send the browser.
	ClientURL string
}

type AuthHandler struct {
	log          *logger.Logger
	authService  services.AuthService
	oauthService services.OAuthService
	cfg          AuthHandlerConfig
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService, oauthService services.OAuthService, cfg AuthHandlerConfig) *AuthHandler {
	cfg.ClientURL = strings.TrimRight(strings.TrimSpace(cfg.ClientURL), "/")
	return &AuthHandler{
		log:          log.With("handler", "AuthHandler"),
		authService:  authService,
		oauthService: oauthService,
		cfg:          cfg,
	}
}

// POST /api/auth/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string     `json:"name" binding:"required"`
		Email    string     `json:"email" binding:"required,email"`
		Password string     `json:"password" binding:"required,min=6"`
		Role     types.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindErr(c, err)
		return
	}
	if _, err := ah.authService.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, http.StatusCreated, "User registered")
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindErr(c, err)
		return
	}
	user, pair, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	ah.setRefreshCookie(c, pair)
	response.RespondOK(c, gin.H{
		"message":    "Login successful",
		"token":      pair.AccessToken,
		"expires_in": int(pair.AccessExpiresIn.Seconds()),
		"user":       user,
	})
}

// POST /api/auth/refresh
func (ah *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(middleware.RefreshCookie)
	if err != nil || token == "" {
		response.RespondErr(c, apierr.Authentication("Refresh token required"))
		return
	}
	_, pair, err := ah.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		ah.clearRefreshCookie(c)
		response.RespondErr(c, err)
		return
	}
	ah.setRefreshCookie(c, pair)
	response.RespondOK(c, gin.H{
		"token":      pair.AccessToken,
		"expires_in": int(pair.AccessExpiresIn.Seconds()),
	})
}

// POST /api/auth/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(middleware.RefreshCookie)
	if err := ah.authService.Logout(c.Request.Context(), token); err != nil {
		ah.log.Warn("Logout revoke failed", "error", err)
	}
	ah.clearRefreshCookie(c)
	response.RespondMessage(c, http.StatusOK, "Logged out successfully")
}

// GET /api/auth/:provider
func (ah *AuthHandler) OAuthStart(provider types.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := ah.oauthService.AuthCodeURL(c.Request.Context(), provider)
		if err != nil {
			response.RespondErr(c, err)
			return
		}
		c.Redirect(http.StatusFound, target)
	}
}

// GET /api/auth/:provider/callback
func (ah *AuthHandler) OAuthCallback(provider types.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if e := c.Query("error"); e != "" {
			ah.log.Warn("OAuth provider returned error", "provider", provider, "error", e)
			c.Redirect(http.StatusFound, ah.callbackURL(string(apierr.KindAuthentication)))
			return
		}
		_, pair, err := ah.oauthService.Exchange(c.Request.Context(), provider, c.Query("state"), c.Query("code"))
		if err != nil {
			ah.log.Warn("OAuth callback failed", "provider", provider, "error", err)
			c.Redirect(http.StatusFound, ah.callbackURL(string(apierr.KindOf(err))))
			return
		}
		ah.setRefreshCookie(c, pair)
		c.Redirect(http.StatusFound, ah.callbackURL(""))
	}
}

func (ah *AuthHandler) callbackURL(errKind string) string {
	u := ah.cfg.ClientURL + "/auth/callback"
	if errKind != "" {
		u += "?error=" + url.QueryEscape(errKind)
	}
	return u
}

func (ah *AuthHandler) setRefreshCookie(c *gin.Context, pair *services.TokenPair) {
	maxAge := int(time.Until(pair.RefreshExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = int(ah.authService.GetRefreshTTL().Seconds())
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.RefreshCookie, pair.RefreshToken, maxAge, "/", "", ah.cfg.SecureCookies, true)
}

func (ah *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.RefreshCookie, "", -1, "/", "", ah.cfg.SecureCookies, true)
}
