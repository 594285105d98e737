package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/observability"
	pkgerrors "github.com/yungbote/lms-backend/internal/pkg/errors"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/ctxutil"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

const MinPasswordLength = 6

type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	BcryptCost    int
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     types.Role
}

// TokenPair is what a successful sign-in hands back to the client.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  time.Duration
	RefreshExpiresAt time.Time
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, email, password string) (*types.User, *TokenPair, error)
	IssueTokens(dbc dbctx.Context, user *types.User) (*TokenPair, error)
	// Refresh rotates a refresh token: the old one is revoked and a new pair
	// is issued.
	Refresh(ctx context.Context, refreshToken string) (*types.User, *TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	SetContextFromRefreshToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
	GetRefreshTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	cfg           AuthConfig
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	cfg AuthConfig,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		cfg:           cfg,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	name := strings.TrimSpace(in.Name)
	email := types.NormalizeEmail(in.Email)
	role := in.Role
	if role == "" {
		role = types.RoleStudent
	}

	switch {
	case name == "":
		return nil, apierr.Validation("name is required")
	case !validEmail(email):
		return nil, apierr.Validation("a valid email is required")
	case len(in.Password) < MinPasswordLength:
		return nil, apierr.Validation(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	case role != types.RoleStudent && role != types.RoleInstructor:
		return nil, apierr.Validation("role must be student or instructor")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), as.cfg.BcryptCost)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("hash password: %w", err))
	}

	user := &types.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	dbc := dbctx.Of(ctx)
	exists, err := as.userRepo.EmailExists(dbc, email)
	if err != nil {
		return nil, apierr.Store(err)
	}
	if exists {
		return nil, apierr.Conflict("User already exists")
	}
	if _, err := as.userRepo.Create(dbc, []*types.User{user}); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, apierr.Conflict("User already exists")
		}
		as.log.Error("Create user failed", "error", err)
		return nil, apierr.Store(err)
	}
	as.log.Info("User registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (as *authService) Login(ctx context.Context, email, password string) (*types.User, *TokenPair, error) {
	email = types.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, apierr.Validation("email and password are required")
	}
	dbc := dbctx.Of(ctx)
	user, err := as.userRepo.GetByEmail(dbc, email)
	if err != nil {
		return nil, nil, apierr.Store(err)
	}
	if user == nil || !user.HasPassword() {
		observability.Current().IncAuthEvent("password", "failure")
		return nil, nil, apierr.Authentication("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		observability.Current().IncAuthEvent("password", "failure")
		return nil, nil, apierr.Authentication("Invalid credentials")
	}
	pair, err := as.IssueTokens(dbc, user)
	if err != nil {
		return nil, nil, err
	}
	observability.Current().IncAuthEvent("password", "success")
	return user, pair, nil
}

func (as *authService) IssueTokens(dbc dbctx.Context, user *types.User) (*TokenPair, error) {
	now := as.now()
	access, err := as.signAccess(user, now)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("sign access token: %w", err))
	}

	ut := &types.UserToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		ExpiresAt: now.Add(as.cfg.RefreshTTL),
	}
	refresh, err := as.signRefresh(user, ut, now)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("sign refresh token: %w", err))
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{ut}); err != nil {
		as.log.Warn("Create user token failed", "error", err)
		return nil, apierr.Store(err)
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresIn:  as.cfg.AccessTTL,
		RefreshExpiresAt: ut.ExpiresAt,
	}, nil
}

func (as *authService) signAccess(user *types.User, now time.Time) (string, error) {
	claims := JWTClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.cfg.AccessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.cfg.AccessSecret))
}

func (as *authService) signRefresh(user *types.User, ut *types.UserToken, now time.Time) (string, error) {
	claims := JWTClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ut.ID.String(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(ut.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.cfg.RefreshSecret))
}

func (as *authService) parse(tokenString, secret string) (*JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid or expired token")
	}
	return claims, nil
}

// verifyRefresh checks the refresh signature and that its jti is still
// on record.
func (as *authService) verifyRefresh(dbc dbctx.Context, tokenString string) (*JWTClaims, *types.UserToken, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, nil, apierr.Authentication("Refresh token required")
	}
	claims, err := as.parse(tokenString, as.cfg.RefreshSecret)
	if err != nil {
		return nil, nil, apierr.New(apierr.KindAuthentication, "Invalid refresh token", err)
	}
	jti, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, nil, apierr.Authentication("Invalid refresh token")
	}
	found, err := as.userTokenRepo.GetByIDs(dbc, []uuid.UUID{jti})
	if err != nil {
		return nil, nil, apierr.Store(err)
	}
	if len(found) == 0 || found[0].Expired(as.now()) || found[0].UserID.String() != claims.Subject {
		return nil, nil, apierr.Authentication("Invalid refresh token")
	}
	return claims, found[0], nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*types.User, *TokenPair, error) {
	var (
		user *types.User
		pair *TokenPair
	)
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.InTx(ctx, tx)
		_, existing, err := as.verifyRefresh(inner, refreshToken)
		if err != nil {
			return err
		}
		users, err := as.userRepo.GetByIDs(inner, []uuid.UUID{existing.UserID})
		if err != nil {
			return apierr.Store(err)
		}
		if len(users) == 0 {
			return apierr.Authentication("Invalid refresh token")
		}
		user = users[0]
		// A concurrent refresh with the same token may have rotated it first.
		n, err := as.userTokenRepo.DeleteByIDs(inner, []uuid.UUID{existing.ID})
		if err != nil {
			return apierr.Store(err)
		}
		if n == 0 {
			return apierr.Authentication("Invalid refresh token")
		}
		pair, err = as.IssueTokens(inner, user)
		return err
	})
	if err != nil {
		observability.Current().IncAuthEvent("refresh", "failure")
		return nil, nil, err
	}
	observability.Current().IncAuthEvent("refresh", "success")
	return user, pair, nil
}

// Logout revokes the refresh token when it is valid. Unknown or malformed
// tokens are ignored so logout always succeeds.
func (as *authService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	claims, err := as.parse(refreshToken, as.cfg.RefreshSecret)
	if err != nil {
		as.log.Debug("Logout with unusable refresh token", "error", err)
		return nil
	}
	jti, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil
	}
	if _, err := as.userTokenRepo.DeleteByIDs(dbctx.Of(ctx), []uuid.UUID{jti}); err != nil {
		return apierr.Store(err)
	}
	return nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Authentication("missing token")
	}
	claims, err := as.parse(tokenString, as.cfg.AccessSecret)
	if err != nil {
		return ctx, apierr.New(apierr.KindAuthentication, "invalid or expired token", err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Authentication("invalid user id in token")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        claims.Role,
	}), nil
}

func (as *authService) SetContextFromRefreshToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims, _, err := as.verifyRefresh(dbctx.Of(ctx), tokenString)
	if err != nil {
		return ctx, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Authentication("invalid user id in token")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString:      tokenString,
		UserID:           userID,
		Role:             claims.Role,
		ViaRefreshCookie: true,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration  { return as.cfg.AccessTTL }
func (as *authService) GetRefreshTTL() time.Duration { return as.cfg.RefreshTTL }
