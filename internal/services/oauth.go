package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/observability"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

const defaultStateTTL = 10 * time.Minute

type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint and APIBase default to the provider's public URLs when empty.
	Endpoint oauth2.Endpoint
	APIBase  string
}

func (c OAuthProviderConfig) configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type OAuthConfig struct {
	Google        OAuthProviderConfig
	GitHub        OAuthProviderConfig
	SessionSecret string
	StateTTL      time.Duration
}

// OAuthStateStore holds pending authorization states until the callback.
type OAuthStateStore interface {
	Put(ctx context.Context, provider, stateHash string, ttl time.Duration) error
	Consume(ctx context.Context, provider, stateHash string) (bool, error)
}

type OAuthService interface {
	Enabled(provider types.Provider) bool
	// AuthCodeURL starts a login by minting a single-use state.
	AuthCodeURL(ctx context.Context, provider types.Provider) (string, error)
	// Exchange finishes a login: it consumes the state, trades the code for
	// a provider token, resolves the account and issues our own tokens.
	Exchange(ctx context.Context, provider types.Provider, state, code string) (*types.User, *TokenPair, error)
}

type oauthProvider struct {
	config  *oauth2.Config
	apiBase string
}

type oauthService struct {
	log        *logger.Logger
	providers  map[types.Provider]*oauthProvider
	states     OAuthStateStore
	accounts   AccountService
	auth       AuthService
	secret     []byte
	stateTTL   time.Duration
	httpClient *http.Client
}

func NewOAuthService(
	log *logger.Logger,
	cfg OAuthConfig,
	states OAuthStateStore,
	accounts AccountService,
	auth AuthService,
) OAuthService {
	serviceLog := log.With("service", "OAuthService")
	s := &oauthService{
		log:        serviceLog,
		providers:  map[types.Provider]*oauthProvider{},
		states:     states,
		accounts:   accounts,
		auth:       auth,
		secret:     []byte(cfg.SessionSecret),
		stateTTL:   cfg.StateTTL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	if s.stateTTL <= 0 {
		s.stateTTL = defaultStateTTL
	}
	if cfg.Google.configured() {
		s.providers[types.ProviderGoogle] = newOAuthProvider(cfg.Google, google.Endpoint, "https://www.googleapis.com",
			[]string{"openid", "profile", "email"})
	}
	if cfg.GitHub.configured() {
		s.providers[types.ProviderGitHub] = newOAuthProvider(cfg.GitHub, github.Endpoint, "https://api.github.com",
			[]string{"read:user", "user:email"})
	}
	for p := range s.providers {
		serviceLog.Info("OAuth provider enabled", "provider", p)
	}
	return s
}

func newOAuthProvider(c OAuthProviderConfig, endpoint oauth2.Endpoint, apiBase string, scopes []string) *oauthProvider {
	if c.Endpoint.AuthURL != "" {
		endpoint = c.Endpoint
	}
	if c.APIBase != "" {
		apiBase = c.APIBase
	}
	return &oauthProvider{
		config: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		apiBase: strings.TrimRight(apiBase, "/"),
	}
}

func (s *oauthService) Enabled(provider types.Provider) bool {
	_, ok := s.providers[provider]
	return ok
}

func (s *oauthService) provider(p types.Provider) (*oauthProvider, error) {
	prov, ok := s.providers[p]
	if !ok {
		return nil, apierr.NotFound(fmt.Sprintf("%s sign-in is not configured", p.DisplayName()))
	}
	return prov, nil
}

func (s *oauthService) hashState(state string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(state))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *oauthService) AuthCodeURL(ctx context.Context, provider types.Provider) (string, error) {
	prov, err := s.provider(provider)
	if err != nil {
		return "", err
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", apierr.Store(fmt.Errorf("generate oauth state: %w", err))
	}
	state := base64.RawURLEncoding.EncodeToString(raw)
	if err := s.states.Put(ctx, string(provider), s.hashState(state), s.stateTTL); err != nil {
		s.log.Error("Store oauth state failed", "provider", provider, "error", err)
		return "", apierr.Store(err)
	}
	return prov.config.AuthCodeURL(state), nil
}

func (s *oauthService) Exchange(ctx context.Context, provider types.Provider, state, code string) (*types.User, *TokenPair, error) {
	prov, err := s.provider(provider)
	if err != nil {
		return nil, nil, err
	}
	if state == "" || code == "" {
		return nil, nil, apierr.Authentication("missing oauth state or code")
	}
	ok, err := s.states.Consume(ctx, string(provider), s.hashState(state))
	if err != nil {
		return nil, nil, apierr.Store(err)
	}
	if !ok {
		return nil, nil, apierr.Authentication("invalid or expired oauth state")
	}

	exCtx := context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	tok, err := prov.config.Exchange(exCtx, code)
	if err != nil {
		s.log.Warn("OAuth code exchange failed", "provider", provider, "error", err)
		return nil, nil, apierr.New(apierr.KindAuthentication, "oauth code exchange failed", err)
	}
	client := prov.config.Client(exCtx, tok)

	var profile ExternalProfile
	switch provider {
	case types.ProviderGoogle:
		profile, err = fetchGoogleProfile(ctx, client, prov.apiBase)
	case types.ProviderGitHub:
		profile, err = fetchGitHubProfile(ctx, client, prov.apiBase)
	default:
		err = fmt.Errorf("unsupported provider %q", provider)
	}
	if err != nil {
		s.log.Warn("OAuth profile fetch failed", "provider", provider, "error", err)
		return nil, nil, apierr.New(apierr.KindAuthentication, "could not read "+provider.DisplayName()+" profile", err)
	}

	user, err := s.accounts.ResolveExternal(ctx, profile)
	if err != nil {
		observability.Current().IncAuthEvent(string(provider), "failure")
		return nil, nil, err
	}
	pair, err := s.auth.IssueTokens(dbctx.Of(ctx), user)
	if err != nil {
		return nil, nil, err
	}
	observability.Current().IncAuthEvent(string(provider), "success")
	return user, pair, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status=%d body=%s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func fetchGoogleProfile(ctx context.Context, client *http.Client, apiBase string) (ExternalProfile, error) {
	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := getJSON(ctx, client, apiBase+"/oauth2/v3/userinfo", &info); err != nil {
		return ExternalProfile{}, err
	}
	if info.Sub == "" {
		return ExternalProfile{}, fmt.Errorf("google userinfo has no subject")
	}
	return ExternalProfile{
		Provider:      types.ProviderGoogle,
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		DisplayName:   info.Name,
		AvatarURL:     info.Picture,
	}, nil
}

func fetchGitHubProfile(ctx context.Context, client *http.Client, apiBase string) (ExternalProfile, error) {
	var u struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, client, apiBase+"/user", &u); err != nil {
		return ExternalProfile{}, err
	}
	if u.ID == 0 {
		return ExternalProfile{}, fmt.Errorf("github user has no id")
	}
	p := ExternalProfile{
		Provider:    types.ProviderGitHub,
		Subject:     strconv.FormatInt(u.ID, 10),
		DisplayName: u.Name,
		Login:       u.Login,
		AvatarURL:   u.AvatarURL,
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, client, apiBase+"/user/emails", &emails); err != nil {
		// The account still resolves by subject without an email.
		return p, nil
	}
	for _, e := range emails {
		if e.Verified && (e.Primary || p.Email == "") {
			p.Email = e.Email
			p.EmailVerified = true
		}
	}
	return p, nil
}

type dbOAuthStateStore struct {
	repo repos.OAuthStateRepo
	now  func() time.Time
}

// NewDBOAuthStateStore keeps states in the oauth_state table when Redis is
// not configured.
func NewDBOAuthStateStore(repo repos.OAuthStateRepo) OAuthStateStore {
	return &dbOAuthStateStore{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *dbOAuthStateStore) Put(ctx context.Context, provider, stateHash string, ttl time.Duration) error {
	_, err := s.repo.Create(dbctx.Of(ctx), []*types.OAuthState{{
		Provider:  provider,
		StateHash: stateHash,
		ExpiresAt: s.now().Add(ttl),
	}})
	return err
}

func (s *dbOAuthStateStore) Consume(ctx context.Context, provider, stateHash string) (bool, error) {
	return s.repo.Consume(dbctx.Of(ctx), provider, stateHash, s.now())
}
