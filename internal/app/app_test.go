package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/lms-backend/internal/data/repos/testutil"
	"github.com/yungbote/lms-backend/internal/http/middleware"
	"github.com/yungbote/lms-backend/internal/observability"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	log := testutil.Logger(t)
	cfg := Config{
		AppEnv:           "test",
		ClientURL:        "http://localhost:5173",
		JWTSecret:        "access-secret",
		JWTRefreshSecret: "refresh-secret",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  time.Hour,
		BcryptCost:       bcrypt.MinCost,
		SessionSecret:    "session-secret",
		OAuthStateTTL:    time.Minute,
	}

	reposet := wireRepos(db, log)
	serviceset, err := wireServices(db, log, cfg, reposet, Clients{})
	require.NoError(t, err)
	router := wireRouter(log, cfg, observability.NewMetrics(), wireHandlers(log, db, cfg, serviceset), wireMiddleware(log, serviceset))
	return &apiClient{t: t, router: router}
}

type call struct {
	method string
	path   string
	body   any
	token  string
	cookie *http.Cookie
}

func (a *apiClient) do(c call) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func refreshCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.RefreshCookie {
			return c
		}
	}
	return nil
}

// login registers the account and returns its access token and refresh cookie.
func (a *apiClient) login(name, email, role string) (string, *http.Cookie) {
	a.t.Helper()
	w := a.do(call{method: http.MethodPost, path: "/api/auth/register", body: map[string]any{
		"name": name, "email": email, "password": "secret1", "role": role,
	}})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(call{method: http.MethodPost, path: "/api/auth/login", body: map[string]any{
		"email": email, "password": "secret1",
	}})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	body := decode(a.t, w)
	token, _ := body["token"].(string)
	require.NotEmpty(a.t, token)
	cookie := refreshCookie(w)
	require.NotNil(a.t, cookie)
	assert.True(a.t, cookie.HttpOnly)
	return token, cookie
}

func TestEnrollmentFlow(t *testing.T) {
	api := newAPI(t)
	instToken, _ := api.login("Ada", "ada@example.com", "instructor")
	studToken, studCookie := api.login("Stu", "stu@example.com", "student")

	w := api.do(call{method: http.MethodPost, path: "/api/courses", token: instToken, body: map[string]any{
		"title": "Go in Practice", "is_published": true,
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	courseID, _ := decode(t, w)["id"].(string)
	require.NotEmpty(t, courseID)

	var lessonIDs []string
	for _, title := range []string{"Intro", "Goroutines"} {
		w = api.do(call{method: http.MethodPost, path: "/api/courses/" + courseID + "/lessons", token: instToken, body: map[string]any{
			"title": title, "is_published": true,
		}})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		id, _ := decode(t, w)["id"].(string)
		lessonIDs = append(lessonIDs, id)
	}

	w = api.do(call{method: http.MethodPost, path: "/api/courses", token: studToken, body: map[string]any{"title": "Nope"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(call{method: http.MethodPost, path: "/api/courses/" + courseID + "/enroll", token: studToken})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Enrolled successfully", decode(t, w)["message"])

	w = api.do(call{method: http.MethodPost, path: "/api/courses/" + courseID + "/enroll", token: studToken})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(call{method: http.MethodPost, path: "/api/courses/" + courseID + "/lessons/" + lessonIDs[0] + "/complete", token: studToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 50, decode(t, w)["percent_complete"])

	w = api.do(call{method: http.MethodGet, path: "/api/courses/" + courseID, token: studToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode(t, w)
	assert.Equal(t, true, view["is_enrolled"])
	assert.EqualValues(t, 50, view["percent_complete"])

	w = api.do(call{method: http.MethodGet, path: "/api/courses/enrolled", token: studToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var enrolled []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &enrolled))
	assert.Len(t, enrolled, 1)

	// Cookie-only requests authenticate through the refresh token.
	w = api.do(call{method: http.MethodGet, path: "/api/profile/me", cookie: studCookie})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "stu@example.com", decode(t, w)["email"])
}

func TestAuthErrors(t *testing.T) {
	api := newAPI(t)
	token, _ := api.login("Stu", "stu@example.com", "student")

	w := api.do(call{method: http.MethodGet, path: "/api/courses/enrolled"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authorized, no token", decode(t, w)["message"])

	w = api.do(call{method: http.MethodGet, path: "/api/courses/enrolled", token: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(call{method: http.MethodGet, path: "/api/courses/not-a-uuid", token: token})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(call{method: http.MethodGet, path: "/api/profile/admin", token: token})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(call{method: http.MethodPost, path: "/api/auth/login", body: map[string]any{
		"email": "stu@example.com", "password": "wrong-password",
	}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(call{method: http.MethodPost, path: "/api/auth/register", body: map[string]any{
		"name": "Stu", "email": "stu@example.com", "password": "secret1",
	}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(call{method: http.MethodPost, path: "/api/auth/register", body: map[string]any{
		"name": "X", "email": "bad", "password": "secret1",
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	api := newAPI(t)
	_, cookie := api.login("Stu", "stu@example.com", "student")

	w := api.do(call{method: http.MethodPost, path: "/api/auth/refresh"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Refresh token required", decode(t, w)["message"])

	w = api.do(call{method: http.MethodPost, path: "/api/auth/refresh", cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode(t, w)["token"])
	rotated := refreshCookie(w)
	require.NotNil(t, rotated)
	assert.NotEqual(t, cookie.Value, rotated.Value)

	w = api.do(call{method: http.MethodPost, path: "/api/auth/refresh", cookie: cookie})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "rotated-out token is rejected")

	w = api.do(call{method: http.MethodPost, path: "/api/auth/logout", cookie: rotated})
	require.Equal(t, http.StatusOK, w.Code)
	cleared := refreshCookie(w)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	w = api.do(call{method: http.MethodPost, path: "/api/auth/refresh", cookie: rotated})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(call{method: http.MethodPost, path: "/api/auth/logout"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newAPI(t)

	w := api.do(call{method: http.MethodGet, path: "/healthcheck"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(call{method: http.MethodGet, path: "/api/health"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(call{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "lms_api_requests_total"))
}
