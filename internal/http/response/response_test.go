package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lms-backend/internal/platform/apierr"
)

func serve(t *testing.T, h gin.HandlerFunc, body string) (*httptest.ResponseRecorder, APIError) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/", h)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var out APIError
	if rec.Code >= 400 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRespondErrKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   apierr.Kind
		msg    string
	}{
		{apierr.NotFound("Course not found"), http.StatusNotFound, apierr.KindNotFound, "Course not found"},
		{fmt.Errorf("wrap: %w", apierr.Conflict("Already enrolled")), http.StatusConflict, apierr.KindConflict, "Already enrolled"},
		{apierr.Authorization("Forbidden"), http.StatusForbidden, apierr.KindAuthorization, "Forbidden"},
		{errors.New("dial tcp: refused"), http.StatusInternalServerError, apierr.KindStore, "Internal Server Error"},
	}
	for _, tc := range cases {
		err := tc.err
		rec, body := serve(t, func(c *gin.Context) { RespondErr(c, err) }, "{}")
		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, tc.kind, body.Kind)
		assert.Equal(t, tc.msg, body.Message)
	}
}

func TestRespondBindErrUsesJSONNames(t *testing.T) {
	UseJSONFieldNames()
	type req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	h := func(c *gin.Context) {
		var in req
		if err := c.ShouldBindJSON(&in); err != nil {
			RespondBindErr(c, err)
			return
		}
		RespondOK(c, in)
	}

	rec, body := serve(t, h, `{"email":"nope","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierr.KindValidation, body.Kind)
	assert.Contains(t, body.Message, "email must be a valid email")
	assert.Contains(t, body.Message, "password must be at least 6")

	rec, body = serve(t, h, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", body.Message)

	rec, _ = serve(t, h, `{"email":"a@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}
