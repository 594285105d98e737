package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:     http.StatusBadRequest,
		KindAuthentication: http.StatusUnauthorized,
		KindAuthorization:  http.StatusForbidden,
		KindNotFound:       http.StatusNotFound,
		KindConflict:       http.StatusConflict,
		KindStore:          http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.Status(), string(kind))
	}
}

func TestFromWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("enroll: %w", Conflict("already enrolled"))
	ae := From(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, KindConflict, ae.Kind)
	assert.Equal(t, "already enrolled", ae.PublicMessage())
}

func TestFromUnknownErrorIsStore(t *testing.T) {
	ae := From(errors.New("connection reset"))
	assert.Equal(t, KindStore, ae.Kind)
	assert.Equal(t, http.StatusInternalServerError, ae.Status())
	assert.Equal(t, "Internal Server Error", ae.PublicMessage())
	assert.Equal(t, Kind(""), KindOf(nil))
}
