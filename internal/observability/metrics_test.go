package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountersAndHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("GET", "/api/courses/:id", "200", 20*time.Millisecond)
	m.ObserveAPI("GET", "/api/courses/:id", "200", 30*time.Millisecond)
	m.IncEnrollment()
	m.IncAuthEvent("password", "success")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("GET", "/api/courses/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.enrollments))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authEvents.WithLabelValues("password", "success")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lms_api_requests_total")
	assert.Contains(t, rec.Body.String(), "lms_enrollments_total 1")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.ApiInflightInc()
	m.ApiInflightDec()
	m.IncEnrollment()
	m.IncLessonCompleted()
	m.IncCertificateIssued()
	m.IncAuthEvent("refresh", "failure")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
