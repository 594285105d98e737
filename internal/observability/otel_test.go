package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampRatio(t *testing.T) {
	assert.Equal(t, defaultSampleRatio, clampRatio(0))
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 1.0, clampRatio(3))
	assert.Equal(t, 0.5, clampRatio(0.5))
}

func TestServiceName(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	assert.Equal(t, "lms", ServiceName(""))
	t.Setenv("OTEL_SERVICE_NAME", "lms-api")
	assert.Equal(t, "lms-api", ServiceName("  "))
	assert.Equal(t, "explicit", ServiceName("explicit"))
}

func TestTracerProviderStdoutExport(t *testing.T) {
	var out bytes.Buffer
	ctx := context.Background()
	tp, err := NewTracerProvider(ctx, OtelConfig{ServiceName: "lms-test", SampleRatio: 1, Stdout: &out})
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(ctx, "enroll")
	span.End()
	require.NoError(t, tp.Shutdown(ctx))

	assert.Contains(t, out.String(), `"Name": "enroll"`)
	assert.Contains(t, out.String(), "lms-test")
}
