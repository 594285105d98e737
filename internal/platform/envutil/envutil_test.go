package envutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	t.Setenv("LMS_TEST_TTL", "15m")
	assert.Equal(t, 15*time.Minute, Duration("LMS_TEST_TTL", time.Hour))

	t.Setenv("LMS_TEST_TTL", "90")
	assert.Equal(t, 90*time.Second, Duration("LMS_TEST_TTL", time.Hour))

	t.Setenv("LMS_TEST_TTL", "soon")
	assert.Equal(t, time.Hour, Duration("LMS_TEST_TTL", time.Hour))
}

func TestBoolAndInt(t *testing.T) {
	t.Setenv("LMS_TEST_FLAG", "on")
	assert.True(t, Bool("LMS_TEST_FLAG", false))
	t.Setenv("LMS_TEST_FLAG", "")
	assert.True(t, Bool("LMS_TEST_FLAG", true))

	t.Setenv("LMS_TEST_PORT", "x")
	assert.Equal(t, 5001, Int("LMS_TEST_PORT", 5001))
}

func TestFloat(t *testing.T) {
	t.Setenv("LMS_TEST_RATIO", "0.25")
	assert.Equal(t, 0.25, Float("LMS_TEST_RATIO", 0.1))
	t.Setenv("LMS_TEST_RATIO", "half")
	assert.Equal(t, 0.1, Float("LMS_TEST_RATIO", 0.1))
}

func TestLoadDotenvKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LMS_DOTENV_A=from-file\nLMS_DOTENV_B=from-file\n"), 0o600))

	t.Setenv("LMS_DOTENV_A", "from-env")
	t.Setenv("LMS_DOTENV_B", "")
	require.NoError(t, os.Unsetenv("LMS_DOTENV_B"))

	require.NoError(t, LoadDotenv(path))
	assert.Equal(t, "from-env", os.Getenv("LMS_DOTENV_A"))
	assert.Equal(t, "from-file", os.Getenv("LMS_DOTENV_B"))

	require.NoError(t, LoadDotenv(filepath.Join(dir, "missing.env")))
}
