package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lms-backend/internal/platform/logger"
)

func TestOAuthStateStoreConsumeOnce(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	log, err := logger.New("test")
	require.NoError(t, err)
	rdb, err := NewClient(log, Config{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewOAuthStateStore(log, rdb)
	ctx := context.Background()
	hash := uuid.NewString()

	require.NoError(t, store.Put(ctx, "github", hash, time.Minute))

	ok, err := store.Consume(ctx, "google", hash)
	require.NoError(t, err)
	assert.False(t, ok, "wrong provider must not match")

	require.NoError(t, store.Put(ctx, "github", hash, time.Minute))
	ok, err = store.Consume(ctx, "github", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Consume(ctx, "github", hash)
	require.NoError(t, err)
	assert.False(t, ok, "state is single use")
}

func TestNewClientRequiresAddr(t *testing.T) {
	log, err := logger.New("test")
	require.NoError(t, err)
	_, err = NewClient(log, Config{})
	assert.Error(t, err)
}
