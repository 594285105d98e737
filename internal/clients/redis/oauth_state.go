package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/lms-backend/internal/platform/logger"
)

const oauthStatePrefix = "oauth_state:"

// OAuthStateStore keeps pending OAuth states with a TTL. Each state can be
// consumed once.
type OAuthStateStore struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewOAuthStateStore(log *logger.Logger, rdb *goredis.Client) *OAuthStateStore {
	return &OAuthStateStore{log: log.With("store", "RedisOAuthStateStore"), rdb: rdb}
}

func (s *OAuthStateStore) Put(ctx context.Context, provider, stateHash string, ttl time.Duration) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis oauth state store not initialized")
	}
	ok, err := s.rdb.SetNX(ctx, oauthStatePrefix+stateHash, provider, ttl).Result()
	if err != nil {
		return fmt.Errorf("store oauth state: %w", err)
	}
	if !ok {
		return fmt.Errorf("oauth state collision")
	}
	return nil
}

// Consume atomically removes the state and reports whether it was pending
// for provider.
func (s *OAuthStateStore) Consume(ctx context.Context, provider, stateHash string) (bool, error) {
	if s == nil || s.rdb == nil {
		return false, fmt.Errorf("redis oauth state store not initialized")
	}
	stored, err := s.rdb.GetDel(ctx, oauthStatePrefix+stateHash).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume oauth state: %w", err)
	}
	return stored == provider, nil
}
