// AngelaMos | 2026
// store.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/dentflow/internal/core"
)

const (
	blacklistPrefix = "blacklist:"
	invitePrefix    = "invite:"
)

// TokenStore holds short-lived token state outside the database: revoked
// access token ids and pending invitation tokens keyed by their hash.
type TokenStore interface {
	Blacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	SaveInvite(ctx context.Context, tokenHash, userID string, ttl time.Duration) error
	ConsumeInvite(ctx context.Context, tokenHash string) (string, error)
}

type redisTokenStore struct {
	rdb *redis.Client
}

func NewRedisTokenStore(rdb *redis.Client) TokenStore {
	return &redisTokenStore{rdb: rdb}
}

func (s *redisTokenStore) Blacklist(
	ctx context.Context,
	jti string,
	ttl time.Duration,
) error {
	if ttl <= 0 {
		return nil
	}

	if err := s.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (s *redisTokenStore) IsBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	exists, err := s.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return exists > 0, nil
}

func (s *redisTokenStore) SaveInvite(
	ctx context.Context,
	tokenHash, userID string,
	ttl time.Duration,
) error {
	if err := s.rdb.Set(ctx, invitePrefix+tokenHash, userID, ttl).Err(); err != nil {
		return fmt.Errorf("save invite: %w", err)
	}
	return nil
}

// ConsumeInvite is single use: the key is removed atomically as it is read.
func (s *redisTokenStore) ConsumeInvite(
	ctx context.Context,
	tokenHash string,
) (string, error) {
	userID, err := s.rdb.GetDel(ctx, invitePrefix+tokenHash).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("consume invite: %w", core.ErrTokenInvalid)
	}
	if err != nil {
		return "", fmt.Errorf("consume invite: %w", err)
	}
	return userID, nil
}
