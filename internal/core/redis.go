// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/dentflow/internal/config"
)

const (
	redisConnectAttempts = 3
	redisPingTimeout     = 3 * time.Second
)

// Redis backs the token blacklist, invitation tokens and the shared
// rate limit counters.
type Redis struct {
	Client *redis.Client
}

// RedisOptions parses the URL and applies pool settings from cfg. Zero
// pool values keep the go-redis defaults.
func RedisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	opts.ClientName = "dentflow"
	opts.DialTimeout = 5 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute

	return opts, nil
}

// NewRedis retries the initial ping a few times with a linear backoff so
// the API can come up alongside a freshly started container.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := RedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	r := &Redis{Client: redis.NewClient(opts)}

	for attempt := 1; ; attempt++ {
		err = r.Ping(ctx)
		if err == nil {
			return r, nil
		}
		if attempt == redisConnectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
			continue
		}
		break
	}

	_ = r.Client.Close() //nolint:errcheck // connection never became usable
	return nil, fmt.Errorf("connect to redis after %d attempts: %w", redisConnectAttempts, err)
}

func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}

func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
