// AngelaMos | 2026
// redis_test.go

package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/dentflow/internal/config"
)

func TestRedisOptions(t *testing.T) {
	opts, err := RedisOptions(config.RedisConfig{
		URL:          "redis://:secret@cache.internal:6380/2",
		PoolSize:     20,
		MinIdleConns: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, 4, opts.MinIdleConns)
	assert.Equal(t, "dentflow", opts.ClientName)
}

func TestRedisOptions_ZeroPoolKeepsDefaults(t *testing.T) {
	opts, err := RedisOptions(config.RedisConfig{URL: "redis://localhost:6379/0"})
	require.NoError(t, err)

	assert.Zero(t, opts.PoolSize)
	assert.Zero(t, opts.MinIdleConns)
}

func TestRedisOptions_BadURL(t *testing.T) {
	_, err := RedisOptions(config.RedisConfig{URL: "http://nope"})
	assert.Error(t, err)
}

func TestNewRedis_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewRedis(ctx, config.RedisConfig{URL: "redis://127.0.0.1:1/0"})

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRedisClose_Nil(t *testing.T) {
	var r *Redis
	assert.NoError(t, r.Close())
}
