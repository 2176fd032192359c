// AngelaMos | 2026
// s3_test.go

package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/dentflow/internal/config"
	"github.com/carterperez-dev/dentflow/internal/core"
)

func TestNewReturnsDisabledWhenOff(t *testing.T) {
	store := New(config.StorageConfig{Enabled: false})

	err := store.Put(context.Background(), "k", "text/plain", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, core.ErrUnavailable)

	_, err = store.PresignGet(context.Background(), "k")
	assert.ErrorIs(t, err, core.ErrUnavailable)

	assert.ErrorIs(t, store.Delete(context.Background(), "k"), core.ErrUnavailable)
}

func TestPresignGetBuildsPathStyleURL(t *testing.T) {
	store := NewS3(config.StorageConfig{
		Enabled:       true,
		Endpoint:      "http://minio.local:9000",
		Bucket:        "attachments",
		AccessKey:     "key",
		SecretKey:     "secret",
		UsePathStyle:  true,
		PresignExpiry: 5 * time.Minute,
	})

	raw, err := store.PresignGet(context.Background(), "orders/o1/scan.stl")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "minio.local:9000", u.Host)
	assert.Equal(t, "/attachments/orders/o1/scan.stl", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
}
