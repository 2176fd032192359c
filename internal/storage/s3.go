// AngelaMos | 2026
// s3.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/carterperez-dev/dentflow/internal/config"
	"github.com/carterperez-dev/dentflow/internal/core"
)

const defaultRegion = "us-east-1"

// ObjectStore is the slice of S3 the attachment flow needs.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PresignGet(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
}

func NewS3(cfg config.StorageConfig) *S3Store {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	opts := s3.Options{
		Region:       region,
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}

	client := s3.New(opts)

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		expiry:  expiry,
	}
}

func (s *S3Store) Put(
	ctx context.Context,
	key, contentType string,
	body io.Reader,
	size int64,
) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w: %w", key, core.ErrUpstream, err)
	}
	return nil
}

func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

// Delete succeeds for keys that do not exist.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w: %w", key, core.ErrUpstream, err)
	}
	return nil
}

func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Disabled stands in when storage is switched off. Writes report
// core.ErrUnavailable.
type Disabled struct{}

func (Disabled) Put(context.Context, string, string, io.Reader, int64) error {
	return fmt.Errorf("object storage disabled: %w", core.ErrUnavailable)
}

func (Disabled) PresignGet(context.Context, string) (string, error) {
	return "", fmt.Errorf("object storage disabled: %w", core.ErrUnavailable)
}

func (Disabled) Delete(context.Context, string) error {
	return fmt.Errorf("object storage disabled: %w", core.ErrUnavailable)
}

func (Disabled) Ping(context.Context) error {
	return errors.New("object storage disabled")
}

func New(cfg config.StorageConfig) ObjectStore {
	if !cfg.Enabled {
		return Disabled{}
	}
	return NewS3(cfg)
}

var (
	_ ObjectStore = (*S3Store)(nil)
	_ ObjectStore = Disabled{}
)
