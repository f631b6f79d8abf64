// Package storage holds uploaded media (videos, thumbnails, avatars, cover
// images) in an S3-compatible bucket.  When no bucket is configured the
// store degrades to a no-op: Store returns nil and the caller decides
// whether the missing artifact is an error.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/iliyamo/streamtube/internal/config"
)

// StoredObject references a persisted media artifact: the public URL that
// goes into API responses and the bucket key used for later removal.
type StoredObject struct {
	URL string
	Key string
}

// MediaStore is the media collaborator interface the handlers depend on.
// Store returns (nil, nil) when the store is disabled; Remove on a disabled
// store is a no-op.
type MediaStore interface {
	Enabled() bool
	Store(ctx context.Context, kind, fileName, contentType string, body io.Reader) (*StoredObject, error)
	Remove(ctx context.Context, key string) error
}

// s3MediaStore implements MediaStore against an S3-compatible endpoint.
type s3MediaStore struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewMediaStore builds a MediaStore from configuration.  An incomplete
// configuration (no bucket or endpoint) yields the disabled store rather
// than an error so the service can run without object storage.
func NewMediaStore(ctx context.Context, cfg config.MediaConfig) (MediaStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" || strings.TrimSpace(cfg.Endpoint) == "" {
		return noopMediaStore{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "")))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}
	endpoint := cfg.Endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = cfg.UsePathStyle
	})
	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = strings.TrimRight(endpoint, "/") + "/" + cfg.Bucket
	}
	return &s3MediaStore{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

func (s *s3MediaStore) Enabled() bool { return true }

// Store uploads a media object under a date-partitioned random key and
// returns its reference.  kind namespaces the object ("videos", "avatars",
// "thumbnails", "covers").
func (s *s3MediaStore) Store(ctx context.Context, kind, fileName, contentType string, body io.Reader) (*StoredObject, error) {
	key := objectKey(kind, fileName)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}
	return &StoredObject{URL: s.baseURL + "/" + key, Key: key}, nil
}

// Remove deletes a media object by key.
func (s *s3MediaStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// objectKey builds a collision-free, date-partitioned key preserving the
// original file extension.
func objectKey(kind, fileName string) string {
	d := time.Now().UTC()
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("%s/%d/%02d/%v%s", kind, d.Year(), d.Month(), uuid.New(), ext)
}

// noopMediaStore is used when object storage is not configured.
type noopMediaStore struct{}

func (noopMediaStore) Enabled() bool { return false }

func (noopMediaStore) Store(ctx context.Context, kind, fileName, contentType string, body io.Reader) (*StoredObject, error) {
	return nil, nil
}

func (noopMediaStore) Remove(ctx context.Context, key string) error { return nil }
