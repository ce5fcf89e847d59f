// Package miniostore implements signet.ObjectStore with the MinIO client,
// for MinIO deployments and other S3-compatible services.
package miniostore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sagarc03/signet"
)

// compile-time check that Store satisfies the store contracts.
var (
	_ signet.ObjectStore       = (*Store)(nil)
	_ signet.BucketInitializer = (*Store)(nil)
)

type Config struct {
	// Endpoint is host:port, or a URL whose scheme decides UseSSL.
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// UsePathStyle forces path-style bucket addressing.
	UsePathStyle bool
}

// Store wraps the MinIO SDK and implements signet.ObjectStore.
type Store struct {
	client *minio.Client
	bucket string
}

// New creates a MinIO-backed store. Client retries are disabled.
func New(cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("minio bucket is required")
	}

	host, secure, err := parseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	opts := &minio.Options{
		Creds:      credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:     secure,
		Region:     cfg.Region,
		MaxRetries: 1,
	}
	if cfg.UsePathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}

	mc, err := minio.New(host, opts)
	if err != nil {
		return nil, fmt.Errorf("minio new client: %w", err)
	}

	return &Store{client: mc, bucket: cfg.Bucket}, nil
}

// PresignPut signs a PUT with Content-Type bound into the signature.
func (s *Store) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (signet.PresignedRequest, error) {
	issued := time.Now()
	headers := http.Header{}
	headers.Set("Content-Type", contentType)

	u, err := s.client.PresignHeader(ctx, http.MethodPut, s.bucket, key, ttl, nil, headers)
	if err != nil {
		return signet.PresignedRequest{}, fmt.Errorf("presign put %q: %w", key, err)
	}

	return signet.PresignedRequest{URL: u.String(), Method: http.MethodPut, ExpiresAt: issued.Add(ttl)}, nil
}

func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (signet.PresignedRequest, error) {
	issued := time.Now()
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return signet.PresignedRequest{}, fmt.Errorf("presign get %q: %w", key, err)
	}

	return signet.PresignedRequest{URL: u.String(), Method: http.MethodGet, ExpiresAt: issued.Add(ttl)}, nil
}

func (s *Store) Head(ctx context.Context, key string) (signet.ObjectInfo, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return signet.ObjectInfo{}, wrapErr("stat object", key, err)
	}
	return toInfo(stat), nil
}

// Delete removes key. MinIO already reports success for missing keys.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}

// Get opens key for streaming. minio.Object is lazy, so the object is stat'ed
// up front to surface a missing key before any bytes are written.
func (s *Store) Get(ctx context.Context, key string) (signet.ObjectInfo, io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return signet.ObjectInfo{}, nil, wrapErr("get object", key, err)
	}

	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return signet.ObjectInfo{}, nil, wrapErr("get object", key, err)
	}

	return toInfo(stat), obj, nil
}

// EnsureBucket creates the bucket if it does not already exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket %q: %w", s.bucket, err)
	}
	return nil
}

func toInfo(stat minio.ObjectInfo) signet.ObjectInfo {
	return signet.ObjectInfo{
		Exists:        true,
		ContentType:   stat.ContentType,
		ContentLength: stat.Size,
		LastModified:  stat.LastModified,
	}
}

func wrapErr(op, key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%s %q: %w", op, key, signet.ErrNotFound)
	}
	return fmt.Errorf("%s %q: %w", op, key, err)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NotFound":
		return true
	case "NoSuchBucket":
		return false
	}
	return resp.StatusCode == http.StatusNotFound
}

func parseEndpoint(endpoint string, useSSL bool) (string, bool, error) {
	if endpoint == "" {
		return "", false, errors.New("minio endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		return endpoint, useSSL, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse minio endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
		return u.Host, false, nil
	case "https":
		return u.Host, true, nil
	default:
		return "", false, fmt.Errorf("unsupported minio endpoint scheme %q", u.Scheme)
	}
}
