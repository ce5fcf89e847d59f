package signet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ObjectStore is the backend contract every storage adapter implements.
//
// Implementations must translate their SDK's "no such object" condition into
// ErrNotFound, must treat Delete of a missing key as success, and must pass ctx
// through to the underlying call so a disconnected client cancels it.
type ObjectStore interface {
	// PresignPut returns a URL that accepts a single PUT of contentType to key.
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (PresignedRequest, error)

	// PresignGet returns a URL that allows a GET of key. Existence is not checked.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (PresignedRequest, error)

	// Head returns metadata for key or ErrNotFound.
	Head(ctx context.Context, key string) (ObjectInfo, error)

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Get opens key for reading. The caller closes the returned body.
	Get(ctx context.Context, key string) (ObjectInfo, io.ReadCloser, error)
}

// BucketInitializer is implemented by stores that can create their bucket.
type BucketInitializer interface {
	EnsureBucket(ctx context.Context) error
}

type ServiceConfig struct {
	// Mimes defaults to DefaultMimeAllowlist(false).
	Mimes *MimeAllowlist
	// Keys defaults to NewKeyDeriver().
	Keys *KeyDeriver
	// PublicBaseURL, when set, is joined with the key to form UploadURL.ObjectURL.
	PublicBaseURL string
	// StrictStreamErrors reports store failures on Stream as-is instead of
	// folding every failure into ErrNotFound.
	StrictStreamErrors bool
}

// Service validates requests and delegates each one to a single ObjectStore call.
type Service struct {
	store         ObjectStore
	mimes         *MimeAllowlist
	keys          *KeyDeriver
	publicBaseURL string
	strictStream  bool
}

func NewService(store ObjectStore, cfg ServiceConfig) (*Service, error) {
	if store == nil {
		return nil, errors.New("new service: object store is required")
	}

	mimes := cfg.Mimes
	if mimes == nil {
		mimes = DefaultMimeAllowlist(false)
	}

	keys := cfg.Keys
	if keys == nil {
		keys = NewKeyDeriver()
	}

	return &Service{
		store:         store,
		mimes:         mimes,
		keys:          keys,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		strictStream:  cfg.StrictStreamErrors,
	}, nil
}

// PresignPut checks the content type, derives a new key and asks the store for
// an upload URL scoped to that content type.
func (s *Service) PresignPut(ctx context.Context, req UploadRequest) (UploadURL, error) {
	if err := s.mimes.Validate(req.ContentType); err != nil {
		return UploadURL{}, fmt.Errorf("presign put: %w", err)
	}

	ext, err := NormalizeExt(req.Ext)
	if err != nil {
		return UploadURL{}, fmt.Errorf("presign put: %w", err)
	}

	key := s.keys.Derive(ext)

	presigned, err := s.store.PresignPut(ctx, key, req.ContentType, PresignTTL)
	if err != nil {
		return UploadURL{}, fmt.Errorf("presign put %s: %w", key, err)
	}

	return UploadURL{
		SignedURL: presigned.URL,
		Key:       key,
		ObjectURL: s.ObjectURL(key),
		ExpiresAt: presigned.ExpiresAt,
	}, nil
}

// PresignGet returns a download URL for key without checking that it exists.
func (s *Service) PresignGet(ctx context.Context, key string) (DownloadURL, error) {
	if key == "" {
		return DownloadURL{}, fmt.Errorf("presign get: key is required: %w", ErrMissingParameter)
	}

	presigned, err := s.store.PresignGet(ctx, key, PresignTTL)
	if err != nil {
		return DownloadURL{}, fmt.Errorf("presign get %s: %w", key, err)
	}

	return DownloadURL{
		SignedURL: presigned.URL,
		ExpiresAt: presigned.ExpiresAt,
	}, nil
}

// Head returns metadata for key. A missing object yields ObjectInfo{Exists: false}
// together with an error wrapping ErrNotFound.
func (s *Service) Head(ctx context.Context, key string) (ObjectInfo, error) {
	if key == "" {
		return ObjectInfo{}, fmt.Errorf("head: key is required: %w", ErrMissingParameter)
	}

	info, err := s.store.Head(ctx, key)
	if err != nil {
		return ObjectInfo{Exists: false}, fmt.Errorf("head %s: %w", key, err)
	}

	info.Exists = true
	return info, nil
}

// Delete removes key. Deleting a missing key succeeds.
func (s *Service) Delete(ctx context.Context, key string) (DeleteResult, error) {
	if key == "" {
		return DeleteResult{}, fmt.Errorf("delete: key is required: %w", ErrMissingParameter)
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return DeleteResult{}, fmt.Errorf("delete %s: %w", key, err)
	}

	return DeleteResult{OK: true, Key: key}, nil
}

// Stream opens key for reading through the server. Unless StrictStreamErrors
// is set, every store failure is reported as ErrNotFound; the cause stays in
// the error chain for logging.
func (s *Service) Stream(ctx context.Context, key string) (ObjectInfo, io.ReadCloser, error) {
	if key == "" {
		return ObjectInfo{}, nil, fmt.Errorf("stream: key is required: %w", ErrMissingParameter)
	}

	info, body, err := s.store.Get(ctx, key)
	if err != nil {
		if s.strictStream || errors.Is(err, ErrNotFound) {
			return ObjectInfo{}, nil, fmt.Errorf("stream %s: %w", key, err)
		}
		return ObjectInfo{}, nil, fmt.Errorf("stream %s: %w: %w", key, ErrNotFound, err)
	}

	info.Exists = true
	return info, body, nil
}

// ObjectURL returns the public URL of key, or "" when no public base is configured.
func (s *Service) ObjectURL(key string) string {
	if s.publicBaseURL == "" {
		return ""
	}
	return s.publicBaseURL + "/" + key
}

// Mimes exposes the allowlist the service validates against.
func (s *Service) Mimes() *MimeAllowlist {
	return s.mimes
}
