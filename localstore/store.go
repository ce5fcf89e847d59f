// Package localstore provides a filesystem backend for signet. Presigned URLs
// point back at the signet server itself (under RoutePrefix). They are signed
// with the AWS SDK's Signature V4 signer and checked by signet.SignatureVerifier,
// so browsers use the store exactly like a remote bucket.
// Writes are atomic via temp file and rename.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/google/uuid"
	"github.com/sagarc03/signet"
)

// RoutePrefix is where Handler serves presigned requests.
const RoutePrefix = "/_local/"

const (
	objectsDir = "objects"
	metaDir    = "meta"
	// SigningService is the service name in the credential scope.
	SigningService  = "s3"
	unsignedPayload = "UNSIGNED-PAYLOAD"
)

var (
	_ signet.ObjectStore       = (*Store)(nil)
	_ signet.BucketInitializer = (*Store)(nil)
)

type Config struct {
	// BaseURL is the externally reachable URL of the signet server.
	BaseURL   string
	Region    string
	AccessKey string
	SecretKey string
}

// Store keeps objects under <root>/objects and their content type under
// <root>/meta as small JSON sidecars.
type Store struct {
	root     *os.Root
	baseURL  string
	region   string
	creds    aws.Credentials
	signer   *v4.Signer
	verifier *signet.SignatureVerifier
}

type sidecar struct {
	ContentType string `json:"content_type"`
}

// New creates a Store rooted at root. The root provides sandboxed file
// operations preventing path traversal.
func New(root *os.Root, cfg Config) (*Store, error) {
	if root == nil {
		return nil, errors.New("local store: root is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("local store: base url is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("local store: access key and secret key are required")
	}

	accessKey, secretKey := cfg.AccessKey, cfg.SecretKey
	return &Store{
		root:    root,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		region:  cfg.Region,
		creds:   aws.Credentials{AccessKeyID: accessKey, SecretAccessKey: secretKey},
		signer:  v4.NewSigner(),
		verifier: signet.NewSignatureVerifier(cfg.Region, SigningService, func(k string) (string, bool) {
			if k != accessKey {
				return "", false
			}
			return secretKey, true
		}),
	}, nil
}

func (s *Store) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (signet.PresignedRequest, error) {
	if !signet.IsValidKey(key) {
		return signet.PresignedRequest{}, fmt.Errorf("presign PUT: invalid key %q: %w", key, signet.ErrInvalidInput)
	}
	headers := http.Header{}
	headers.Set("Content-Type", contentType)
	return s.presign(ctx, http.MethodPut, key, headers, ttl)
}

// PresignGet signs a download of key. A key this store could never have
// written reports ErrNotFound, the same answer a GET on it would give.
func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (signet.PresignedRequest, error) {
	if !signet.IsValidKey(key) {
		return signet.PresignedRequest{}, fmt.Errorf("presign GET %q: %w", key, signet.ErrNotFound)
	}
	return s.presign(ctx, http.MethodGet, key, nil, ttl)
}

// presign signs method on key with the SDK signer. Every header in headers is
// signed, so the request using the URL must send exactly those values.
func (s *Store) presign(ctx context.Context, method, key string, headers http.Header, ttl time.Duration) (signet.PresignedRequest, error) {
	if err := ctx.Err(); err != nil {
		return signet.PresignedRequest{}, err
	}

	seconds := int64(ttl / time.Second)
	if seconds <= 0 || seconds > signet.MaxExpiresSeconds {
		return signet.PresignedRequest{}, fmt.Errorf("presign %s: ttl must be between 1 and %d seconds: %w", method, signet.MaxExpiresSeconds, signet.ErrInvalidInput)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+RoutePrefix+key, nil)
	if err != nil {
		return signet.PresignedRequest{}, fmt.Errorf("presign %s: build request: %w", method, err)
	}
	for name, values := range headers {
		req.Header[name] = values
	}

	query := req.URL.Query()
	query.Set("X-Amz-Expires", strconv.FormatInt(seconds, 10))
	req.URL.RawQuery = query.Encode()

	signedAt := time.Now().UTC()
	signed, _, err := s.signer.PresignHTTP(ctx, s.creds, req, unsignedPayload, SigningService, s.region, signedAt)
	if err != nil {
		return signet.PresignedRequest{}, fmt.Errorf("presign %s: %w", method, err)
	}

	return signet.PresignedRequest{
		URL:       signed,
		Method:    method,
		ExpiresAt: signedAt.Truncate(time.Second).Add(time.Duration(seconds) * time.Second),
	}, nil
}

// Head stats key. Keys that could never have been written report ErrNotFound.
func (s *Store) Head(ctx context.Context, key string) (signet.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return signet.ObjectInfo{}, err
	}
	if !signet.IsValidKey(key) {
		return signet.ObjectInfo{}, signet.ErrNotFound
	}

	fi, err := s.root.Stat(objectPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return signet.ObjectInfo{}, signet.ErrNotFound
		}
		return signet.ObjectInfo{}, fmt.Errorf("stat object: %w", err)
	}
	if fi.IsDir() {
		return signet.ObjectInfo{}, signet.ErrNotFound
	}

	return signet.ObjectInfo{
		Exists:        true,
		ContentType:   s.contentType(key),
		ContentLength: fi.Size(),
		LastModified:  fi.ModTime().UTC(),
	}, nil
}

// Get opens key for reading. The returned body is an *os.File.
func (s *Store) Get(ctx context.Context, key string) (signet.ObjectInfo, io.ReadCloser, error) {
	info, err := s.Head(ctx, key)
	if err != nil {
		return signet.ObjectInfo{}, nil, err
	}

	f, err := s.root.Open(objectPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return signet.ObjectInfo{}, nil, signet.ErrNotFound
		}
		return signet.ObjectInfo{}, nil, fmt.Errorf("failed to open file: %w", err)
	}

	return info, f, nil
}

// Delete removes key and its sidecar. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !signet.IsValidKey(key) {
		return nil
	}

	if err := s.root.Remove(objectPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete file: %w", err)
	}
	if err := s.root.Remove(metaPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove metadata sidecar", "key", key, "err", err)
	}
	return nil
}

// EnsureBucket creates the objects and metadata directories.
func (s *Store) EnsureBucket(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, dir := range []string{objectsDir, metaDir} {
		if err := s.root.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s dir: %w", dir, err)
		}
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically writes content to key using a temp file and rename, then
// records contentType in the sidecar. It returns the number of bytes written.
func (s *Store) Write(ctx context.Context, key, contentType string, content io.Reader) (int64, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}
	if !signet.IsValidKey(key) {
		return 0, fmt.Errorf("write: invalid key %q: %w", key, signet.ErrInvalidInput)
	}

	written, err := s.writeAtomic(ctx, objectPath(key), &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return 0, err
	}

	meta, err := json.Marshal(sidecar{ContentType: contentType})
	if err != nil {
		return 0, fmt.Errorf("encode metadata: %w", err)
	}
	if _, err := s.writeAtomic(ctx, metaPath(key), strings.NewReader(string(meta))); err != nil {
		return 0, fmt.Errorf("write metadata: %w", err)
	}

	return written, nil
}

func (s *Store) writeAtomic(ctx context.Context, dest string, content io.Reader) (int64, error) {
	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return 0, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !success {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	n, err := io.Copy(t, content)
	if err != nil {
		return 0, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return 0, fmt.Errorf("could not sync written file: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := s.root.MkdirAll(path.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("could not create intermediate directories: %w", err)
	}

	if renameErr := s.root.Rename(tmpFile, dest); renameErr != nil {
		return 0, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true
	return n, nil
}

func (s *Store) contentType(key string) string {
	data, err := s.root.ReadFile(metaPath(key))
	if err == nil {
		var meta sidecar
		if json.Unmarshal(data, &meta) == nil && meta.ContentType != "" {
			return meta.ContentType
		}
	}
	return detectContentType(key)
}

func detectContentType(key string) string {
	contentType := mime.TypeByExtension(path.Ext(key))

	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}

func objectPath(key string) string {
	return path.Join(objectsDir, key)
}

func metaPath(key string) string {
	return path.Join(metaDir, key+".json")
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
