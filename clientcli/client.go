package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/signet"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client performs operations against a signet server.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg = cfg.WithDefaults()

	c := &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// RequestUploadURL asks the server for a presigned PUT URL for a new object.
func (c *Client) RequestUploadURL(ctx context.Context, contentType, ext string) (*signet.UploadURL, error) {
	payload, err := json.Marshal(signet.UploadRequest{ContentType: contentType, Ext: ext})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var out signet.UploadURL
	if err := c.doJSON(ctx, http.MethodPost, "/api/upload-url", nil, bytes.NewReader(payload), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestDownloadURL asks the server for a presigned GET URL for key.
func (c *Client) RequestDownloadURL(ctx context.Context, key string) (*signet.DownloadURL, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	var out signet.DownloadURL
	if err := c.doJSON(ctx, http.MethodGet, "/api/download-url", keyQuery(key), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload uploads each file in opts.Paths. Every file gets a fresh key from
// the server and is then PUT directly to the presigned URL.
// Continues on error, collecting results for all paths.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if len(opts.Paths) == 0 {
		return nil, ErrNoPaths
	}

	results := make([]UploadResult, 0, len(opts.Paths))
	for _, p := range opts.Paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := c.uploadSingle(ctx, p, opts.ContentType)
		if err != nil {
			result = UploadResult{LocalPath: p, Err: err}
		}
		results = append(results, result)
	}

	return results, nil
}

func (c *Client) uploadSingle(ctx context.Context, localPath, contentType string) (UploadResult, error) {
	file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return UploadResult{}, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return UploadResult{}, fmt.Errorf("%s is a directory", localPath)
	}

	if contentType == "" {
		contentType = detectContentType(localPath)
	}

	target, err := c.RequestUploadURL(ctx, contentType, filepath.Ext(localPath))
	if err != nil {
		return UploadResult{}, err
	}

	// Body is the file itself (streaming, no memory copy)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.SignedURL, file)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = info.Size()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return UploadResult{}, parseServerError(resp.StatusCode, body)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return UploadResult{
		LocalPath:   localPath,
		Key:         target.Key,
		ObjectURL:   target.ObjectURL,
		ContentType: contentType,
		Size:        info.Size(),
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// Download fetches key. If opts.LocalPath is "-", the content is returned via
// the io.ReadCloser and must be closed by the caller. Otherwise, the content is
// written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.Key == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyKey)
	}

	var target string
	if opts.Stream {
		target = c.endpoint + "/api/object?" + keyQuery(opts.Key).Encode()
	} else {
		signed, err := c.RequestDownloadURL(ctx, opts.Key)
		if err != nil {
			return nil, nil, err
		}
		target = signed.SignedURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &DownloadResult{
		Key:         opts.Key,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = path.Base(opts.Key)
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// Head reports metadata for key. A missing object is not an error: the result
// has Exists set to false.
func (c *Client) Head(ctx context.Context, key string) (*HeadResult, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	var info signet.ObjectInfo
	err := c.doJSON(ctx, http.MethodGet, "/api/head", keyQuery(key), nil, &info)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			return &HeadResult{Key: key, Exists: false}, nil
		}
		return nil, err
	}

	return &HeadResult{
		Key:           key,
		Exists:        info.Exists,
		ContentType:   info.ContentType,
		ContentLength: info.ContentLength,
		LastModified:  info.LastModified,
	}, nil
}

// Delete deletes one or more keys from the server.
// Continues on error, collecting results for all keys.
func (c *Client) Delete(ctx context.Context, opts DeleteOptions) ([]DeleteResult, error) {
	if len(opts.Keys) == 0 {
		return nil, ErrNoPaths
	}

	results := make([]DeleteResult, 0, len(opts.Keys))

	for _, key := range opts.Keys {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		results = append(results, c.deleteSingle(ctx, key))
	}

	return results, nil
}

func (c *Client) deleteSingle(ctx context.Context, key string) DeleteResult {
	if key == "" {
		return DeleteResult{Key: key, Err: ErrEmptyKey}
	}

	var out signet.DeleteResult
	if err := c.doJSON(ctx, http.MethodDelete, "/api/object", keyQuery(key), nil, &out); err != nil {
		return DeleteResult{Key: key, Err: err}
	}

	return DeleteResult{Key: out.Key, Deleted: out.OK}
}

// HasDeleteErrors returns true if any delete operation failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// HasUploadErrors returns true if any upload failed.
func HasUploadErrors(results []UploadResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// doJSON calls an API route and decodes a 2xx JSON body into out.
func (c *Client) doJSON(ctx context.Context, method, route string, query url.Values, body io.Reader, out any) error {
	target := c.endpoint + route
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	if body == nil {
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseServerError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func keyQuery(key string) url.Values {
	return url.Values{"key": {key}}
}

// detectContentType returns MIME type based on file extension.
func detectContentType(p string) string {
	ext := filepath.Ext(p)
	if ext == "" {
		return "application/octet-stream"
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "application/octet-stream"
	}

	// Parameters such as charset are not part of the allowlist match
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mediaType
	}
	return mimeType
}

// parseServerError extracts the error code and message from a server response.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Body: string(body)}

	var se serverError
	if json.Unmarshal(body, &se) == nil {
		apiErr.Code = se.Error
		apiErr.Message = se.Message
	}
	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " " + e.Code + ": " + e.Message
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrBadRequest is returned for missing or malformed parameters (400).
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}

	// ErrForbidden is returned when the origin or signature is rejected (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}

	// ErrNotFound is returned when the requested object does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnsupportedMediaType is returned when the content type is not allowed (415).
	ErrUnsupportedMediaType = &APIError{StatusCode: http.StatusUnsupportedMediaType}
)
