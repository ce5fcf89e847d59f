package miniostore_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sagarc03/signet"
	"github.com/sagarc03/signet/miniostore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, endpoint string) *miniostore.Store {
	t.Helper()
	store, err := miniostore.New(miniostore.Config{
		Endpoint:     endpoint,
		Region:       "us-east-1",
		Bucket:       "test-bucket",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UsePathStyle: true,
	})
	require.NoError(t, err)
	return store
}

func fakeMinio(t *testing.T) *httptest.Server {
	t.Helper()

	modified := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case strings.HasSuffix(r.URL.Path, "/present.png"):
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("Content-Length", "5")
			w.Header().Set("ETag", `"abc"`)
			w.Header().Set("Last-Modified", modified.Format(http.TimeFormat))
			w.WriteHeader(http.StatusOK)
			if r.Method == http.MethodGet {
				_, _ = io.WriteString(w, "hello")
			}
		case strings.HasSuffix(r.URL.Path, "/broken.png"):
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_Validation(t *testing.T) {
	_, err := miniostore.New(miniostore.Config{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = miniostore.New(miniostore.Config{Bucket: "b"})
	assert.ErrorContains(t, err, "endpoint is required")

	_, err = miniostore.New(miniostore.Config{Bucket: "b", Endpoint: "ftp://host"})
	assert.ErrorContains(t, err, "unsupported minio endpoint scheme")
}

func TestStore_PresignPut_BindsContentType(t *testing.T) {
	store := newTestStore(t, "http://localhost:9000")

	req, err := store.PresignPut(context.Background(), "uploads/2026-01-02/abc.png", "image/png", signet.PresignTTL)
	require.NoError(t, err)

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/test-bucket/uploads/2026-01-02/abc.png", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.Contains(t, u.Query().Get("X-Amz-SignedHeaders"), "content-type")
	assert.Equal(t, http.MethodPut, req.Method)
}

func TestStore_PresignGet(t *testing.T) {
	store := newTestStore(t, "https://storage.example.com")

	req, err := store.PresignGet(context.Background(), "uploads/x.png", signet.PresignTTL)
	require.NoError(t, err)

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "/test-bucket/uploads/x.png", u.Path)
}

func TestStore_Head(t *testing.T) {
	store := newTestStore(t, fakeMinio(t).URL)
	ctx := context.Background()

	info, err := store.Head(ctx, "present.png")
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, int64(5), info.ContentLength)

	_, err = store.Head(ctx, "missing.png")
	assert.ErrorIs(t, err, signet.ErrNotFound)

	_, err = store.Head(ctx, "broken.png")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, signet.ErrNotFound)
}

func TestStore_Get(t *testing.T) {
	store := newTestStore(t, fakeMinio(t).URL)
	ctx := context.Background()

	info, body, err := store.Get(ctx, "present.png")
	require.NoError(t, err)
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "image/png", info.ContentType)

	_, _, err = store.Get(ctx, "missing.png")
	assert.ErrorIs(t, err, signet.ErrNotFound)
}

func TestStore_Delete_MissingKeySucceeds(t *testing.T) {
	store := newTestStore(t, fakeMinio(t).URL)

	assert.NoError(t, store.Delete(context.Background(), "never-stored.png"))
}
