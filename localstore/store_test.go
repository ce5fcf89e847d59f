package localstore_test

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/signet"
	"github.com/sagarc03/signet/localstore"
)

const (
	testAccessKey = "AKIALOCALTEST"
	testSecretKey = "local-secret"
)

func newStore(t *testing.T, baseURL string) (*localstore.Store, *os.Root) {
	t.Helper()

	root, err := os.OpenRoot(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	store, err := localstore.New(root, localstore.Config{
		BaseURL:   baseURL,
		Region:    "us-east-1",
		AccessKey: testAccessKey,
		SecretKey: testSecretKey,
	})
	require.NoError(t, err)
	return store, root
}

func TestNew_Validation(t *testing.T) {
	root, err := os.OpenRoot(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = root.Close() }()

	tests := []struct {
		name string
		root *os.Root
		cfg  localstore.Config
	}{
		{name: "nil root", root: nil, cfg: localstore.Config{BaseURL: "http://x", AccessKey: "a", SecretKey: "s"}},
		{name: "missing base url", root: root, cfg: localstore.Config{AccessKey: "a", SecretKey: "s"}},
		{name: "missing access key", root: root, cfg: localstore.Config{BaseURL: "http://x", SecretKey: "s"}},
		{name: "missing secret key", root: root, cfg: localstore.Config{BaseURL: "http://x", AccessKey: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := localstore.New(tt.root, tt.cfg)
			assert.Error(t, err)
			assert.Nil(t, store)
		})
	}
}

func TestStore_WriteHeadGet(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, "http://localhost:8080")

	key := "uploads/2026-01-02/0123456789abcdef0123456789abcdef.png"
	n, err := store.Write(ctx, key, "image/png", strings.NewReader("png bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	info, err := store.Head(ctx, key)
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, int64(9), info.ContentLength)
	assert.WithinDuration(t, time.Now(), info.LastModified, time.Minute)

	info, body, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))
	assert.Equal(t, "image/png", info.ContentType)
}

func TestStore_WriteOverwrites(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, "http://localhost:8080")

	_, err := store.Write(ctx, "uploads/a.gif", "image/gif", strings.NewReader("first"))
	require.NoError(t, err)
	_, err = store.Write(ctx, "uploads/a.gif", "image/webp", strings.NewReader("second!"))
	require.NoError(t, err)

	info, err := store.Head(ctx, "uploads/a.gif")
	require.NoError(t, err)
	assert.Equal(t, "image/webp", info.ContentType)
	assert.Equal(t, int64(7), info.ContentLength)
}

func TestStore_ContentTypeFallsBackToExtension(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, "http://localhost:8080")

	_, err := store.Write(ctx, "uploads/img.png", "", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = store.Write(ctx, "uploads/blob", "", strings.NewReader("x"))
	require.NoError(t, err)

	info, err := store.Head(ctx, "uploads/img.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType)

	info, err = store.Head(ctx, "uploads/blob")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", info.ContentType)
}

func TestStore_WriteInvalidKey(t *testing.T) {
	store, _ := newStore(t, "http://localhost:8080")

	for _, key := range []string{"", "../escape", "/abs", "a/../b", "dir/"} {
		t.Run(key, func(t *testing.T) {
			_, err := store.Write(context.Background(), key, "image/png", strings.NewReader("x"))
			assert.ErrorIs(t, err, signet.ErrInvalidInput)
		})
	}
}

func TestStore_WriteCancelledContext(t *testing.T) {
	store, root := newStore(t, "http://localhost:8080")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Write(ctx, "uploads/a.png", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := root.Stat("objects/uploads/a.png")
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestStore_HeadNotFound(t *testing.T) {
	ctx := context.Background()
	store, root := newStore(t, "http://localhost:8080")

	_, err := store.Head(ctx, "uploads/missing.png")
	assert.ErrorIs(t, err, signet.ErrNotFound)

	_, err = store.Head(ctx, "../outside")
	assert.ErrorIs(t, err, signet.ErrNotFound)

	require.NoError(t, root.MkdirAll("objects/uploads/dir", 0o755))
	_, err = store.Head(ctx, "uploads/dir")
	assert.ErrorIs(t, err, signet.ErrNotFound)

	_, _, err = store.Get(ctx, "uploads/missing.png")
	assert.ErrorIs(t, err, signet.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, root := newStore(t, "http://localhost:8080")

	_, err := store.Write(ctx, "uploads/a.png", "image/png", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "uploads/a.png"))

	_, err = store.Head(ctx, "uploads/a.png")
	assert.ErrorIs(t, err, signet.ErrNotFound)
	_, err = root.Stat("meta/uploads/a.png.json")
	assert.ErrorIs(t, err, os.ErrNotExist)

	t.Run("missing key is not an error", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "uploads/a.png"))
		assert.NoError(t, store.Delete(ctx, "uploads/never.png"))
	})

	t.Run("invalid key is not an error", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "../a.png"))
	})
}

func TestStore_EnsureBucket(t *testing.T) {
	store, root := newStore(t, "http://localhost:8080")

	require.NoError(t, store.EnsureBucket(context.Background()))
	require.NoError(t, store.EnsureBucket(context.Background()))

	for _, dir := range []string{"objects", "meta"} {
		fi, err := root.Stat(dir)
		require.NoError(t, err)
		assert.True(t, fi.IsDir())
	}
}

func TestStore_Presign(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, "http://files.example.com/")

	key := "uploads/2026-01-02/0123456789abcdef0123456789abcdef.png"

	t.Run("put signs content type", func(t *testing.T) {
		before := time.Now()
		req, err := store.PresignPut(ctx, key, "image/png", signet.PresignTTL)
		require.NoError(t, err)

		assert.Equal(t, "PUT", req.Method)
		assert.WithinDuration(t, before.Add(signet.PresignTTL), req.ExpiresAt, 2*time.Second)

		u, err := url.Parse(req.URL)
		require.NoError(t, err)
		assert.Equal(t, "files.example.com", u.Host)
		assert.Equal(t, localstore.RoutePrefix+key, u.Path)

		q := u.Query()
		assert.Equal(t, "AWS4-HMAC-SHA256", q.Get("X-Amz-Algorithm"))
		assert.Equal(t, "300", q.Get("X-Amz-Expires"))
		assert.Equal(t, "content-type;host", q.Get("X-Amz-SignedHeaders"))
		assert.True(t, strings.HasPrefix(q.Get("X-Amz-Credential"), testAccessKey+"/"))
		assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	})

	t.Run("get signs host only", func(t *testing.T) {
		req, err := store.PresignGet(ctx, key, signet.PresignTTL)
		require.NoError(t, err)

		assert.Equal(t, "GET", req.Method)
		u, err := url.Parse(req.URL)
		require.NoError(t, err)
		assert.Equal(t, "host", u.Query().Get("X-Amz-SignedHeaders"))
	})

	t.Run("get of unstorable key is not found", func(t *testing.T) {
		for _, k := range []string{"../etc/passwd", "a?b", "/abs.png"} {
			_, err := store.PresignGet(ctx, k, signet.PresignTTL)
			assert.ErrorIs(t, err, signet.ErrNotFound, k)
			assert.NotErrorIs(t, err, signet.ErrInvalidInput, k)
		}
	})

	t.Run("put of unstorable key is invalid", func(t *testing.T) {
		_, err := store.PresignPut(ctx, "a?b", "image/png", signet.PresignTTL)
		assert.ErrorIs(t, err, signet.ErrInvalidInput)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.PresignGet(cancelled, key, signet.PresignTTL)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invalid ttl", func(t *testing.T) {
		_, err := store.PresignGet(ctx, key, 0)
		assert.ErrorIs(t, err, signet.ErrInvalidInput)
	})
}
