package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"

	"github.com/sagarc03/signet"
	"github.com/sagarc03/signet/config"
	signethttp "github.com/sagarc03/signet/http"
	"github.com/sagarc03/signet/localstore"
	"github.com/sagarc03/signet/miniostore"
	"github.com/sagarc03/signet/s3store"
)

// backendStore is what the commands need from any configured backend.
type backendStore interface {
	signet.ObjectStore
	signet.BucketInitializer
}

// openedStore bundles a backend with anything the HTTP server must mount for it.
type openedStore struct {
	store  backendStore
	mounts map[string]http.Handler
	// extraMethods are CORS methods browsers need to reach the mounts.
	extraMethods []string
	close        func()
}

func openStore(ctx context.Context, cfg *config.Config) (*openedStore, error) {
	backend, err := signet.ParseBackend(cfg.Storage.Backend)
	if err != nil {
		return nil, err
	}

	switch backend {
	case signet.BackendS3:
		store, err := s3store.New(ctx, s3store.Config{
			Region:       cfg.Storage.Region,
			Bucket:       cfg.Storage.Bucket,
			Endpoint:     cfg.Storage.Endpoint,
			AccessKey:    cfg.Storage.AccessKey,
			SecretKey:    cfg.Storage.SecretKey,
			UsePathStyle: cfg.Storage.PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 store: %w", err)
		}
		return &openedStore{store: store, close: func() {}}, nil

	case signet.BackendMinio:
		store, err := miniostore.New(miniostore.Config{
			Endpoint:     cfg.Storage.Endpoint,
			Region:       cfg.Storage.Region,
			Bucket:       cfg.Storage.Bucket,
			AccessKey:    cfg.Storage.AccessKey,
			SecretKey:    cfg.Storage.SecretKey,
			UseSSL:       cfg.Storage.UseSSL,
			UsePathStyle: cfg.Storage.PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("open minio store: %w", err)
		}
		return &openedStore{store: store, close: func() {}}, nil

	default:
		return openLocalStore(cfg)
	}
}

func openLocalStore(cfg *config.Config) (*openedStore, error) {
	if err := os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage root: %w", err)
	}

	baseURL := cfg.Server.PublicURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}

	accessKey, secretKey := cfg.Storage.AccessKey, cfg.Storage.SecretKey
	if accessKey == "" {
		accessKey, secretKey = "signet-local", randomSecret()
		slog.Warn("no local signing key configured, presigned URLs will not survive a restart")
	}

	store, err := localstore.New(root, localstore.Config{
		BaseURL:   baseURL,
		Region:    cfg.Storage.Region,
		AccessKey: accessKey,
		SecretKey: secretKey,
	})
	if err != nil {
		_ = root.Close()
		return nil, fmt.Errorf("open local store: %w", err)
	}

	return &openedStore{
		store:        store,
		mounts:       map[string]http.Handler{localstore.MountPath: store.Handler()},
		extraMethods: []string{http.MethodPut},
		close:        func() { _ = root.Close() },
	}, nil
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func corsMethods(extra []string) []string {
	methods := slices.Clone(signethttp.DefaultCORSMethods)
	for _, m := range extra {
		if !slices.Contains(methods, m) {
			methods = append(methods, m)
		}
	}
	return methods
}
