package e2e_test

import (
	"context"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioUser     = "signetadmin"
	minioPassword = "signetadmin-secret"
)

var (
	minioOnce     sync.Once
	minioEndpoint string
	minioErr      error
	minioCleanup  func()
)

// getSharedMinio returns host:port of a MinIO container shared by all tests.
func getSharedMinio(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	minioOnce.Do(func() {
		ctx := context.Background()

		ctr, err := testcontainers.Run(ctx,
			"minio/minio:latest",
			testcontainers.WithExposedPorts("9000/tcp"),
			testcontainers.WithEnv(map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioPassword,
			}),
			testcontainers.WithCmd("server", "/data"),
			testcontainers.WithWaitStrategy(
				wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
			),
		)
		if err != nil {
			minioErr = err
			return
		}

		minioCleanup = func() {
			_ = testcontainers.TerminateContainer(ctr)
		}

		minioEndpoint, minioErr = ctr.PortEndpoint(ctx, "9000/tcp", "")
	})

	if minioErr != nil {
		t.Fatalf("failed to start minio container: %v", minioErr)
	}
	return minioEndpoint
}
