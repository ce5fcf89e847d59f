package signet_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sagarc03/signet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_IsValid(t *testing.T) {
	tests := []struct {
		name    string
		backend signet.Backend
		valid   bool
	}{
		{name: "s3 is valid", backend: signet.BackendS3, valid: true},
		{name: "minio is valid", backend: signet.BackendMinio, valid: true},
		{name: "local is valid", backend: signet.BackendLocal, valid: true},
		{name: "empty is invalid", backend: "", valid: false},
		{name: "uppercase is invalid", backend: "S3", valid: false},
		{name: "random string is invalid", backend: "gcs", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.backend.IsValid())
		})
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantBackend signet.Backend
		wantError   bool
	}{
		{name: "parse s3", input: "s3", wantBackend: signet.BackendS3},
		{name: "parse minio", input: "minio", wantBackend: signet.BackendMinio},
		{name: "parse local", input: "local", wantBackend: signet.BackendLocal},
		{name: "empty string returns error", input: "", wantError: true},
		{name: "mixed case returns error", input: "Minio", wantError: true},
		{name: "unknown returns error", input: "azure", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := signet.ParseBackend(tt.input)

			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid storage backend")
				assert.Contains(t, err.Error(), tt.input)
				assert.Equal(t, signet.Backend(""), backend)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantBackend, backend)
			}
		})
	}
}

func TestUploadURL_JSONFieldNames(t *testing.T) {
	expires := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("object url omitted when empty", func(t *testing.T) {
		data, err := json.Marshal(signet.UploadURL{SignedURL: "https://s", Key: "uploads/k", ExpiresAt: expires})
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		assert.Equal(t, "https://s", m["signedUrl"])
		assert.Equal(t, "uploads/k", m["key"])
		assert.Equal(t, "2026-01-02T03:04:05Z", m["expiresAt"])
		assert.NotContains(t, m, "objectUrl")
	})

	t.Run("object url present when set", func(t *testing.T) {
		data, err := json.Marshal(signet.UploadURL{SignedURL: "https://s", Key: "k", ObjectURL: "https://cdn/k"})
		require.NoError(t, err)
		assert.Contains(t, string(data), `"objectUrl":"https://cdn/k"`)
	})
}
