package signet

import (
	"fmt"
	"time"
)

// PresignTTL is how long every issued URL stays valid.
const PresignTTL = 300 * time.Second

// UploadRequest describes the object a client is about to upload.
type UploadRequest struct {
	ContentType string `json:"contentType" validate:"required"`
	Ext         string `json:"ext,omitempty" validate:"max=32"`
}

// PresignedRequest is what an ObjectStore hands back for a single verb on a single key.
type PresignedRequest struct {
	URL       string
	Method    string
	ExpiresAt time.Time
}

// UploadURL is the answer to an upload request. ObjectURL is set only when a
// public base URL is configured.
type UploadURL struct {
	SignedURL string    `json:"signedUrl"`
	Key       string    `json:"key"`
	ObjectURL string    `json:"objectUrl,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DownloadURL is a presigned GET for an existing key.
type DownloadURL struct {
	SignedURL string    `json:"signedUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ObjectInfo is the metadata reported for a stored object.
// It is fetched from the store on every request and never cached.
type ObjectInfo struct {
	Exists        bool      `json:"exists"`
	ContentType   string    `json:"contentType"`
	ContentLength int64     `json:"contentLength"`
	LastModified  time.Time `json:"lastModified"`
}

// DeleteResult confirms a delete. OK is true whether or not the key existed.
type DeleteResult struct {
	OK  bool   `json:"ok"`
	Key string `json:"key"`
}

// Backend names the object store implementation a server runs against.
type Backend string

const (
	BackendS3    Backend = "s3"
	BackendMinio Backend = "minio"
	BackendLocal Backend = "local"
)

// IsValid returns true if the backend is one of the supported values.
func (b Backend) IsValid() bool {
	switch b {
	case BackendS3, BackendMinio, BackendLocal:
		return true
	default:
		return false
	}
}

// ParseBackend converts a string to Backend, returning an error for unknown values.
func ParseBackend(s string) (Backend, error) {
	backend := Backend(s)
	if !backend.IsValid() {
		return "", fmt.Errorf("invalid storage backend: %s (valid backends: s3, minio, local)", s)
	}
	return backend, nil
}
