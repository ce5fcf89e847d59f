package clientcli

import (
	"time"
)

// UploadOptions configures an upload operation.
type UploadOptions struct {
	Paths       []string
	ContentType string // optional, detected from each file's extension if empty
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath   string    `json:"local_path"`
	Key         string    `json:"key"`
	ObjectURL   string    `json:"object_url,omitempty"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Err         error     `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Key       string
	LocalPath string // empty = derive from key, "-" = stdout
	// Stream fetches through the server instead of a presigned URL.
	Stream bool
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	Key         string `json:"key"`
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// HeadResult is the metadata reported for a key.
type HeadResult struct {
	Key           string    `json:"key"`
	Exists        bool      `json:"exists"`
	ContentType   string    `json:"content_type,omitempty"`
	ContentLength int64     `json:"content_length,omitempty"`
	LastModified  time.Time `json:"last_modified,omitzero"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	Keys []string
}

// DeleteResult represents the result of deleting a single key.
type DeleteResult struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
	Err     error  `json:"-"` // nil on success
}

// serverError mirrors the server's JSON error body.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
