package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sagarc03/signet"
	signethttp "github.com/sagarc03/signet/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockService is a mock implementation of http.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) PresignPut(ctx context.Context, req signet.UploadRequest) (signet.UploadURL, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(signet.UploadURL), args.Error(1)
}

func (m *MockService) PresignGet(ctx context.Context, key string) (signet.DownloadURL, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(signet.DownloadURL), args.Error(1)
}

func (m *MockService) Head(ctx context.Context, key string) (signet.ObjectInfo, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(signet.ObjectInfo), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, key string) (signet.DeleteResult, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(signet.DeleteResult), args.Error(1)
}

func (m *MockService) Stream(ctx context.Context, key string) (signet.ObjectInfo, io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(1) == nil {
		return args.Get(0).(signet.ObjectInfo), nil, args.Error(2)
	}
	return args.Get(0).(signet.ObjectInfo), args.Get(1).(io.ReadCloser), args.Error(2)
}

func newRouter(service signethttp.Service) http.Handler {
	config := &signethttp.HandlerConfig{
		CORS: signethttp.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	return signethttp.NewHandler(config, service).Router()
}

func TestHandler_Health(t *testing.T) {
	service := new(MockService)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	service.AssertExpectations(t)
}

func TestHandler_UploadURL(t *testing.T) {
	service := new(MockService)
	expires := time.Date(2026, 1, 2, 3, 9, 5, 0, time.UTC)
	service.On("PresignPut", mock.Anything, signet.UploadRequest{ContentType: "image/png", Ext: "png"}).
		Return(signet.UploadURL{
			SignedURL: "https://bucket.s3.amazonaws.com/uploads/k.png?X-Amz-Signature=abc",
			Key:       "uploads/2026-01-02/k.png",
			ObjectURL: "https://cdn.example.com/uploads/2026-01-02/k.png",
			ExpiresAt: expires,
		}, nil)

	body := strings.NewReader(`{"contentType":"image/png","ext":"png"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/upload-url", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "uploads/2026-01-02/k.png", got["key"])
	assert.Equal(t, "https://cdn.example.com/uploads/2026-01-02/k.png", got["objectUrl"])
	assert.Contains(t, got["signedUrl"], "X-Amz-Signature")
	service.AssertExpectations(t)
}

func TestHandler_UploadURL_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		svcErr   error
		wantCode int
		wantErr  string
	}{
		{name: "missing content type", body: `{"ext":"png"}`, wantCode: http.StatusBadRequest, wantErr: "missing_parameter"},
		{name: "empty content type", body: `{"contentType":""}`, wantCode: http.StatusBadRequest, wantErr: "missing_parameter"},
		{name: "malformed json", body: `{"contentType":`, wantCode: http.StatusBadRequest, wantErr: "invalid_input"},
		{name: "empty body", body: ``, wantCode: http.StatusBadRequest, wantErr: "invalid_input"},
		{name: "unsupported type", body: `{"contentType":"application/pdf"}`, svcErr: signet.ErrUnsupportedMediaType, wantCode: http.StatusUnsupportedMediaType, wantErr: "unsupported_media_type"},
		{name: "signing failure", body: `{"contentType":"image/png"}`, svcErr: errors.New("no credentials"), wantCode: http.StatusInternalServerError, wantErr: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			if tt.svcErr != nil {
				service.On("PresignPut", mock.Anything, mock.Anything).Return(signet.UploadURL{}, tt.svcErr)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/upload-url", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			newRouter(service).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)

			var got signethttp.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantErr, got.Error)
			service.AssertExpectations(t)
		})
	}
}

func TestHandler_MissingKey(t *testing.T) {
	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/download-url"},
		{http.MethodGet, "/api/head"},
		{http.MethodDelete, "/api/object"},
		{http.MethodGet, "/api/object"},
		{http.MethodGet, "/api/object?key="},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			service := new(MockService)

			req := httptest.NewRequest(route.method, route.path, nil)
			rec := httptest.NewRecorder()
			newRouter(service).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"missing_parameter"`)
			// no storage interaction of any kind
			service.AssertExpectations(t)
			assert.Empty(t, service.Calls)
		})
	}
}

func TestHandler_DownloadURL(t *testing.T) {
	service := new(MockService)
	service.On("PresignGet", mock.Anything, "uploads/a.png").
		Return(signet.DownloadURL{SignedURL: "https://signed/get"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/download-url?key=uploads/a.png", nil)
	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"signedUrl":"https://signed/get"`)
	service.AssertExpectations(t)
}

func TestHandler_Head(t *testing.T) {
	modified := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("exists", func(t *testing.T) {
		service := new(MockService)
		service.On("Head", mock.Anything, "k").Return(signet.ObjectInfo{
			Exists: true, ContentType: "image/png", ContentLength: 1024, LastModified: modified,
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/head?key=k", nil)
		rec := httptest.NewRecorder()
		newRouter(service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"exists":true,"contentType":"image/png","contentLength":1024,"lastModified":"2026-01-02T03:04:05Z"}`, rec.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		service := new(MockService)
		service.On("Head", mock.Anything, "k").Return(signet.ObjectInfo{}, signet.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/api/head?key=k", nil)
		rec := httptest.NewRecorder()
		newRouter(service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"exists":false}`, rec.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		service := new(MockService)
		service.On("Head", mock.Anything, "k").Return(signet.ObjectInfo{}, errors.New("timeout"))

		req := httptest.NewRequest(http.MethodGet, "/api/head?key=k", nil)
		rec := httptest.NewRecorder()
		newRouter(service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "internal_error")
	})
}

func TestHandler_Delete(t *testing.T) {
	service := new(MockService)
	service.On("Delete", mock.Anything, "never-stored").Return(signet.DeleteResult{OK: true, Key: "never-stored"}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/object?key=never-stored", nil)
	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"key":"never-stored"}`, rec.Body.String())
	service.AssertExpectations(t)
}

func TestHandler_Delete_Failure(t *testing.T) {
	service := new(MockService)
	service.On("Delete", mock.Anything, "k").Return(signet.DeleteResult{}, errors.New("access denied"))

	req := httptest.NewRequest(http.MethodDelete, "/api/object?key=k", nil)
	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_Stream(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := new(MockService)
		body := io.NopCloser(bytes.NewReader([]byte("\x89PNG")))
		service.On("Stream", mock.Anything, "k").Return(signet.ObjectInfo{Exists: true, ContentType: "image/png", ContentLength: 4}, body, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/object?key=k", nil)
		rec := httptest.NewRecorder()
		newRouter(service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "4", rec.Header().Get("Content-Length"))
		assert.Equal(t, "\x89PNG", rec.Body.String())
	})

	t.Run("failure", func(t *testing.T) {
		service := new(MockService)
		service.On("Stream", mock.Anything, "k").Return(signet.ObjectInfo{}, nil, signet.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/api/object?key=k", nil)
		rec := httptest.NewRecorder()
		newRouter(service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error":"not_found"`)
	})
}

func TestHandler_UnknownRoute(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec := httptest.NewRecorder()
	newRouter(new(MockService)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "route_not_found")
}

func TestHandler_Mounts(t *testing.T) {
	mounted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "mounted "+r.URL.Path)
	})
	config := &signethttp.HandlerConfig{
		Mounts: map[string]http.Handler{"/_local": mounted},
	}
	router := signethttp.NewHandler(config, new(MockService)).Router()

	req := httptest.NewRequest(http.MethodGet, "/_local/uploads/a.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mounted /_local/uploads/a.png", rec.Body.String())
}
