package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sagarc03/signet"
)

// DefaultMaxBodyBytes caps JSON request bodies.
const DefaultMaxBodyBytes = 1 << 20

var (
	// DefaultCORSMethods are the methods browsers may use cross-origin.
	DefaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	// DefaultCORSHeaders are the request headers browsers may send cross-origin.
	DefaultCORSHeaders = []string{"Content-Type", "Authorization"}
)

type Service interface {
	PresignPut(ctx context.Context, req signet.UploadRequest) (signet.UploadURL, error)
	PresignGet(ctx context.Context, key string) (signet.DownloadURL, error)
	Head(ctx context.Context, key string) (signet.ObjectInfo, error)
	Delete(ctx context.Context, key string) (signet.DeleteResult, error)
	Stream(ctx context.Context, key string) (signet.ObjectInfo, io.ReadCloser, error)
}

type CORSConfig struct {
	// AllowedOrigins may contain "*" to admit every origin.
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type HandlerConfig struct {
	CORS CORSConfig
	// Mounts attaches extra handlers under a path prefix, behind the same
	// origin policy and middleware as the API routes.
	Mounts       map[string]http.Handler
	MaxBodyBytes int64
}

// Handler provides HTTP handlers for the signet API.
type Handler struct {
	config   HandlerConfig
	service  Service
	policy   *signet.OriginPolicy
	validate *validator.Validate
}

// NewHandler creates a new Handler with the given configuration and service.
// Unset CORS methods, headers and body limit fall back to the package defaults.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	if len(cfg.CORS.AllowedMethods) == 0 {
		cfg.CORS.AllowedMethods = DefaultCORSMethods
	}
	if len(cfg.CORS.AllowedHeaders) == 0 {
		cfg.CORS.AllowedHeaders = DefaultCORSHeaders
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return &Handler{
		config:   cfg,
		service:  service,
		policy:   signet.NewOriginPolicy(cfg.CORS.AllowedOrigins),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Router returns an http.Handler with all routes and middleware configured.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(OriginMiddleware(h.policy, h.config.CORS))

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/health", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload-url", h.handleUploadURL)
		r.Get("/download-url", h.handleDownloadURL)
		r.Get("/head", h.handleHead)
		r.Delete("/object", h.handleDelete)
		r.Get("/object", h.handleStream)
	})

	for prefix, mounted := range h.config.Mounts {
		r.Mount(prefix, mounted)
	}

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

func (h *Handler) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	var req signet.UploadRequest

	body := http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		HandleError(w, fmt.Errorf("%w: %v", ErrInvalidBody, err))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		HandleError(w, validationError(err))
		return
	}

	result, err := h.service.PresignPut(r.Context(), req)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleDownloadURL(w http.ResponseWriter, r *http.Request) {
	key, ok := requireKey(w, r)
	if !ok {
		return
	}

	result, err := h.service.PresignGet(r.Context(), key)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

func (h *Handler) handleHead(w http.ResponseWriter, r *http.Request) {
	key, ok := requireKey(w, r)
	if !ok {
		return
	}

	info, err := h.service.Head(r.Context(), key)
	if err != nil {
		if errors.Is(err, signet.ErrNotFound) {
			_ = WriteJSON(w, http.StatusNotFound, existsResponse{Exists: false})
			return
		}
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, ok := requireKey(w, r)
	if !ok {
		return
	}

	result, err := h.service.Delete(r.Context(), key)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	key, ok := requireKey(w, r)
	if !ok {
		return
	}

	info, body, err := h.service.Stream(r.Context(), key)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = body.Close() }()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if info.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.ContentLength, 10))
	}
	if !info.LastModified.IsZero() {
		w.Header().Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		slog.Warn("stream interrupted", "key", key, "error", err)
	}
}

// requireKey writes a 400 and returns false when ?key= is absent or empty.
func requireKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := r.URL.Query().Get("key")
	if key == "" {
		WriteError(w, http.StatusBadRequest, "missing_parameter", "key query parameter is required")
		return "", false
	}
	return key, true
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	msgs := make([]string, 0, len(verrs))
	missing := false
	for _, fe := range verrs {
		field := jsonFieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			missing = true
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, field+" is too long")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}

	sentinel := signet.ErrInvalidInput
	if missing {
		sentinel = signet.ErrMissingParameter
	}
	return fmt.Errorf("%s: %w", strings.Join(msgs, ", "), sentinel)
}

func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
