package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sagarc03/signet"
)

// RequestLogger logs method, path, status, size and duration for every request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// OriginMiddleware enforces policy and adds CORS headers for admitted origins.
// A request with a denied Origin stops here with 403 and no CORS headers.
func OriginMiddleware(policy *signet.OriginPolicy, cfg CORSConfig) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return policy.Allow(origin)
		},
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return func(next http.Handler) http.Handler {
		withCORS := c.Handler(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := policy.Allow(origin)
			slog.Debug("origin evaluated", "origin", origin, "allowed", allowed, "method", r.Method, "path", r.URL.Path)

			if !allowed {
				HandleError(w, ErrOriginNotAllowed)
				return
			}

			withCORS.ServeHTTP(w, r)
		})
	}
}
