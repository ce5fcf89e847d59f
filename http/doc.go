// Package http exposes the signet Service as a small JSON API.
//
// # Routes
//
//	GET    /health              liveness probe, plain "ok"
//	POST   /api/upload-url      presigned PUT for a new key
//	GET    /api/download-url    presigned GET for ?key=
//	GET    /api/head            object metadata for ?key=
//	DELETE /api/object          delete ?key= (idempotent)
//	GET    /api/object          stream ?key= through the server
//
// Extra handlers, such as the local storage backend, can be mounted through
// HandlerConfig.Mounts.
//
// # Origin policy
//
// Every request passes the OriginPolicy first. A request whose Origin header
// is present and not admitted is rejected with 403 before routing, and never
// receives CORS headers. Admitted origins get the usual CORS response headers
// from go-chi/cors.
//
// # Errors
//
// Errors are JSON objects with "error" (a stable code) and "message" fields.
// Infrastructure failures are logged and reported with a generic message.
//
// # Example
//
//	handler := signethttp.NewHandler(&signethttp.HandlerConfig{
//	    CORS: signethttp.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}},
//	}, service)
//	srv := &http.Server{Addr: ":8080", Handler: handler.Router()}
package http
