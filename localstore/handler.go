package localstore

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	signethttp "github.com/sagarc03/signet/http"
)

// MountPath is the path Handler expects to be mounted at.
const MountPath = "/_local"

// Handler serves the presigned PUT and GET requests issued by this store.
// Every request must carry a valid signature for its method, path and signed headers.
func (s *Store) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.verifySignature)
	r.Put("/*", s.handlePut)
	r.Get("/*", s.handleGet)
	return r
}

func (s *Store) verifySignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Go stores Host separately from Header
		headers := r.Header.Clone()
		headers.Set("Host", r.Host)

		if err := s.verifier.Verify(r.Method, r.URL.Path, r.URL.Query(), headers); err != nil {
			signethttp.HandleError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Store) handlePut(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, RoutePrefix)

	if _, err := s.Write(r.Context(), key, r.Header.Get("Content-Type"), r.Body); err != nil {
		signethttp.HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Store) handleGet(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, RoutePrefix)

	info, body, err := s.Get(r.Context(), key)
	if err != nil {
		signethttp.HandleError(w, err)
		return
	}
	defer func() { _ = body.Close() }()

	w.Header().Set("Content-Type", info.ContentType)

	if rs, ok := body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, key, info.LastModified, rs)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}
