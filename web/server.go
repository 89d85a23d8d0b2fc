// Package web serves the Hidden Gem HTTP API: catalog browsing, on-demand
// media resolution and the admin curation endpoints.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hiddengem/hiddengem/catalog"
	"github.com/hiddengem/hiddengem/db"
	"github.com/hiddengem/hiddengem/logging"
	"github.com/hiddengem/hiddengem/media"
)

// MediaEngine is the resolution side the server needs. Satisfied by
// media.Resolver.
type MediaEngine interface {
	Resolve(ctx context.Context, key media.GameKey, policy media.Policy, forceRefresh bool) (media.MediaRecord, error)
	Record(key media.GameKey) (media.MediaRecord, error)
}

// UserStore authenticates admin credentials. Satisfied by db.DB.
type UserStore interface {
	Authenticate(ctx context.Context, email, password string) (*db.User, error)
}

// Server handles HTTP requests.
type Server struct {
	catalog *catalog.Catalog
	engine  MediaEngine
	store   *media.Store
	users   UserStore
	policy  media.Policy
	mux     *http.ServeMux
}

// NewServer wires the API over the catalog, media engine and user store.
func NewServer(cat *catalog.Catalog, engine MediaEngine, store *media.Store, users UserStore, policy media.Policy) *Server {
	s := &Server{
		catalog: cat,
		engine:  engine,
		store:   store,
		users:   users,
		policy:  policy,
		mux:     http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /api/games", s.handleGames)
	s.mux.HandleFunc("GET /api/games/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/games/consoles", s.handleConsoles)
	s.mux.HandleFunc("GET /api/games/by-console/{console}", s.handleByConsole)
	s.mux.HandleFunc("GET /api/games/by-manufacturer/{manufacturer}", s.handleByManufacturer)
	s.mux.HandleFunc("GET /api/games/{title}/{action}", s.handleGameAction)
	s.mux.HandleFunc("GET /api/manufacturers", s.handleManufacturers)
	s.mux.HandleFunc("GET /api/manufacturer/{name}", s.handleManufacturer)
	s.mux.HandleFunc("GET /api/manufacturer/{name}/{platform}", s.handleManufacturerPlatform)

	s.mux.HandleFunc("PUT /api/admin/games/{title}/description", s.requireAdmin(s.handleSetDescription))
	s.mux.HandleFunc("DELETE /api/admin/games/{title}/description", s.requireAdmin(s.handleDeleteDescription))
	s.mux.HandleFunc("PUT /api/admin/games/{title}/tags", s.requireAdmin(s.handleSetTags))
	s.mux.HandleFunc("DELETE /api/admin/games/{title}/tags", s.requireAdmin(s.handleDeleteTags))
	s.mux.HandleFunc("PUT /api/admin/games/{title}/order", s.requireAdmin(s.handleSetOrder))
	s.mux.HandleFunc("POST /api/admin/games/{title}/images", s.requireAdmin(s.handleUploadImage))
	s.mux.HandleFunc("DELETE /api/admin/games/{title}/images/{filename}", s.requireAdmin(s.handleDeleteImage))

	s.mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(s.store.Root()))))
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "hiddengem",
		"status":  "ok",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"games":  s.catalog.Len(),
	})
}

// requireAdmin wraps a handler with basic auth against the user store,
// admitting active admin accounts only.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="hiddengem admin"`)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		user, err := s.users.Authenticate(r.Context(), email, password)
		if err != nil {
			if !errors.Is(err, db.ErrInvalidCredentials) {
				logging.Error("authentication lookup failed", "error", err)
			}
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if !user.IsAdmin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
