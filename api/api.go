// Package api exposes the passkey ceremonies, session endpoints, and
// published notes over HTTP.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/jdwb/yawp/session"
	"github.com/jdwb/yawp/storage"
)

// API holds the dependencies needed by the HTTP handlers.
type API struct {
	manager *session.Manager
	codec   *session.Codec
	notes   storage.NoteStore
	audit   *auditLogger

	title   string
	author  string
	baseURL string
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.audit = newAuditLogger(logger)
	}
}

// WithSite sets the site metadata used by the atom feed.
func WithSite(title, author, baseURL string) Option {
	return func(a *API) {
		a.title = title
		a.author = author
		a.baseURL = baseURL
	}
}

// New creates a new API instance.
func New(manager *session.Manager, codec *session.Codec, notes storage.NoteStore, opts ...Option) *API {
	a := &API{
		manager: manager,
		codec:   codec,
		notes:   notes,
		title:   "yawp",
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.audit == nil {
		a.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/openapi.yaml",
		Path:    "docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/openapi.yaml",
		Path:    "redoc",
	}, nil))

	r.Get("/health", a.Health)

	r.Post("/register/start", a.RegisterStart)
	r.Post("/register/finish", a.RegisterFinish)
	r.Post("/login/start", a.LoginStart)
	r.Post("/login/finish", a.LoginFinish)
	r.Post("/logout", a.Logout)
	r.Get("/session", a.Session)

	r.Get("/notes", a.ListNotes)
	r.Get("/notes/{noteID}", a.GetNote)
	r.With(a.RequireAuth).Post("/admin/notes", a.CreateNote)
	r.Get("/atom.xml", a.AtomFeed)

	return r
}
