package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/paranote/internal/index"
	"github.com/starford/paranote/internal/noteservice"
)

// RouterConfig carries the settings the API routes need.
type RouterConfig struct {
	// AuthEnabled controls whether Bearer token auth is enforced.
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
	// Pattern is the note glob used by directory-wide endpoints.
	Pattern string
	// StaleDays is the default age for the stale action filter.
	StaleDays int
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *noteservice.Service, idx index.Reader, cfg RouterConfig) chi.Router {
	h := NewHandler(svc, idx, cfg.Pattern, cfg.StaleDays)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.UpdateFrontmatter)

	// Action items.
	r.Get("/actions", h.ListActions)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
