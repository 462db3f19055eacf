package api

import (
	"net/http"

	"gridfall/internal/world"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// WorldInterface defines the entity manager methods used by the API.
// This interface enables mocking for tests without a live registry.
// Keep this minimal - only include methods the API layer actually calls.
type WorldInterface interface {
	// ID returns the manager id
	ID() int
	// Len returns the number of live entities
	Len() int
	// NextID returns the id the next spawn will take
	NextID() int
	// AddEntity hands ownership of an entity to the manager
	AddEntity(e *world.Entity) (int, error)
	// GetEntity returns a detached copy of an entity
	GetEntity(id int) (*world.Entity, error)
	// DeleteEntity removes an entity from the manager
	DeleteEntity(id int) error
	// EntityPosition reads an entity's position
	EntityPosition(id int) (world.Vec3, error)
	// SetEntityPosition moves an entity
	SetEntityPosition(id int, pos world.Vec3) error
	// UpdateAttribute writes one attribute on an entity
	UpdateAttribute(id int, key string, value world.Value) error
	// EntityAttributes returns a copy of an entity's attribute bag
	EntityAttributes(id int) (world.Attributes, error)
	// AllEntities returns the attribute bags of every live entity
	AllEntities() map[int]world.Attributes
	// Event dispatches an event to one entity
	Event(id int, kind world.EventKind, value world.Value) error
	// UserEvent dispatches a player-originated event to one entity
	UserEvent(id int, kind world.EventKind, value world.Value) error
	// Broadcast dispatches an event to every live entity
	Broadcast(kind world.EventKind, value world.Value)
	// Serialize encodes the manager and its entities
	Serialize() ([]byte, error)
	// Restore replaces the manager's state from an encoded blob
	Restore(blob []byte) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    World: mgr,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// World is the entity manager (required)
	World WorldInterface

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses the default local origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
// This is used internally to pass handlers to route setup.
type routerHandlers struct {
	mgr WorldInterface
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started
//   - No network listeners are opened
//   - No background workers are launched
//
// This makes it safe to use in tests with httptest.NewServer.
//
// Example:
//
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/stats")
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	// CORS configuration
	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{mgr: cfg.World}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Entity lifecycle
		r.Post("/entities", h.handleSpawn)
		r.Get("/entities", h.handleListEntities)
		r.Get("/entities/{id}", h.handleGetEntity)
		r.Delete("/entities/{id}", h.handleDeleteEntity)

		// Entity state
		r.Get("/entities/{id}/position", h.handleGetPosition)
		r.Put("/entities/{id}/position", h.handleSetPosition)
		r.Get("/entities/{id}/attributes", h.handleGetAttributes)
		r.Get("/entities/{id}/attributes/{key}", h.handleGetAttribute)
		r.Put("/entities/{id}/attributes/{key}", h.handleSetAttribute)

		// Event dispatch
		r.Post("/entities/{id}/event", h.handleEvent)
		r.Post("/entities/{id}/user-event", h.handleUserEvent)
		r.Post("/broadcast", h.handleBroadcast)

		// World state
		r.Get("/snapshot", h.handleGetSnapshot)
		r.Post("/snapshot", h.handleRestoreSnapshot)
		r.Get("/stats", h.handleGetStats)
	})

	// Default route
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/stats", http.StatusFound)
	})

	return r
}
