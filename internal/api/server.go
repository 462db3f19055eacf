package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with a WebSocket hub for real-time
// world state updates.
type Server struct {
	mgr         WorldInterface
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter

	// snapshotEvery is how often the hub pushes world state to clients
	snapshotEvery time.Duration
}

// ServerConfig configures a Server.
type ServerConfig struct {
	// World is the entity manager (required)
	World WorldInterface

	// SnapshotEvery is the WebSocket state push interval.
	// Zero means the default of 250ms.
	SnapshotEvery time.Duration

	// CORSOrigins overrides the default local origins when non-nil.
	CORSOrigins []string
}

// NewServer creates a new API server with default production configuration.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		mgr:           cfg.World,
		wsHub:         NewWebSocketHub(cfg.World),
		snapshotEvery: cfg.SnapshotEvery,
	}

	// Create rate limiter (we track it for cleanup)
	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)

	// Build router using the factory
	s.router = NewRouter(RouterConfig{
		World:       cfg.World,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	// WebSocket routes need the wsHub instance, so they can't be
	// part of the generic NewRouter factory.
	s.router.Get("/ws", s.handleWS)

	return s
}

// Start begins the HTTP server AND starts background workers.
// This is the ONLY method that starts goroutines or opens network listeners.
//
// Call this method only once. To stop the server, signal the process.
func (s *Server) Start(addr string) error {
	// Start background workers NOW, not in constructor
	// This is critical for testability - tests can construct the server
	// and use Router() without these workers running.
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.snapshotEvery)

	log.Printf("API server starting on %s", addr)

	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
//
// Example:
//
//	server := api.NewServer(api.ServerConfig{World: mgr})
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/stats")
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub, for pushing ad-hoc messages.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Stop performs graceful shutdown of background workers.
// Call this before process exit to ensure clean cleanup.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.wsHub.HandleWebSocket(w, r)
}
