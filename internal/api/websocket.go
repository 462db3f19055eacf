package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"gridfall/internal/world"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Use the centralized origin checker
		if IsAllowedOrigin(origin) {
			return true
		}

		// Log rejected origin for security monitoring
		log.Printf("WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// wsClient tracks a WebSocket connection with its source IP
type wsClient struct {
	conn *websocket.Conn
	ip   string
}

// wsUserEvent is the inbound message shape. Clients drive player
// entities by sending these frames.
type wsUserEvent struct {
	Event string      `json:"event"` // must be "user_event"
	ID    int         `json:"id"`
	Kind  string      `json:"kind"`
	Value world.Value `json:"value"`
}

// WebSocketHub manages all WebSocket connections with DoS protection
type WebSocketHub struct {
	mgr        WorldInterface
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	// Connection limiting per IP
	connLimiter *ConnLimiter
}

// NewWebSocketHub creates a new hub with connection limiting
func NewWebSocketHub(mgr WorldInterface) *WebSocketHub {
	return &WebSocketHub{
		mgr:         mgr,
		clients:     make(map[*websocket.Conn]*wsClient),
		broadcast:   make(chan []byte, 256),
		register:    make(chan *wsClient),
		unregister:  make(chan *websocket.Conn),
		connLimiter: NewConnLimiter(MaxWSConnectionsPerIP),
	}
}

// Run starts the hub
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			h.mu.Unlock()

			count := len(h.clients)
			log.Printf("client connected from %s (%d total)", client.ip, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				// Release the connection slot for this IP
				h.connLimiter.Release(client.ip)
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

			count := len(h.clients)
			log.Printf("client disconnected (%d remaining)", count)
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.clients {
				err := conn.WriteMessage(websocket.TextMessage, message)
				if err != nil {
					conn.Close()
					h.mu.RUnlock()
					h.mu.Lock()
					if client, ok := h.clients[conn]; ok {
						h.connLimiter.Release(client.ip)
						delete(h.clients, conn)
					}
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
			IncrementWSMessages()
		}
	}
}

// Broadcast sends a message to all connected clients
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	msg := map[string]interface{}{
		"event": event,
		"data":  data,
	}

	jsonBytes, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- jsonBytes:
	default:
		// Channel full, skip (backpressure)
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop starts broadcasting world state periodically
func (h *WebSocketHub) StartBroadcastLoop(interval time.Duration) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)

	go func() {
		for range ticker.C {
			if h.ClientCount() == 0 {
				continue
			}

			h.Broadcast("world:state", map[string]interface{}{
				"managerId":   h.mgr.ID(),
				"entityCount": h.mgr.Len(),
				"entities":    h.mgr.AllEntities(),
			})
		}
	}()
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get client IP for rate limiting
	ip := GetClientIP(r)

	// Check total connection limit
	h.mu.RLock()
	totalConnections := len(h.clients)
	h.mu.RUnlock()

	if totalConnections >= MaxWSConnectionsTotal {
		log.Printf("WebSocket connection rejected: total limit reached (%d)", totalConnections)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	// Check per-IP connection limit
	if !h.connLimiter.Acquire(ip) {
		log.Printf("WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	// Upgrade to WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.connLimiter.Release(ip) // Release the slot we reserved
		return
	}

	// Register the connection
	client := &wsClient{conn: conn, ip: ip}
	h.register <- client

	// Read messages (player commands from clients)
	go func() {
		defer func() {
			h.unregister <- conn
		}()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				break
			}
			h.routeMessage(ip, message)
		}
	}()
}

// routeMessage dispatches one inbound frame. Malformed frames and
// rejected events are dropped, the sender learns nothing.
func (h *WebSocketHub) routeMessage(ip string, message []byte) {
	var msg wsUserEvent
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}
	if msg.Event != "user_event" {
		return
	}

	kind, err := world.ParseEventKind(msg.Kind)
	if err != nil {
		return
	}

	if err := h.mgr.UserEvent(msg.ID, kind, msg.Value); err != nil {
		log.Printf("user event from %s rejected: %v", ip, err)
		return
	}
	IncrementEventsDispatched("user_event")
}
