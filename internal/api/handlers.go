package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"gridfall/internal/world"

	"github.com/go-chi/chi/v5"
)

// maxSnapshotBytes caps POST /api/snapshot bodies.
const maxSnapshotBytes = 8 << 20

// Handler methods for routerHandlers
// These are used by both the standalone router (for testing) and the full Server.

// entityJSON is the wire shape of one entity.
type entityJSON struct {
	ID          int              `json:"id"`
	Type        string           `json:"type"`
	Behavior    string           `json:"behavior"`
	Level       int              `json:"level"`
	Position    world.Vec3       `json:"position"`
	Orientation world.Vec2       `json:"orientation"`
	Attributes  world.Attributes `json:"attributes"`
}

func entityToJSON(e *world.Entity) entityJSON {
	id, _ := e.ID()
	return entityJSON{
		ID:          id,
		Type:        e.Type().String(),
		Behavior:    e.Behavior().Name(),
		Level:       e.Level(),
		Position:    e.Position,
		Orientation: e.Orientation,
		Attributes:  e.AllAttributes(),
	}
}

type spawnRequest struct {
	Type        string           `json:"type"`
	Behavior    string           `json:"behavior"`
	Health      int64            `json:"health"`
	Damage      int64            `json:"damage"`
	Level       int              `json:"level"`
	Position    world.Vec3       `json:"position"`
	Orientation world.Vec2       `json:"orientation"`
	Attributes  world.Attributes `json:"attributes"`
}

func (h *routerHandlers) handleSpawn(w http.ResponseWriter, r *http.Request) {
	var req spawnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	typ, err := world.ParseEntityType(req.Type)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var behavior world.Behavior
	switch req.Behavior {
	case "", "generic":
		behavior = world.Generic{}
	case "monster":
		behavior = &world.Monster{Health: req.Health, Damage: req.Damage}
	case "player":
		behavior = world.PlayerBody{}
	default:
		writeError(w, "Unknown behavior: "+req.Behavior, http.StatusBadRequest)
		return
	}

	e := world.NewEntity(typ, world.EntityOptions{
		Behavior:    behavior,
		Level:       req.Level,
		Position:    req.Position,
		Orientation: req.Orientation,
		Attributes:  req.Attributes,
	})

	started := time.Now()
	id, err := h.mgr.AddEntity(e)
	if err != nil {
		writeWorldError(w, err)
		return
	}
	if typ == world.TypePlayer {
		RecordRegisterLatency(time.Since(started))
	}

	UpdateEntityCount(h.mgr.Len())
	writeJSON(w, map[string]interface{}{"id": id})
}

func (h *routerHandlers) handleListEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"managerId": h.mgr.ID(),
		"count":     h.mgr.Len(),
		"entities":  h.mgr.AllEntities(),
	})
}

func (h *routerHandlers) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}
	e, err := h.mgr.GetEntity(id)
	if err != nil {
		writeWorldError(w, err)
		return
	}
	writeJSON(w, entityToJSON(e))
}

func (h *routerHandlers) handleDeleteEntity(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}
	if err := h.mgr.DeleteEntity(id); err != nil {
		writeWorldError(w, err)
		return
	}
	UpdateEntityCount(h.mgr.Len())
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}
	pos, err := h.mgr.EntityPosition(id)
	if err != nil {
		writeWorldError(w, err)
		return
	}
	writeJSON(w, map[string]world.Vec3{"position": pos})
}

func (h *routerHandlers) handleSetPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}

	var req struct {
		Position world.Vec3 `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.mgr.SetEntityPosition(id, req.Position); err != nil {
		writeWorldError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleGetAttributes(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}
	attrs, err := h.mgr.EntityAttributes(id)
	if err != nil {
		writeWorldError(w, err)
		return
	}
	writeJSON(w, attrs)
}

func (h *routerHandlers) handleGetAttribute(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}
	attrs, err := h.mgr.EntityAttributes(id)
	if err != nil {
		writeWorldError(w, err)
		return
	}
	value, ok := attrs.Get(chi.URLParam(r, "key"))
	if !ok {
		writeError(w, "attribute not found", http.StatusNotFound)
		return
	}
	writeJSON(w, value)
}

func (h *routerHandlers) handleSetAttribute(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")
	if key == "" {
		writeError(w, "Attribute key is required", http.StatusBadRequest)
		return
	}

	var value world.Value
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		writeError(w, "Invalid value: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.mgr.UpdateAttribute(id, key, value); err != nil {
		writeWorldError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

type eventRequest struct {
	Kind  string      `json:"kind"`
	Value world.Value `json:"value"`
}

func (req *eventRequest) parse() (world.EventKind, world.Value, error) {
	kind, err := world.ParseEventKind(req.Kind)
	if err != nil {
		return world.EventUnknown, world.Value{}, err
	}
	return kind, req.Value, nil
}

func (h *routerHandlers) handleEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	kind, value, err := req.parse()
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.mgr.Event(id, kind, value); err != nil {
		writeWorldError(w, err)
		return
	}
	IncrementEventsDispatched("event")
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleUserEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	kind, value, err := req.parse()
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.mgr.UserEvent(id, kind, value); err != nil {
		writeWorldError(w, err)
		return
	}
	IncrementEventsDispatched("user_event")
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	kind, value, err := req.parse()
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mgr.Broadcast(kind, value)
	IncrementEventsDispatched("broadcast")
	writeJSON(w, map[string]interface{}{"success": true, "delivered": h.mgr.Len()})
}

func (h *routerHandlers) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	blob, err := h.mgr.Serialize()
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(blob)
}

func (h *routerHandlers) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	blob, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotBytes))
	if err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.mgr.Restore(blob); err != nil {
		writeWorldError(w, err)
		return
	}
	UpdateEntityCount(h.mgr.Len())
	writeJSON(w, map[string]interface{}{"success": true, "count": h.mgr.Len()})
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"managerId":   h.mgr.ID(),
		"entityCount": h.mgr.Len(),
		"nextId":      h.mgr.NextID(),
	})
}

// Helper functions (package-level for reuse)

// entityID parses the {id} route parameter, writing a 400 on failure.
func entityID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "Invalid entity id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// writeWorldError maps manager errors onto HTTP status codes.
// Anything outside the manager's own taxonomy is treated as a
// collaborator failure.
func writeWorldError(w http.ResponseWriter, err error) {
	var de *world.DecodeError
	switch {
	case errors.Is(err, world.ErrNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, world.ErrInvalidArgument):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, world.ErrAlreadyRegistered):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.As(err, &de):
		writeError(w, err.Error(), http.StatusBadRequest)
	default:
		writeError(w, err.Error(), http.StatusBadGateway)
	}
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
