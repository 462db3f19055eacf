package world

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// PlayerRegistry is the external collaborator notified when a
// player-typed entity joins a manager. It is injected so the manager has
// no hidden global dependency and tests can substitute a fake.
type PlayerRegistry interface {
	RegisterPlayer(managerID, entityID int) error
}

// Callbacks are optional lifecycle hooks. The core never logs or records
// anything itself; the host wires these into its event log and metrics.
type Callbacks struct {
	OnSpawn   func(id int, e *Entity)
	OnDespawn func(id int)
	OnEvent   func(id int, kind EventKind, value Value)
}

// Manager is the owning registry for one world's entities. It allocates
// ids from a monotonic counter, mediates every external access, and
// routes events. All operations take a coarse per-manager lock; field
// updates on a single entity are not atomic relative to each other.
type Manager struct {
	mu       sync.RWMutex
	id       int
	entities map[int]*Entity
	nextID   int
	registry PlayerRegistry
	cb       Callbacks
}

// NewManager creates an empty manager. registry may be nil for worlds
// that never host players.
func NewManager(id int, registry PlayerRegistry) *Manager {
	return &Manager{
		id:       id,
		entities: make(map[int]*Entity),
		registry: registry,
	}
}

// ID returns the manager's own identifier.
func (m *Manager) ID() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.id
}

// SetCallbacks installs lifecycle hooks. Call before the manager is
// shared between goroutines.
func (m *Manager) SetCallbacks(cb Callbacks) { m.cb = cb }

// Len returns the number of registered entities.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entities)
}

// NextID returns the value the next allocated id will take. Ids are
// never reused, even after deletion.
func (m *Manager) NextID() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nextID
}

// AddEntity registers an entity, stamps its id and owning manager id
// exactly once, and returns the new id. Player-typed entities are
// announced to the player registry first; if that call fails the manager
// is left completely untouched, so retrying later cannot orphan an id.
func (m *Manager) AddEntity(e *Entity) (int, error) {
	if e == nil || e.behavior == nil {
		return 0, fmt.Errorf("add entity: %w", ErrInvalidArgument)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e.registered {
		return 0, fmt.Errorf("add entity: %w", ErrAlreadyRegistered)
	}

	id := m.nextID
	if e.typ == TypePlayer && m.registry != nil {
		if err := m.registry.RegisterPlayer(m.id, id); err != nil {
			return 0, fmt.Errorf("register player (manager %d, entity %d): %w", m.id, id, err)
		}
	}

	e.id = id
	e.managerID = m.id
	e.registered = true
	m.entities[id] = e
	m.nextID++

	if m.cb.OnSpawn != nil {
		m.cb.OnSpawn(id, e)
	}
	return id, nil
}

// GetEntity returns a detached snapshot of the entity. Mutating the
// snapshot has no effect on the world; all mutation goes through the
// manager.
func (m *Manager) GetEntity(id int) (*Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[id]
	if !ok {
		return nil, fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	return e.snapshot(), nil
}

// DeleteEntity removes the entity and releases ownership. Its id is
// never handed out again by this manager. The player registry is not
// told about removals; that asymmetry is the host's to resolve.
func (m *Manager) DeleteEntity(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[id]; !ok {
		return fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	delete(m.entities, id)
	if m.cb.OnDespawn != nil {
		m.cb.OnDespawn(id)
	}
	return nil
}

// EntityPosition returns the entity's world position.
func (m *Manager) EntityPosition(id int) (Vec3, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[id]
	if !ok {
		return Vec3{}, fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	return e.Position, nil
}

// SetEntityPosition moves the entity.
func (m *Manager) SetEntityPosition(id int, pos Vec3) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	e.Position = pos
	return nil
}

// UpdateAttribute inserts or overwrites one attribute on the entity.
func (m *Manager) UpdateAttribute(id int, key string, value Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	e.UpdateAttribute(key, value)
	return nil
}

// EntityAttributes returns a snapshot of the entity's attribute bag.
func (m *Manager) EntityAttributes(id int) (Attributes, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[id]
	if !ok {
		return nil, fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	return e.AllAttributes(), nil
}

// AllEntities returns a snapshot of every entity's attribute bag, keyed
// by id.
func (m *Manager) AllEntities() map[int]Attributes {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int]Attributes, len(m.entities))
	for id, e := range m.entities {
		out[id] = e.AllAttributes()
	}
	return out
}

// Event delivers a lifecycle/world event to one entity.
func (m *Manager) Event(id int, kind EventKind, value Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	e.Event(kind, value)
	if m.cb.OnEvent != nil {
		m.cb.OnEvent(id, kind, value)
	}
	return nil
}

// UserEvent delivers an input-originated event. Only player-typed
// entities receive these; routing one anywhere else is a caller bug.
func (m *Manager) UserEvent(id int, kind EventKind, value Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	if e.typ != TypePlayer {
		return fmt.Errorf("user event for non-player entity %d: %w", id, ErrInvalidArgument)
	}
	e.UserEvent(kind, value)
	if m.cb.OnEvent != nil {
		m.cb.OnEvent(id, kind, value)
	}
	return nil
}

// Broadcast delivers an event to every currently registered entity
// exactly once. Delivery order is unspecified.
func (m *Manager) Broadcast(kind EventKind, value Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entities {
		e.Event(kind, value)
		if m.cb.OnEvent != nil {
			m.cb.OnEvent(id, kind, value)
		}
	}
}

// Debug renders every entity for diagnostics. The format is not stable.
func (m *Manager) Debug() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sb strings.Builder
	fmt.Fprintf(&sb, "manager %d: %d entities, next id %d", m.id, len(m.entities), m.nextID)
	ids := make([]int, 0, len(m.entities))
	for id := range m.entities {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		sb.WriteString("\n")
		sb.WriteString(m.entities[id].Debug())
	}
	return sb.String()
}
