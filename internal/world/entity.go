package world

import (
	"fmt"
	"sort"
	"strings"
)

// EntityType tags an entity as scripted or human-controlled. It is fixed
// at construction and decides registry side effects, not behavior.
type EntityType uint8

const (
	TypeNPC EntityType = iota
	TypePlayer
)

// String returns the lower-case type name.
func (t EntityType) String() string {
	switch t {
	case TypeNPC:
		return "npc"
	case TypePlayer:
		return "player"
	default:
		return "unknown"
	}
}

// ParseEntityType resolves an entity type from its name.
func ParseEntityType(s string) (EntityType, error) {
	switch s {
	case "npc":
		return TypeNPC, nil
	case "player":
		return TypePlayer, nil
	default:
		return TypeNPC, fmt.Errorf("unknown entity type %q", s)
	}
}

// Vec3 is a world-space position.
type Vec3 [3]float32

// Vec2 is an XZ facing vector.
type Vec2 [2]float32

// defaultOrientation is the facing of a freshly constructed entity.
var defaultOrientation = Vec2{1, 0}

// Entity is a single addressable game object: identity, spatial state,
// numeric level and an open attribute bag. An entity is constructed
// standalone and only gains an id once a manager registers it.
type Entity struct {
	id         int
	managerID  int
	registered bool

	typ      EntityType
	behavior Behavior

	Position    Vec3
	Orientation Vec2

	level int
	attrs Attributes
}

// EntityOptions configures a new entity. Zero values fall back to the
// documented defaults.
type EntityOptions struct {
	Behavior    Behavior   // defaults to Generic
	Level       int        // defaults to 1
	Position    Vec3       // defaults to the origin
	Orientation Vec2       // defaults to (1, 0)
	Attributes  Attributes // copied in
}

// NewEntity constructs an unregistered entity.
func NewEntity(typ EntityType, opts EntityOptions) *Entity {
	behavior := opts.Behavior
	if behavior == nil {
		behavior = Generic{}
	}
	level := opts.Level
	if level < 1 {
		level = 1
	}
	orientation := opts.Orientation
	if orientation == (Vec2{}) {
		orientation = defaultOrientation
	}
	attrs := make(Attributes, len(opts.Attributes))
	for k, v := range opts.Attributes {
		attrs[k] = v
	}
	return &Entity{
		typ:         typ,
		behavior:    behavior,
		Position:    opts.Position,
		Orientation: orientation,
		level:       level,
		attrs:       attrs,
	}
}

// ID returns the manager-assigned id. ok is false while the entity is
// unregistered; there is no sentinel id value.
func (e *Entity) ID() (int, bool) { return e.id, e.registered }

// ManagerID returns the owning manager's id, or false while the entity
// is unregistered.
func (e *Entity) ManagerID() (int, bool) { return e.managerID, e.registered }

// Type returns the entity type tag.
func (e *Entity) Type() EntityType { return e.typ }

// Behavior returns the entity's gameplay variant.
func (e *Entity) Behavior() Behavior { return e.behavior }

// Level returns the entity's level.
func (e *Entity) Level() int { return e.level }

// SetLevel sets the entity's level, clamped to a minimum of 1.
func (e *Entity) SetLevel(level int) {
	if level < 1 {
		level = 1
	}
	e.level = level
}

// UpdateAttribute inserts or overwrites the attribute at key.
func (e *Entity) UpdateAttribute(key string, value Value) {
	e.attrs.Set(key, value)
}

// Attribute returns the attribute at key, or false if absent.
func (e *Entity) Attribute(key string) (Value, bool) {
	return e.attrs.Get(key)
}

// AllAttributes returns a snapshot copy of the attribute bag.
func (e *Entity) AllAttributes() Attributes {
	return e.attrs.Clone()
}

// Event delivers a lifecycle/world event to the entity's behavior.
func (e *Entity) Event(kind EventKind, value Value) {
	e.behavior.HandleEvent(e, kind, value)
}

// UserEvent delivers an input-originated event. Callers route these to
// player-typed entities only.
func (e *Entity) UserEvent(kind EventKind, value Value) {
	e.behavior.HandleUserEvent(e, kind, value)
}

// IsPlayer reports whether the entity is human-controlled.
func (e *Entity) IsPlayer() bool { return e.typ == TypePlayer }

// snapshot returns a detached copy. The manager hands these out so no
// caller ever holds a live reference into the registry.
func (e *Entity) snapshot() *Entity {
	cp := *e
	cp.attrs = e.attrs.Clone()
	cp.behavior = cloneBehavior(e.behavior)
	return &cp
}

// cloneBehavior copies stateful variants so snapshots do not share
// mutable behavior state with the registered entity.
func cloneBehavior(b Behavior) Behavior {
	if m, ok := b.(*Monster); ok {
		cp := *m
		return &cp
	}
	return b
}

// Debug renders all fields for diagnostics. The format is not stable.
func (e *Entity) Debug() string {
	var sb strings.Builder
	if e.registered {
		fmt.Fprintf(&sb, "entity %d (manager %d)", e.id, e.managerID)
	} else {
		sb.WriteString("entity (unregistered)")
	}
	fmt.Fprintf(&sb, " type=%s behavior=%s level=%d", e.typ, e.behavior.Name(), e.level)
	fmt.Fprintf(&sb, " pos=(%g, %g, %g)", e.Position[0], e.Position[1], e.Position[2])
	fmt.Fprintf(&sb, " facing=(%g, %g)", e.Orientation[0], e.Orientation[1])
	keys := make([]string, 0, len(e.attrs))
	for k := range e.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "\n  %s = %s", k, e.attrs[k])
	}
	return sb.String()
}
