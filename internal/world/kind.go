package world

// Behavior is the capability interface behind an entity's gameplay
// variant. It replaces subclass-style specialization: each variant keeps
// its own state in the variant itself, not on a class hierarchy.
type Behavior interface {
	// Name identifies the variant for serialization and debug output.
	Name() string
	// HandleEvent receives lifecycle/world events (damage, tick, ...).
	HandleEvent(e *Entity, kind EventKind, value Value)
	// HandleUserEvent receives input-originated events. Only player-typed
	// entities are ever routed these.
	HandleUserEvent(e *Entity, kind EventKind, value Value)
}

// Generic is the default do-nothing behavior.
type Generic struct{}

func (Generic) Name() string                              { return "generic" }
func (Generic) HandleEvent(*Entity, EventKind, Value)     {}
func (Generic) HandleUserEvent(*Entity, EventKind, Value) {}

// Monster is a combatant variant. Health and Damage live in the variant
// payload; when health drops to zero the monster is defeated and stops
// reacting to further events.
type Monster struct {
	Health int64
	Damage int64
}

func (m *Monster) Name() string { return "monster" }

// Defeated reports whether the monster's health has run out.
func (m *Monster) Defeated() bool { return m.Health <= 0 }

func (m *Monster) HandleEvent(e *Entity, kind EventKind, value Value) {
	if m.Defeated() {
		return
	}
	switch kind {
	case EventDamage:
		amount, ok := value.Int()
		if !ok {
			return
		}
		m.Health -= amount
		if m.Defeated() {
			e.UpdateAttribute("defeated", Bool(true))
		}
	case EventHeal:
		amount, ok := value.Int()
		if !ok {
			return
		}
		m.Health += amount
	}
}

func (m *Monster) HandleUserEvent(*Entity, EventKind, Value) {}

// PlayerBody is the variant driven by a human. Move events step the
// entity on the XZ plane and turn its facing.
type PlayerBody struct{}

func (PlayerBody) Name() string                          { return "player" }
func (PlayerBody) HandleEvent(*Entity, EventKind, Value) {}

func (PlayerBody) HandleUserEvent(e *Entity, kind EventKind, value Value) {
	if kind != EventMove {
		return
	}
	code, ok := value.Int()
	if !ok {
		return
	}
	action, ok := ActionFromCode(code)
	if !ok || action == ActionNone {
		return
	}
	delta := action.Delta()
	e.Position[0] += delta[0]
	e.Position[1] += delta[1]
	e.Position[2] += delta[2]
	if facing, ok := action.Facing(); ok {
		e.Orientation = facing
	}
}

// behaviorByName restores a zero-state variant from its serialized name.
func behaviorByName(name string) (Behavior, bool) {
	switch name {
	case "generic":
		return Generic{}, true
	case "monster":
		return &Monster{}, true
	case "player":
		return PlayerBody{}, true
	default:
		return nil, false
	}
}
