package world

import "fmt"

// EventKind classifies lifecycle and input events delivered to entities.
type EventKind uint8

const (
	EventUnknown EventKind = iota
	EventTick              // world heartbeat, value carries the tick number
	EventDamage            // value carries the damage amount
	EventHeal              // value carries the heal amount
	EventMove              // value carries an Action wire code
	EventDefeat            // emitted when a monster's health reaches zero
)

// String returns a human-readable event kind.
func (k EventKind) String() string {
	switch k {
	case EventTick:
		return "tick"
	case EventDamage:
		return "damage"
	case EventHeal:
		return "heal"
	case EventMove:
		return "move"
	case EventDefeat:
		return "defeat"
	default:
		return "unknown"
	}
}

// ParseEventKind resolves an event kind from its name.
func ParseEventKind(s string) (EventKind, error) {
	switch s {
	case "tick":
		return EventTick, nil
	case "damage":
		return EventDamage, nil
	case "heal":
		return EventHeal, nil
	case "move":
		return EventMove, nil
	case "defeat":
		return EventDefeat, nil
	default:
		return EventUnknown, fmt.Errorf("unknown event kind %q", s)
	}
}
