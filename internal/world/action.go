package world

import "fmt"

// Action is a movement intent carried as an event payload. The integer
// codes are part of the wire contract and must stay stable.
type Action uint8

const (
	ActionNone Action = iota
	ActionWest
	ActionNorth
	ActionEast
	ActionSouth
)

// String returns the lower-case name of the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionWest:
		return "west"
	case ActionNorth:
		return "north"
	case ActionEast:
		return "east"
	case ActionSouth:
		return "south"
	default:
		return "unknown"
	}
}

// ParseAction resolves an action from its name.
func ParseAction(s string) (Action, error) {
	switch s {
	case "none":
		return ActionNone, nil
	case "west":
		return ActionWest, nil
	case "north":
		return ActionNorth, nil
	case "east":
		return ActionEast, nil
	case "south":
		return ActionSouth, nil
	default:
		return ActionNone, fmt.Errorf("unknown action %q", s)
	}
}

// ActionFromCode resolves an action from its wire code.
func ActionFromCode(code int64) (Action, bool) {
	if code < 0 || code > int64(ActionSouth) {
		return ActionNone, false
	}
	return Action(code), true
}

// Delta returns the world-space step for the action on the XZ plane.
func (a Action) Delta() Vec3 {
	switch a {
	case ActionWest:
		return Vec3{-1, 0, 0}
	case ActionEast:
		return Vec3{1, 0, 0}
	case ActionNorth:
		return Vec3{0, 0, -1}
	case ActionSouth:
		return Vec3{0, 0, 1}
	default:
		return Vec3{}
	}
}

// Facing returns the XZ orientation for the action. ok is false for
// ActionNone, which leaves the current facing untouched.
func (a Action) Facing() (Vec2, bool) {
	switch a {
	case ActionWest:
		return Vec2{-1, 0}, true
	case ActionEast:
		return Vec2{1, 0}, true
	case ActionNorth:
		return Vec2{0, -1}, true
	case ActionSouth:
		return Vec2{0, 1}, true
	default:
		return Vec2{}, false
	}
}
