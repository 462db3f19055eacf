// Package script embeds a Lua interpreter and exposes the entity
// manager to world scripts. Scripts drive spawning and event dispatch
// through a single `world` global.
package script

import (
	"math"

	"gridfall/internal/world"

	"github.com/Shopify/go-lua"
	"github.com/pkg/errors"
)

// World is the manager surface scripts are allowed to touch.
type World interface {
	Len() int
	AddEntity(e *world.Entity) (int, error)
	EntityPosition(id int) (world.Vec3, error)
	SetEntityPosition(id int, pos world.Vec3) error
	UpdateAttribute(id int, key string, value world.Value) error
	EntityAttributes(id int) (world.Attributes, error)
	Event(id int, kind world.EventKind, value world.Value) error
	Broadcast(kind world.EventKind, value world.Value)
}

// Host owns one Lua state bound to one manager. A Host is not safe for
// concurrent use; run scripts from a single goroutine.
type Host struct {
	state *lua.State
	mgr   World
}

// NewHost creates a Lua state with the standard libraries and the
// `world` table installed.
func NewHost(mgr World) *Host {
	h := &Host{
		state: lua.NewState(),
		mgr:   mgr,
	}
	lua.OpenLibraries(h.state)
	h.registerWorldTable()
	return h
}

// RunFile loads and executes a script from disk.
func (h *Host) RunFile(path string) error {
	if err := lua.LoadFile(h.state, path, ""); err != nil {
		return errors.Wrapf(err, "load script %s", path)
	}
	if err := h.state.ProtectedCall(0, 0, 0); err != nil {
		return errors.Wrapf(err, "run script %s", path)
	}
	return nil
}

// RunString executes a script given as source text.
func (h *Host) RunString(src string) error {
	if err := lua.LoadString(h.state, src); err != nil {
		return errors.Wrap(err, "load script")
	}
	if err := h.state.ProtectedCall(0, 0, 0); err != nil {
		return errors.Wrap(err, "run script")
	}
	return nil
}

func (h *Host) registerWorldTable() {
	fns := []lua.RegistryFunction{
		{Name: "spawn", Function: h.luaSpawn},
		{Name: "get_position", Function: h.luaGetPosition},
		{Name: "set_position", Function: h.luaSetPosition},
		{Name: "get_attribute", Function: h.luaGetAttribute},
		{Name: "set_attribute", Function: h.luaSetAttribute},
		{Name: "event", Function: h.luaEvent},
		{Name: "broadcast", Function: h.luaBroadcast},
		{Name: "entity_count", Function: h.luaEntityCount},
	}
	h.state.NewTable()
	lua.SetFunctions(h.state, fns, 0)
	h.state.SetGlobal("world")
}

// luaSpawn implements world.spawn(type [, opts]) -> id.
// opts may carry behavior, health, damage, level, position {x, y, z}
// and orientation {x, z}.
func (h *Host) luaSpawn(state *lua.State) int {
	typeName := lua.CheckString(state, 1)
	typ, err := world.ParseEntityType(typeName)
	if err != nil {
		lua.ArgumentError(state, 1, err.Error())
		return 0
	}

	opts := world.EntityOptions{}
	if !state.IsNoneOrNil(2) {
		lua.CheckType(state, 2, lua.TypeTable)

		behaviorName := tableString(state, 2, "behavior", "generic")
		switch behaviorName {
		case "generic":
			opts.Behavior = world.Generic{}
		case "monster":
			opts.Behavior = &world.Monster{
				Health: tableInt(state, 2, "health", 0),
				Damage: tableInt(state, 2, "damage", 0),
			}
		case "player":
			opts.Behavior = world.PlayerBody{}
		default:
			lua.ArgumentError(state, 2, "unknown behavior "+behaviorName)
			return 0
		}

		opts.Level = int(tableInt(state, 2, "level", 0))
		opts.Position = tableVec3(state, 2, "position")
		opts.Orientation = tableVec2(state, 2, "orientation")
	}

	id, err := h.mgr.AddEntity(world.NewEntity(typ, opts))
	if err != nil {
		lua.Errorf(state, "spawn: %s", err.Error())
		return 0
	}
	state.PushInteger(id)
	return 1
}

// luaGetPosition implements world.get_position(id) -> x, y, z.
func (h *Host) luaGetPosition(state *lua.State) int {
	id := lua.CheckInteger(state, 1)
	pos, err := h.mgr.EntityPosition(id)
	if err != nil {
		lua.Errorf(state, "get_position: %s", err.Error())
		return 0
	}
	state.PushNumber(float64(pos[0]))
	state.PushNumber(float64(pos[1]))
	state.PushNumber(float64(pos[2]))
	return 3
}

// luaSetPosition implements world.set_position(id, x, y, z).
func (h *Host) luaSetPosition(state *lua.State) int {
	id := lua.CheckInteger(state, 1)
	pos := world.Vec3{
		float32(lua.CheckNumber(state, 2)),
		float32(lua.CheckNumber(state, 3)),
		float32(lua.CheckNumber(state, 4)),
	}
	if err := h.mgr.SetEntityPosition(id, pos); err != nil {
		lua.Errorf(state, "set_position: %s", err.Error())
		return 0
	}
	return 0
}

// luaGetAttribute implements world.get_attribute(id, key) -> value or nil.
func (h *Host) luaGetAttribute(state *lua.State) int {
	id := lua.CheckInteger(state, 1)
	key := lua.CheckString(state, 2)

	attrs, err := h.mgr.EntityAttributes(id)
	if err != nil {
		lua.Errorf(state, "get_attribute: %s", err.Error())
		return 0
	}
	value, ok := attrs.Get(key)
	if !ok {
		state.PushNil()
		return 1
	}
	pushValue(state, value)
	return 1
}

// luaSetAttribute implements world.set_attribute(id, key, value).
func (h *Host) luaSetAttribute(state *lua.State) int {
	id := lua.CheckInteger(state, 1)
	key := lua.CheckString(state, 2)
	value, ok := toValue(state, 3)
	if !ok {
		lua.ArgumentError(state, 3, "expected number, string or boolean")
		return 0
	}

	if err := h.mgr.UpdateAttribute(id, key, value); err != nil {
		lua.Errorf(state, "set_attribute: %s", err.Error())
		return 0
	}
	return 0
}

// luaEvent implements world.event(id, kind [, value]).
func (h *Host) luaEvent(state *lua.State) int {
	id := lua.CheckInteger(state, 1)
	kind, err := world.ParseEventKind(lua.CheckString(state, 2))
	if err != nil {
		lua.ArgumentError(state, 2, err.Error())
		return 0
	}
	value, _ := toValue(state, 3)

	if err := h.mgr.Event(id, kind, value); err != nil {
		lua.Errorf(state, "event: %s", err.Error())
		return 0
	}
	return 0
}

// luaBroadcast implements world.broadcast(kind [, value]).
func (h *Host) luaBroadcast(state *lua.State) int {
	kind, err := world.ParseEventKind(lua.CheckString(state, 1))
	if err != nil {
		lua.ArgumentError(state, 1, err.Error())
		return 0
	}
	value, _ := toValue(state, 2)

	h.mgr.Broadcast(kind, value)
	return 0
}

// luaEntityCount implements world.entity_count() -> n.
func (h *Host) luaEntityCount(state *lua.State) int {
	state.PushInteger(h.mgr.Len())
	return 1
}

// toValue converts the Lua value at index into an attribute value.
// Integral numbers become int values, other numbers float.
func toValue(state *lua.State, index int) (world.Value, bool) {
	switch state.TypeOf(index) {
	case lua.TypeNumber:
		n, _ := state.ToNumber(index)
		if math.Mod(n, 1) == 0 {
			return world.Int(int64(n)), true
		}
		return world.Float(n), true
	case lua.TypeString:
		s, _ := state.ToString(index)
		return world.Str(s), true
	case lua.TypeBoolean:
		return world.Bool(state.ToBoolean(index)), true
	default:
		return world.Value{}, false
	}
}

// pushValue pushes an attribute value onto the Lua stack.
func pushValue(state *lua.State, v world.Value) {
	switch v.Kind() {
	case world.KindInt:
		n, _ := v.Int()
		state.PushInteger(int(n))
	case world.KindFloat:
		f, _ := v.Float()
		state.PushNumber(f)
	case world.KindBool:
		b, _ := v.Bool()
		state.PushBoolean(b)
	case world.KindStr:
		s, _ := v.Str()
		state.PushString(s)
	default:
		state.PushNil()
	}
}

func tableString(state *lua.State, index int, key, fallback string) string {
	state.Field(index, key)
	defer state.Pop(1)
	if state.TypeOf(-1) != lua.TypeString {
		return fallback
	}
	s, _ := state.ToString(-1)
	return s
}

func tableInt(state *lua.State, index int, key string, fallback int64) int64 {
	state.Field(index, key)
	defer state.Pop(1)
	if state.TypeOf(-1) != lua.TypeNumber {
		return fallback
	}
	n, _ := state.ToInteger(-1)
	return int64(n)
}

func tableVec3(state *lua.State, index int, key string) world.Vec3 {
	var out world.Vec3
	state.Field(index, key)
	defer state.Pop(1)
	if state.TypeOf(-1) != lua.TypeTable {
		return out
	}
	for i := 0; i < 3; i++ {
		state.RawGetInt(-1, i+1)
		if n, ok := state.ToNumber(-1); ok {
			out[i] = float32(n)
		}
		state.Pop(1)
	}
	return out
}

func tableVec2(state *lua.State, index int, key string) world.Vec2 {
	var out world.Vec2
	state.Field(index, key)
	defer state.Pop(1)
	if state.TypeOf(-1) != lua.TypeTable {
		return out
	}
	for i := 0; i < 2; i++ {
		state.RawGetInt(-1, i+1)
		if n, ok := state.ToNumber(-1); ok {
			out[i] = float32(n)
		}
		state.Pop(1)
	}
	return out
}
