package world

import (
	"strings"
	"testing"
)

// TestNewEntityDefaults verifies the documented construction defaults.
func TestNewEntityDefaults(t *testing.T) {
	e := NewEntity(TypeNPC, EntityOptions{})

	if _, ok := e.ID(); ok {
		t.Error("fresh entity must be unregistered")
	}
	if _, ok := e.ManagerID(); ok {
		t.Error("fresh entity must have no owning manager")
	}
	if e.Type() != TypeNPC {
		t.Errorf("expected type npc, got %s", e.Type())
	}
	if e.Position != (Vec3{}) {
		t.Errorf("expected origin position, got %v", e.Position)
	}
	if e.Orientation != (Vec2{1, 0}) {
		t.Errorf("expected default facing (1,0), got %v", e.Orientation)
	}
	if e.Level() != 1 {
		t.Errorf("expected default level 1, got %d", e.Level())
	}
	if len(e.AllAttributes()) != 0 {
		t.Errorf("expected empty attribute bag, got %v", e.AllAttributes())
	}
	if e.Behavior().Name() != "generic" {
		t.Errorf("expected generic behavior, got %s", e.Behavior().Name())
	}
}

// TestSetLevelClamps verifies the level never drops below 1.
func TestSetLevelClamps(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"zero clamps", 0, 1},
		{"negative clamps", -3, 1},
		{"positive kept", 12, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEntity(TypeNPC, EntityOptions{})
			e.SetLevel(tt.in)
			if e.Level() != tt.want {
				t.Errorf("SetLevel(%d): expected %d, got %d", tt.in, tt.want, e.Level())
			}
		})
	}
}

// TestAttributeBagIsolation verifies construction copies the provided
// bag and reads return snapshots.
func TestAttributeBagIsolation(t *testing.T) {
	seed := Attributes{"hp": Int(50)}
	e := NewEntity(TypeNPC, EntityOptions{Attributes: seed})

	seed.Set("hp", Int(0))
	if hp, _ := e.AllAttributes().GetInt("hp"); hp != 50 {
		t.Errorf("constructor must copy the bag, hp=%d", hp)
	}

	out := e.AllAttributes()
	out.Set("hp", Int(1))
	if hp, _ := e.AllAttributes().GetInt("hp"); hp != 50 {
		t.Errorf("AllAttributes must return a copy, hp=%d", hp)
	}
}

// TestMonsterDamage verifies damage events drain health and defeat is
// detected when it reaches zero.
func TestMonsterDamage(t *testing.T) {
	monster := &Monster{Health: 10, Damage: 4}
	e := NewEntity(TypeNPC, EntityOptions{Behavior: monster})

	e.Event(EventDamage, Int(6))
	if monster.Health != 4 {
		t.Errorf("expected health 4, got %d", monster.Health)
	}
	if monster.Defeated() {
		t.Error("monster should not be defeated yet")
	}

	e.Event(EventDamage, Int(6))
	if !monster.Defeated() {
		t.Error("monster should be defeated at health <= 0")
	}
	if defeated, _ := e.AllAttributes().GetBool("defeated"); !defeated {
		t.Error("defeat must be recorded on the attribute bag")
	}

	// A defeated monster ignores further events.
	e.Event(EventHeal, Int(100))
	if monster.Health > 0 {
		t.Errorf("defeated monster must ignore events, health=%d", monster.Health)
	}
}

// TestMonsterHeal verifies heal events restore health.
func TestMonsterHeal(t *testing.T) {
	monster := &Monster{Health: 5}
	e := NewEntity(TypeNPC, EntityOptions{Behavior: monster})

	e.Event(EventHeal, Int(3))
	if monster.Health != 8 {
		t.Errorf("expected health 8, got %d", monster.Health)
	}
}

// TestGenericEntityIgnoresEvents verifies the default hooks are no-ops.
func TestGenericEntityIgnoresEvents(t *testing.T) {
	e := NewEntity(TypeNPC, EntityOptions{})
	before := e.Position

	e.Event(EventDamage, Int(100))
	e.UserEvent(EventMove, Int(int64(ActionNorth)))

	if e.Position != before {
		t.Errorf("generic entity must not react, position moved to %v", e.Position)
	}
}

// TestPlayerBodyMove verifies move actions step position and turn the
// facing vector.
func TestPlayerBodyMove(t *testing.T) {
	tests := []struct {
		name       string
		action     Action
		wantPos    Vec3
		wantFacing Vec2
	}{
		{"west", ActionWest, Vec3{-1, 0, 0}, Vec2{-1, 0}},
		{"north", ActionNorth, Vec3{0, 0, -1}, Vec2{0, -1}},
		{"east", ActionEast, Vec3{1, 0, 0}, Vec2{1, 0}},
		{"south", ActionSouth, Vec3{0, 0, 1}, Vec2{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEntity(TypePlayer, EntityOptions{Behavior: PlayerBody{}})
			e.UserEvent(EventMove, Int(int64(tt.action)))
			if e.Position != tt.wantPos {
				t.Errorf("expected position %v, got %v", tt.wantPos, e.Position)
			}
			if e.Orientation != tt.wantFacing {
				t.Errorf("expected facing %v, got %v", tt.wantFacing, e.Orientation)
			}
		})
	}
}

// TestPlayerBodyIgnoresNoneAction verifies ActionNone leaves the entity
// in place with its facing untouched.
func TestPlayerBodyIgnoresNoneAction(t *testing.T) {
	e := NewEntity(TypePlayer, EntityOptions{Behavior: PlayerBody{}})
	e.UserEvent(EventMove, Int(int64(ActionNone)))

	if e.Position != (Vec3{}) {
		t.Errorf("none action moved the entity to %v", e.Position)
	}
	if e.Orientation != (Vec2{1, 0}) {
		t.Errorf("none action turned the entity to %v", e.Orientation)
	}
}

// TestDebugOutput does a light sanity check on the diagnostic dump; the
// format itself carries no contract.
func TestDebugOutput(t *testing.T) {
	e := NewEntity(TypeNPC, EntityOptions{Attributes: Attributes{"name": Str("Markus")}})

	out := e.Debug()
	if !strings.Contains(out, "unregistered") {
		t.Errorf("expected unregistered marker in %q", out)
	}
	if !strings.Contains(out, "Markus") {
		t.Errorf("expected attribute value in %q", out)
	}
}
