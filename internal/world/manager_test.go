package world

import (
	"errors"
	"testing"
)

// fakeRegistry records player registrations and can be told to fail.
type fakeRegistry struct {
	calls [][2]int
	err   error
}

func (f *fakeRegistry) RegisterPlayer(managerID, entityID int) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, [2]int{managerID, entityID})
	return nil
}

// TestAddEntityAllocatesMonotonicIDs verifies ids are strictly increasing
// and the counter matches the count of entities ever added.
func TestAddEntityAllocatesMonotonicIDs(t *testing.T) {
	m := NewManager(1, nil)

	for want := 0; want < 5; want++ {
		id, err := m.AddEntity(NewEntity(TypeNPC, EntityOptions{}))
		if err != nil {
			t.Fatalf("AddEntity: %v", err)
		}
		if id != want {
			t.Errorf("expected id %d, got %d", want, id)
		}
	}
	if m.NextID() != 5 {
		t.Errorf("expected next id 5, got %d", m.NextID())
	}
	if m.Len() != 5 {
		t.Errorf("expected 5 entities, got %d", m.Len())
	}
}

// TestAddEntityStampsOwnership verifies id and manager id are stamped
// exactly once at registration.
func TestAddEntityStampsOwnership(t *testing.T) {
	m := NewManager(42, nil)
	e := NewEntity(TypeNPC, EntityOptions{})

	if _, ok := e.ID(); ok {
		t.Fatal("fresh entity should not report an id")
	}

	id, err := m.AddEntity(e)
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}

	gotID, ok := e.ID()
	if !ok || gotID != id {
		t.Errorf("expected stamped id %d, got %d (ok=%v)", id, gotID, ok)
	}
	mgrID, ok := e.ManagerID()
	if !ok || mgrID != 42 {
		t.Errorf("expected manager id 42, got %d (ok=%v)", mgrID, ok)
	}

	// Re-adding a stamped entity is rejected and allocates nothing.
	if _, err := m.AddEntity(e); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("expected ErrAlreadyRegistered, got %v", err)
	}
	if m.NextID() != 1 {
		t.Errorf("rejected add must not consume an id, next id is %d", m.NextID())
	}
}

// TestAddEntityRejectsNil verifies nil input fails with ErrInvalidArgument.
func TestAddEntityRejectsNil(t *testing.T) {
	m := NewManager(1, nil)
	if _, err := m.AddEntity(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

// TestPlayerRegistryNotification verifies the collaborator is called
// exactly once per player add, with (manager id, entity id), and never
// for NPCs.
func TestPlayerRegistryNotification(t *testing.T) {
	reg := &fakeRegistry{}
	m := NewManager(7, reg)

	if _, err := m.AddEntity(NewEntity(TypeNPC, EntityOptions{})); err != nil {
		t.Fatalf("add npc: %v", err)
	}
	if len(reg.calls) != 0 {
		t.Errorf("NPC add must not touch the registry, got %d calls", len(reg.calls))
	}

	id, err := m.AddEntity(NewEntity(TypePlayer, EntityOptions{Behavior: PlayerBody{}}))
	if err != nil {
		t.Fatalf("add player: %v", err)
	}
	if len(reg.calls) != 1 {
		t.Fatalf("expected exactly one registry call, got %d", len(reg.calls))
	}
	if reg.calls[0] != [2]int{7, id} {
		t.Errorf("expected call (7, %d), got %v", id, reg.calls[0])
	}
}

// TestPlayerRegistryFailureRollsBack verifies a failing registry call
// leaves the manager and the entity completely untouched.
func TestPlayerRegistryFailureRollsBack(t *testing.T) {
	boom := errors.New("registry down")
	reg := &fakeRegistry{err: boom}
	m := NewManager(1, reg)

	e := NewEntity(TypePlayer, EntityOptions{Behavior: PlayerBody{}})
	if _, err := m.AddEntity(e); !errors.Is(err, boom) {
		t.Fatalf("expected registry error to propagate, got %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("failed add must not store the entity, have %d", m.Len())
	}
	if m.NextID() != 0 {
		t.Errorf("failed add must not consume an id, next id is %d", m.NextID())
	}
	if _, ok := e.ID(); ok {
		t.Error("failed add must not stamp the entity")
	}

	// The same entity registers cleanly once the registry recovers.
	reg.err = nil
	if _, err := m.AddEntity(e); err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
}

// TestDeleteEntity verifies removal, NotFound on reuse, and that ids are
// never handed out again.
func TestDeleteEntity(t *testing.T) {
	m := NewManager(1, nil)
	id, _ := m.AddEntity(NewEntity(TypeNPC, EntityOptions{}))

	if err := m.DeleteEntity(id); err != nil {
		t.Fatalf("DeleteEntity: %v", err)
	}

	ops := []struct {
		name string
		call func() error
	}{
		{"GetEntity", func() error { _, err := m.GetEntity(id); return err }},
		{"DeleteEntity", func() error { return m.DeleteEntity(id) }},
		{"EntityPosition", func() error { _, err := m.EntityPosition(id); return err }},
		{"SetEntityPosition", func() error { return m.SetEntityPosition(id, Vec3{1, 2, 3}) }},
		{"UpdateAttribute", func() error { return m.UpdateAttribute(id, "hp", Int(10)) }},
		{"EntityAttributes", func() error { _, err := m.EntityAttributes(id); return err }},
		{"Event", func() error { return m.Event(id, EventDamage, Int(1)) }},
		{"UserEvent", func() error { return m.UserEvent(id, EventMove, Int(int64(ActionWest))) }},
	}
	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			if err := op.call(); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}

	next, err := m.AddEntity(NewEntity(TypeNPC, EntityOptions{}))
	if err != nil {
		t.Fatalf("AddEntity after delete: %v", err)
	}
	if next == id {
		t.Errorf("deleted id %d must never be reused", id)
	}
}

// TestPositionRoundTrip verifies set followed by get returns the same
// position.
func TestPositionRoundTrip(t *testing.T) {
	m := NewManager(1, nil)
	id, _ := m.AddEntity(NewEntity(TypeNPC, EntityOptions{}))

	want := Vec3{3.5, 0, -2.25}
	if err := m.SetEntityPosition(id, want); err != nil {
		t.Fatalf("SetEntityPosition: %v", err)
	}
	got, err := m.EntityPosition(id)
	if err != nil {
		t.Fatalf("EntityPosition: %v", err)
	}
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// TestAttributeOps verifies attribute updates delegate to the entity and
// reads return detached snapshots.
func TestAttributeOps(t *testing.T) {
	m := NewManager(1, nil)
	id, _ := m.AddEntity(NewEntity(TypeNPC, EntityOptions{}))

	if err := m.UpdateAttribute(id, "name", Str("Markus")); err != nil {
		t.Fatalf("UpdateAttribute: %v", err)
	}
	attrs, err := m.EntityAttributes(id)
	if err != nil {
		t.Fatalf("EntityAttributes: %v", err)
	}
	if name, _ := attrs.GetString("name"); name != "Markus" {
		t.Errorf("expected name Markus, got %q", name)
	}

	// Mutating the returned bag must not leak into the registry.
	attrs.Set("name", Str("Imposter"))
	again, _ := m.EntityAttributes(id)
	if name, _ := again.GetString("name"); name != "Markus" {
		t.Errorf("snapshot mutation leaked into the world: %q", name)
	}
}

// TestAllEntities verifies the whole-registry attribute snapshot.
func TestAllEntities(t *testing.T) {
	m := NewManager(1, nil)
	a, _ := m.AddEntity(NewEntity(TypeNPC, EntityOptions{Attributes: Attributes{"hp": Int(10)}}))
	b, _ := m.AddEntity(NewEntity(TypeNPC, EntityOptions{Attributes: Attributes{"hp": Int(20)}}))

	all := m.AllEntities()
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
	if hp, _ := all[a].GetInt("hp"); hp != 10 {
		t.Errorf("entity %d: expected hp 10, got %d", a, hp)
	}
	if hp, _ := all[b].GetInt("hp"); hp != 20 {
		t.Errorf("entity %d: expected hp 20, got %d", b, hp)
	}
}

// TestUserEventRouting verifies user events reach player-typed entities
// only.
func TestUserEventRouting(t *testing.T) {
	m := NewManager(1, nil)
	npc, _ := m.AddEntity(NewEntity(TypeNPC, EntityOptions{}))
	player, _ := m.AddEntity(NewEntity(TypePlayer, EntityOptions{Behavior: PlayerBody{}}))

	if err := m.UserEvent(npc, EventMove, Int(int64(ActionEast))); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for NPC target, got %v", err)
	}

	if err := m.UserEvent(player, EventMove, Int(int64(ActionEast))); err != nil {
		t.Fatalf("UserEvent: %v", err)
	}
	pos, _ := m.EntityPosition(player)
	if pos != (Vec3{1, 0, 0}) {
		t.Errorf("expected move east to (1,0,0), got %v", pos)
	}
}

// TestBroadcast verifies every registered entity receives the event
// exactly once and deleted entities receive nothing.
func TestBroadcast(t *testing.T) {
	m := NewManager(1, nil)

	ids := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		id, _ := m.AddEntity(NewEntity(TypeNPC, EntityOptions{Behavior: &Monster{Health: 10}}))
		ids = append(ids, id)
	}
	if err := m.DeleteEntity(ids[1]); err != nil {
		t.Fatalf("DeleteEntity: %v", err)
	}

	m.Broadcast(EventDamage, Int(3))

	for _, id := range []int{ids[0], ids[2]} {
		e, err := m.GetEntity(id)
		if err != nil {
			t.Fatalf("GetEntity(%d): %v", id, err)
		}
		monster := e.Behavior().(*Monster)
		if monster.Health != 7 {
			t.Errorf("entity %d: expected health 7 after one delivery, got %d", id, monster.Health)
		}
	}
}

// TestCallbacks verifies lifecycle hooks fire for spawn, despawn and
// event dispatch.
func TestCallbacks(t *testing.T) {
	m := NewManager(1, nil)

	var spawned, despawned []int
	var events []EventKind
	m.SetCallbacks(Callbacks{
		OnSpawn:   func(id int, _ *Entity) { spawned = append(spawned, id) },
		OnDespawn: func(id int) { despawned = append(despawned, id) },
		OnEvent:   func(_ int, kind EventKind, _ Value) { events = append(events, kind) },
	})

	id, _ := m.AddEntity(NewEntity(TypeNPC, EntityOptions{}))
	m.Event(id, EventTick, Int(1))
	m.Broadcast(EventHeal, Int(2))
	m.DeleteEntity(id)

	if len(spawned) != 1 || spawned[0] != id {
		t.Errorf("expected spawn hook for %d, got %v", id, spawned)
	}
	if len(despawned) != 1 || despawned[0] != id {
		t.Errorf("expected despawn hook for %d, got %v", id, despawned)
	}
	if len(events) != 2 || events[0] != EventTick || events[1] != EventHeal {
		t.Errorf("expected [tick heal] event hooks, got %v", events)
	}
}

// TestManagerScenario walks the reference scenario: NPC gets id 0,
// player gets id 1 and triggers register_player(7, 1), deleting 0 makes
// it unknown, and the next add returns 2.
func TestManagerScenario(t *testing.T) {
	reg := &fakeRegistry{}
	m := NewManager(7, reg)

	e1 := NewEntity(TypeNPC, EntityOptions{Level: 1})
	id1, err := m.AddEntity(e1)
	if err != nil || id1 != 0 {
		t.Fatalf("expected first id 0, got %d (%v)", id1, err)
	}

	e2 := NewEntity(TypePlayer, EntityOptions{Behavior: PlayerBody{}})
	id2, err := m.AddEntity(e2)
	if err != nil || id2 != 1 {
		t.Fatalf("expected second id 1, got %d (%v)", id2, err)
	}
	if len(reg.calls) != 1 || reg.calls[0] != [2]int{7, 1} {
		t.Fatalf("expected register_player(7, 1), got %v", reg.calls)
	}

	if err := m.DeleteEntity(0); err != nil {
		t.Fatalf("DeleteEntity(0): %v", err)
	}
	if _, err := m.EntityPosition(0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted entity, got %v", err)
	}

	id3, err := m.AddEntity(NewEntity(TypeNPC, EntityOptions{}))
	if err != nil || id3 != 2 {
		t.Fatalf("expected third id 2, got %d (%v)", id3, err)
	}
}

// TestGetEntityReturnsSnapshot verifies handed-out entities are detached
// from the registry.
func TestGetEntityReturnsSnapshot(t *testing.T) {
	m := NewManager(1, nil)
	id, _ := m.AddEntity(NewEntity(TypeNPC, EntityOptions{Attributes: Attributes{"hp": Int(5)}}))

	snap, err := m.GetEntity(id)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	snap.UpdateAttribute("hp", Int(999))
	snap.Position = Vec3{9, 9, 9}

	attrs, _ := m.EntityAttributes(id)
	if hp, _ := attrs.GetInt("hp"); hp != 5 {
		t.Errorf("snapshot attribute mutation leaked: hp=%d", hp)
	}
	pos, _ := m.EntityPosition(id)
	if pos != (Vec3{}) {
		t.Errorf("snapshot position mutation leaked: %v", pos)
	}
}
