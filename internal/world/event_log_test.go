package world

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestEventLogWritesRecords verifies emitted records land in the JSONL
// file with sequence numbers intact.
func TestEventLogWritesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.jsonl")

	el := NewEventLog()
	if err := el.Start(path); err != nil {
		t.Fatalf("Start: %v", err)
	}

	el.Emit(Record{Kind: RecordSpawn, ManagerID: 1, EntityID: 0})
	el.Emit(Record{Kind: RecordEvent, ManagerID: 1, EntityID: 0, Event: "damage", Value: "5"})
	el.Emit(Record{Kind: RecordDespawn, ManagerID: 1, EntityID: 0})
	el.Stop()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("bad log line %q: %v", scanner.Text(), err)
		}
		records = append(records, rec)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	kinds := []RecordKind{RecordSpawn, RecordEvent, RecordDespawn}
	for i, rec := range records {
		if rec.Kind != kinds[i] {
			t.Errorf("record %d: expected kind %s, got %s", i, kinds[i], rec.Kind)
		}
		if rec.Sequence != uint64(i) {
			t.Errorf("record %d: expected sequence %d, got %d", i, i, rec.Sequence)
		}
		if rec.Version != recordVersion {
			t.Errorf("record %d: expected version %d, got %d", i, recordVersion, rec.Version)
		}
	}
	if records[1].Event != "damage" || records[1].Value != "5" {
		t.Errorf("event record lost its payload: %+v", records[1])
	}
}

// TestEventLogRefusesWhenStopped verifies Emit is a no-op before Start
// and after Stop.
func TestEventLogRefusesWhenStopped(t *testing.T) {
	el := NewEventLog()
	if el.Emit(Record{Kind: RecordSpawn}) {
		t.Error("Emit before Start must refuse")
	}

	if err := el.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !el.Emit(Record{Kind: RecordSpawn}) {
		t.Error("Emit while running must accept")
	}
	el.Stop()

	if el.Emit(Record{Kind: RecordSpawn}) {
		t.Error("Emit after Stop must refuse")
	}
}

// TestEventLogHooks verifies the manager callback bridge records spawn,
// dispatch and despawn.
func TestEventLogHooks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hooks.jsonl")

	el := NewEventLog()
	if err := el.Start(path); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m := NewManager(5, nil)
	m.SetCallbacks(el.Hooks(m.ID()))

	id, _ := m.AddEntity(NewEntity(TypeNPC, EntityOptions{Behavior: &Monster{Health: 3}}))
	m.Event(id, EventDamage, Int(1))
	m.DeleteEntity(id)

	// Allow one flush interval before stopping.
	time.Sleep(150 * time.Millisecond)
	el.Stop()

	stats := el.Stats()
	if total := stats["total"].(uint64); total != 3 {
		t.Errorf("expected 3 records, total=%d", total)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected flushed records on disk")
	}
}
