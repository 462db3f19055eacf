package world

import (
	"encoding/json"
)

// Serialized blobs carry an explicit schema name and version instead of
// an opaque language-native object graph. Bit-exact compatibility across
// implementations is not promised; round-trip fidelity within this one
// is.
const (
	entitySchema  = "gridfall/entity"
	managerSchema = "gridfall/manager"
	schemaVersion = 1
)

type envelope struct {
	Schema  string          `json:"schema"`
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// behaviorRecord is the persisted form of a behavior variant.
type behaviorRecord struct {
	Name   string `json:"name"`
	Health int64  `json:"health,omitempty"`
	Damage int64  `json:"damage,omitempty"`
}

// entityRecord is the persisted form of an entity's complete field set.
type entityRecord struct {
	ID          int            `json:"id"`
	ManagerID   int            `json:"managerId"`
	Registered  bool           `json:"registered"`
	Type        string         `json:"type"`
	Behavior    behaviorRecord `json:"behavior"`
	Position    [3]float32     `json:"position"`
	Orientation [2]float32     `json:"orientation"`
	Level       int            `json:"level"`
	Attributes  Attributes     `json:"attributes"`
}

// managerRecord is the persisted form of a manager and its collection.
type managerRecord struct {
	ID       int            `json:"id"`
	NextID   int            `json:"nextId"`
	Entities []entityRecord `json:"entities"`
}

func recordBehavior(b Behavior) behaviorRecord {
	rec := behaviorRecord{Name: b.Name()}
	if m, ok := b.(*Monster); ok {
		rec.Health = m.Health
		rec.Damage = m.Damage
	}
	return rec
}

func restoreBehavior(rec behaviorRecord) (Behavior, bool) {
	b, ok := behaviorByName(rec.Name)
	if !ok {
		return nil, false
	}
	if m, ok := b.(*Monster); ok {
		m.Health = rec.Health
		m.Damage = rec.Damage
	}
	return b, true
}

func recordEntity(e *Entity) entityRecord {
	return entityRecord{
		ID:          e.id,
		ManagerID:   e.managerID,
		Registered:  e.registered,
		Type:        e.typ.String(),
		Behavior:    recordBehavior(e.behavior),
		Position:    e.Position,
		Orientation: e.Orientation,
		Level:       e.level,
		Attributes:  e.attrs,
	}
}

func restoreEntity(rec entityRecord) (*Entity, error) {
	typ, err := ParseEntityType(rec.Type)
	if err != nil {
		return nil, decodeErr(entitySchema, "%v", err)
	}
	behavior, ok := restoreBehavior(rec.Behavior)
	if !ok {
		return nil, decodeErr(entitySchema, "unknown behavior %q", rec.Behavior.Name)
	}
	level := rec.Level
	if level < 1 {
		level = 1
	}
	attrs := rec.Attributes
	if attrs == nil {
		attrs = make(Attributes)
	}
	return &Entity{
		id:          rec.ID,
		managerID:   rec.ManagerID,
		registered:  rec.Registered,
		typ:         typ,
		behavior:    behavior,
		Position:    rec.Position,
		Orientation: rec.Orientation,
		level:       level,
		attrs:       attrs,
	}, nil
}

func sealEnvelope(schema string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Schema: schema, Version: schemaVersion, Data: raw})
}

func openEnvelope(schema string, blob []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, &DecodeError{Schema: schema, Err: err}
	}
	if env.Schema != schema {
		return nil, decodeErr(schema, "unexpected schema %q", env.Schema)
	}
	if env.Version != schemaVersion {
		return nil, decodeErr(schema, "unsupported version %d", env.Version)
	}
	return env.Data, nil
}

// Serialize encodes the entity's complete field set as a self-describing
// blob.
func (e *Entity) Serialize() ([]byte, error) {
	return sealEnvelope(entitySchema, recordEntity(e))
}

// DeserializeEntity is the inverse of Entity.Serialize.
func DeserializeEntity(blob []byte) (*Entity, error) {
	data, err := openEnvelope(entitySchema, blob)
	if err != nil {
		return nil, err
	}
	var rec entityRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &DecodeError{Schema: entitySchema, Err: err}
	}
	return restoreEntity(rec)
}

// Serialize encodes the manager's id, id counter and full entity
// collection as a self-describing blob.
func (m *Manager) Serialize() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec := managerRecord{ID: m.id, NextID: m.nextID}
	rec.Entities = make([]entityRecord, 0, len(m.entities))
	for _, e := range m.entities {
		rec.Entities = append(rec.Entities, recordEntity(e))
	}
	return sealEnvelope(managerSchema, rec)
}

// Restore replaces the manager's identity, counter and entity
// collection with the contents of a serialized blob. On failure the
// manager keeps its current state.
func (m *Manager) Restore(blob []byte) error {
	restored, err := DeserializeManager(blob, m.registry)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = restored.id
	m.nextID = restored.nextID
	m.entities = restored.entities
	return nil
}

// DeserializeManager is the inverse of Manager.Serialize. Restoring does
// not replay player-registry notifications; the blob describes entities
// that were already announced when first added.
func DeserializeManager(blob []byte, registry PlayerRegistry) (*Manager, error) {
	data, err := openEnvelope(managerSchema, blob)
	if err != nil {
		return nil, err
	}
	var rec managerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &DecodeError{Schema: managerSchema, Err: err}
	}
	m := NewManager(rec.ID, registry)
	m.nextID = rec.NextID
	for _, er := range rec.Entities {
		e, err := restoreEntity(er)
		if err != nil {
			return nil, err
		}
		if !e.registered {
			return nil, decodeErr(managerSchema, "entity %d stored unregistered", er.ID)
		}
		if e.id >= rec.NextID {
			return nil, decodeErr(managerSchema, "entity id %d outside counter range %d", e.id, rec.NextID)
		}
		if _, dup := m.entities[e.id]; dup {
			return nil, decodeErr(managerSchema, "duplicate entity id %d", e.id)
		}
		m.entities[e.id] = e
	}
	return m, nil
}
