// Package registry holds implementations of the external player
// registry the world manager announces new players to. The manager only
// sees the interface; process wiring decides whether calls cross the
// network or stay in memory.
package registry

import "sync"

// Memory is an in-process registry. It backs local runs and tests.
type Memory struct {
	mu      sync.Mutex
	players [][2]int
}

// NewMemory creates an empty in-process registry.
func NewMemory() *Memory {
	return &Memory{}
}

// RegisterPlayer records the (manager id, entity id) pair.
func (m *Memory) RegisterPlayer(managerID, entityID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players = append(m.players, [2]int{managerID, entityID})
	return nil
}

// Players returns a copy of every registration seen so far, in call
// order.
func (m *Memory) Players() [][2]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][2]int, len(m.players))
	copy(out, m.players)
	return out
}
