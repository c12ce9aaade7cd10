package connections

import (
	"context"
	"sync"
)

// Manager tracks open event streams so shutdown can report and, when the
// drain deadline passes, cancel them
type Manager struct {
	connections sync.Map
}

func NewManager() *Manager {
	return &Manager{}
}

// Track registers a stream under id. The returned context is cancelled by
// CancelAll; release must be called when the stream ends.
func (m *Manager) Track(ctx context.Context, id string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	m.connections.Store(id, cancel)

	return ctx, func() {
		m.connections.Delete(id)
		cancel()
	}
}

// GetConnectionCount returns the current number of active streams
func (m *Manager) GetConnectionCount() int {
	count := 0
	m.connections.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}

// HasConnection checks if a specific stream is open
func (m *Manager) HasConnection(id string) bool {
	_, exists := m.connections.Load(id)
	return exists
}

// CancelAll cancels every tracked stream and returns how many there were
func (m *Manager) CancelAll() int {
	count := 0
	m.connections.Range(func(key, value interface{}) bool {
		value.(context.CancelFunc)()
		count++
		return true
	})
	return count
}
