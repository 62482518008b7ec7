package wizard

import (
	"sync"

	"github.com/google/uuid"
)

// Manager tracks the wizard sessions of a running server.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Wizard
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Wizard)}
}

func (m *Manager) Create() *Wizard {
	id := uuid.NewString()
	w := New(id)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = w
	return w
}

func (m *Manager) Get(id string) (*Wizard, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.sessions[id]
	return w, ok
}

func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
