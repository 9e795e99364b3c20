package session

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// Manager keeps the open sessions of a process in memory. It is safe for
// concurrent use.
type Manager struct {
	cfg      Config
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager from configuration.
func NewManager(cfg *Config) *Manager {
	c := DefaultConfig()
	if cfg != nil {
		c.Merge(cfg)
	}
	return &Manager{cfg: c, sessions: make(map[string]*Session)}
}

// Add registers s. When the manager is at MaxSessions it first prunes idle
// sessions and returns ErrFull if none could be dropped.
func (m *Manager) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID()]; !exists && m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.prune(time.Now())
		if len(m.sessions) >= m.cfg.MaxSessions {
			return fmt.Errorf("%w: %d open", ErrFull, len(m.sessions))
		}
	}
	m.sessions[s.ID()] = s
	return nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Remove drops a session. Removing an unknown id is a no-op.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the open session ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Prune drops sessions idle for longer than the configured timeout as of now
// and returns their ids.
func (m *Manager) Prune(now time.Time) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prune(now)
}

func (m *Manager) prune(now time.Time) []string {
	ttl := m.cfg.IdleTTL()
	var dropped []string
	for id, s := range m.sessions {
		if now.Sub(s.LastUsed()) > ttl {
			delete(m.sessions, id)
			dropped = append(dropped, id)
		}
	}
	slices.Sort(dropped)
	return dropped
}
