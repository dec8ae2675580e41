package session

import (
	"context"
	"sync"

	"github.com/finote/finote/internal/event_bus"
	"github.com/finote/finote/internal/utils"
	"github.com/finote/finote/pkg/vault"
)

// Manager tracks at most one live session per user id. The design
// assumes a single interactive writer per user; the manager only keeps
// concurrent logins of different users apart.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	vault vault.Vault
	clock utils.Clock
	bus   *event_bus.EventBus
}

func NewManager(v vault.Vault, clock utils.Clock, bus *event_bus.EventBus) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		vault:    v,
		clock:    clock,
		bus:      bus,
	}
}

// Login creates and initializes a session for the user. Logging in while
// a session is already active returns ErrActiveSession.
func (m *Manager) Login(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	if _, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return nil, ErrActiveSession
	}
	s := NewSession(m.vault, m.clock, m.bus)
	m.sessions[userID] = s
	m.mu.Unlock()

	if err := s.Login(ctx, userID); err != nil {
		m.mu.Lock()
		delete(m.sessions, userID)
		m.mu.Unlock()
		return nil, err
	}
	return s, nil
}

// Get returns the live session for the user, if any.
func (m *Manager) Get(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Logout flushes and discards the user's session. Unknown users are a
// no-op; logout is always honored.
func (m *Manager) Logout(ctx context.Context, userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		s.Logout(ctx)
	}
}

// DirtyUsers lists users whose durable state is behind memory.
func (m *Manager) DirtyUsers() []string {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	var dirty []string
	for _, s := range sessions {
		if s.Dirty() {
			dirty = append(dirty, s.UserID())
		}
	}
	return dirty
}
