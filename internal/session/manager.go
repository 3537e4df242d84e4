package session

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rag-file-chatbot/backend/internal/models"
)

// DefaultMaxSessions limits concurrent sessions to bound memory use.
const DefaultMaxSessions = 100

// SessionKeepAliveWindow protects recently used sessions from cleanup.
const SessionKeepAliveWindow = 5 * time.Minute

// Manager owns the live chat sessions.
type Manager struct {
	sessions    map[string]*SessionState
	mu          sync.RWMutex
	cfg         Config
	maxSessions int
	onRemove    func(id string)
}

// SessionState pairs a controller with its access bookkeeping.
type SessionState struct {
	Controller   *Controller
	LastAccessed time.Time
}

// NewManager creates a session manager.
func NewManager(cfg Config, maxSessions int) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		sessions:    make(map[string]*SessionState),
		cfg:         cfg,
		maxSessions: maxSessions,
	}
}

// OnRemove registers a callback run after a session is dropped.
func (m *Manager) OnRemove(fn func(id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRemove = fn
}

// Create starts a new empty session, evicting the least recently used idle
// session when at capacity.
func (m *Manager) Create() *Controller {
	m.evictIfNeeded()

	c := NewController(uuid.New().String(), m.cfg)

	m.mu.Lock()
	m.sessions[c.ID()] = &SessionState{Controller: c, LastAccessed: time.Now()}
	m.mu.Unlock()

	return c
}

// Get returns a session and marks it as used.
func (m *Manager) Get(id string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	state.LastAccessed = time.Now()
	return state.Controller, true
}

// Touch updates the LastAccessed timestamp for a session.
func (m *Manager) Touch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.LastAccessed = time.Now()
	return true
}

// Info returns the summary of a session.
func (m *Manager) Info(id string) (models.SessionInfo, bool) {
	m.mu.RLock()
	state, ok := m.sessions[id]
	var last time.Time
	if ok {
		last = state.LastAccessed
	}
	m.mu.RUnlock()
	if !ok {
		return models.SessionInfo{}, false
	}
	info := state.Controller.Info()
	info.LastAccessed = last
	return info, true
}

// List returns summaries of all sessions, most recently used first.
func (m *Manager) List() []models.SessionInfo {
	m.mu.RLock()
	out := make([]models.SessionInfo, 0, len(m.sessions))
	for _, state := range m.sessions {
		info := state.Controller.Info()
		info.LastAccessed = state.LastAccessed
		out = append(out, info)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastAccessed.After(out[j].LastAccessed)
	})
	return out
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Delete drops a session and its uploaded files.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	onRemove := m.onRemove
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.release(state.Controller, onRemove)
	return nil
}

// CleanupOldSessions removes idle sessions not used within maxAge and
// returns how many were removed.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var removed []*Controller
	for id, state := range m.sessions {
		if state.Controller.Status() != models.SessionStatusIdle {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			removed = append(removed, state.Controller)
		}
	}
	onRemove := m.onRemove
	m.mu.Unlock()

	for _, c := range removed {
		m.release(c, onRemove)
		m.cfg.Logger.Info("cleaned up aged session", "session", c.ID())
	}
	return len(removed)
}

// evictIfNeeded removes least recently used idle sessions until a new one
// fits. Sessions inside the keep-alive window are never evicted.
func (m *Manager) evictIfNeeded() {
	m.mu.Lock()
	if len(m.sessions) < m.maxSessions {
		m.mu.Unlock()
		return
	}

	type candidate struct {
		id   string
		last time.Time
	}
	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)
	var candidates []candidate
	for id, state := range m.sessions {
		if state.Controller.Status() != models.SessionStatusIdle || state.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		candidates = append(candidates, candidate{id, state.LastAccessed})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].last.Before(candidates[j].last) })

	toFree := len(m.sessions) - m.maxSessions + 1
	var removed []*Controller
	for _, cand := range candidates {
		if len(removed) >= toFree {
			break
		}
		removed = append(removed, m.sessions[cand.id].Controller)
		delete(m.sessions, cand.id)
	}
	onRemove := m.onRemove
	m.mu.Unlock()

	for _, c := range removed {
		m.release(c, onRemove)
		m.cfg.Logger.Info("evicted session to stay under limit", "session", c.ID())
	}
}

func (m *Manager) release(c *Controller, onRemove func(string)) {
	c.Close()
	if onRemove != nil {
		onRemove(c.ID())
	}
}
