package app

import (
	"context"
	"sync"
	"time"

	"backend-mapty/internal/storage"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Manager hands out one controller per session, creating and loading it on
// first use.
type Manager struct {
	deps Deps
	idle time.Duration

	mu       sync.Mutex
	sessions map[string]*Controller
}

func NewManager(deps Deps, idle time.Duration) *Manager {
	return &Manager{
		deps:     deps.withDefaults(),
		idle:     idle,
		sessions: map[string]*Controller{},
	}
}

func (m *Manager) Get(ctx context.Context, sessionID string) (*Controller, error) {
	m.mu.Lock()
	c, ok := m.sessions[sessionID]
	if !ok {
		c = NewController(sessionID, m.deps)
		m.sessions[sessionID] = c
	}
	c.mu.Lock()
	c.touch()
	c.mu.Unlock()
	m.mu.Unlock()

	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Store is the storage shared by every session.
func (m *Manager) Store() storage.Store {
	return m.deps.Store
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// EvictIdle drops controllers untouched since now-idle. Their state stays in
// storage and is restored on the next request.
func (m *Manager) EvictIdle(now time.Time) int {
	if m.idle <= 0 {
		return 0
	}
	m.mu.Lock()
	var evicted []*Controller
	for id, c := range m.sessions {
		if now.Sub(c.idleSince()) >= m.idle {
			evicted = append(evicted, c)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, c := range evicted {
		c.Close()
	}
	if len(evicted) > 0 {
		m.deps.Log.Info("evicted idle sessions", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// StartJanitor runs EvictIdle on the given cron schedule. The caller stops
// the returned cron.
func (m *Manager) StartJanitor(schedule string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { m.EvictIdle(m.deps.Now()) }); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// Close shuts down every controller.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[string]*Controller{}
	m.mu.Unlock()

	for _, c := range sessions {
		c.Close()
	}
}
