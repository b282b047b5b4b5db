package storage

import (
	"context"
	"errors"
	"sync"

	"backend-mapty/internal/db"

	"github.com/jackc/pgx/v5"
)

// Keys of the per-session snapshot.
const (
	KeyWorkouts  = "workouts"
	KeyCurrentID = "currentId"
	KeySort      = "sort"
)

// Store is a string key/value store scoped by session, shaped like browser
// local storage.
type Store interface {
	GetItem(ctx context.Context, sessionID, key string) (string, bool, error)
	SetItem(ctx context.Context, sessionID, key, value string) error
	RemoveItem(ctx context.Context, sessionID, key string) error
	Clear(ctx context.Context, sessionID string) error
}

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) GetItem(ctx context.Context, sessionID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx, `
		SELECT value FROM session_storage WHERE session_id=$1 AND key=$2
	`, sessionID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Service) SetItem(ctx context.Context, sessionID, key, value string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO session_storage (session_id, key, value)
		VALUES ($1,$2,$3)
		ON CONFLICT (session_id, key) DO UPDATE
		SET value=EXCLUDED.value, updated_at=now()
	`, sessionID, key, value)
	return err
}

func (s *Service) RemoveItem(ctx context.Context, sessionID, key string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM session_storage WHERE session_id=$1 AND key=$2`, sessionID, key)
	return err
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM session_storage WHERE session_id=$1`, sessionID)
	return err
}

// MemoryStore keeps items in process memory. It is used when Postgres is
// unavailable.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]map[string]string{}}
}

func (m *MemoryStore) GetItem(_ context.Context, sessionID, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[sessionID][key]
	return v, ok, nil
}

func (m *MemoryStore) SetItem(_ context.Context, sessionID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items[sessionID] == nil {
		m.items[sessionID] = map[string]string{}
	}
	m.items[sessionID][key] = value
	return nil
}

func (m *MemoryStore) RemoveItem(_ context.Context, sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items[sessionID], key)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, sessionID)
	return nil
}
