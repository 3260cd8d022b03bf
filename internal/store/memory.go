package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"atsoptimizer/internal/types"
)

// Memory keeps sessions and user profiles in process memory.
type Memory struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*types.Session
	users    map[string]*types.UserContext
	now      func() time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[uuid.UUID]*types.Session),
		users:    make(map[string]*types.UserContext),
		now:      time.Now,
	}
}

// UpdateSession creates the session on first write. Stored sessions never
// share memory with the caller's values.
func (m *Memory) UpdateSession(ctx context.Context, id uuid.UUID, update types.SessionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	s, ok := m.sessions[id]
	if !ok {
		s = &types.Session{ID: id, CreatedAt: now}
	}
	update.Apply(s)
	s.UpdatedAt = now

	stored, err := cloneSession(s)
	if err != nil {
		return err
	}
	m.sessions[id] = stored
	return nil
}

// GetSession returns a copy so callers cannot mutate stored state.
func (m *Memory) GetSession(ctx context.Context, id uuid.UUID) (*types.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return cloneSession(s)
}

func (m *Memory) GetUserContext(ctx context.Context, userID string) (*types.UserContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[userID].Clone(), nil
}

// PutUserContext stores a profile for userID.
func (m *Memory) PutUserContext(ctx context.Context, userID string, uc types.UserContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = uc.Clone()
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Stats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]any{
		"backend":  "memory",
		"sessions": len(m.sessions),
		"users":    len(m.users),
	}
}

func (m *Memory) Close() error { return nil }

func cloneSession(s *types.Session) (*types.Session, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, storageFailure("copy session", err)
	}
	var out types.Session
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, storageFailure("copy session", err)
	}
	return &out, nil
}
