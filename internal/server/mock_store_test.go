package server

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/openclaw/missionctl/internal/model"
	"github.com/openclaw/missionctl/internal/store"
)

// mockStore is an in-memory store.Store for exercising export logic.
type mockStore struct {
	mu       sync.RWMutex
	agents   map[string]*model.Agent
	boards   map[string]*model.Board
	gateways map[string]*model.Gateway
	tasks    map[string]*model.Task
	messages []*model.BoardMessage
}

func newMockStore() *mockStore {
	return &mockStore{
		agents:   make(map[string]*model.Agent),
		boards:   make(map[string]*model.Board),
		gateways: make(map[string]*model.Gateway),
		tasks:    make(map[string]*model.Task),
	}
}

func (m *mockStore) CreateAgent(_ context.Context, agent *model.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents[agent.ID] = agent
	return nil
}

func (m *mockStore) GetAgent(_ context.Context, id string) (*model.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agents[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (m *mockStore) ListAgents(_ context.Context, boardID string) ([]*model.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Agent
	for _, a := range m.agents {
		if boardID != "" && (a.BoardID == nil || *a.BoardID != boardID) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *mockStore) ListAgentsByBoards(_ context.Context, boardIDs []string) ([]*model.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[string]bool, len(boardIDs))
	for _, id := range boardIDs {
		want[id] = true
	}
	var out []*model.Agent
	for _, a := range m.agents {
		if a.BoardID != nil && want[*a.BoardID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) FindAgentBySessionKey(_ context.Context, sessionKey string) (*model.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.agents {
		if a.SessionKey != nil && *a.SessionKey == sessionKey {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockStore) FindAgentByName(_ context.Context, name string) (*model.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.agents {
		if strings.EqualFold(a.Name, name) {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockStore) UpdateAgent(_ context.Context, agent *model.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agents[agent.ID]; !ok {
		return sql.ErrNoRows
	}
	m.agents[agent.ID] = agent
	return nil
}

func (m *mockStore) DeleteAgent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agents[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.agents, id)
	return nil
}

func (m *mockStore) SetAgentTokenHash(_ context.Context, agentID, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[agentID]
	if !ok {
		return sql.ErrNoRows
	}
	a.TokenHash = &tokenHash
	return nil
}

func (m *mockStore) TouchAgentLastSeen(_ context.Context, agentID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[agentID]
	if !ok {
		return sql.ErrNoRows
	}
	a.LastSeenAt = &at
	return nil
}

func (m *mockStore) ListAgentsWithTokens(_ context.Context) ([]*model.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Agent
	for _, a := range m.agents {
		if a.TokenHash != nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) CreateBoard(_ context.Context, board *model.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards[board.ID] = board
	return nil
}

func (m *mockStore) GetBoard(_ context.Context, id string) (*model.Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.boards[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return b, nil
}

func (m *mockStore) ListBoards(_ context.Context) ([]*model.Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Board
	for _, b := range m.boards {
		out = append(out, b)
	}
	return out, nil
}

func (m *mockStore) ListBoardsByGateway(_ context.Context, gatewayID string) ([]*model.Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Board
	for _, b := range m.boards {
		if b.GatewayID == gatewayID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteBoard(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.boards[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.boards, id)
	return nil
}

func (m *mockStore) PausedBoardIDs(_ context.Context, boardIDs []string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paused := make(map[string]bool)
	for _, id := range boardIDs {
		var latest *model.BoardMessage
		for _, msg := range m.messages {
			if msg.BoardID != id || !msg.IsChat {
				continue
			}
			cmd := strings.ToLower(strings.TrimSpace(msg.Content))
			if cmd != model.PauseCommand && cmd != model.ResumeCommand {
				continue
			}
			if latest == nil || msg.CreatedAt.After(latest.CreatedAt) {
				latest = msg
			}
		}
		if latest != nil && strings.ToLower(strings.TrimSpace(latest.Content)) == model.PauseCommand {
			paused[id] = true
		}
	}
	return paused, nil
}

func (m *mockStore) CreateBoardMessage(_ context.Context, msg *model.BoardMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockStore) ListBoardMessages(_ context.Context, boardID string, limit int) ([]*model.BoardMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.BoardMessage
	for _, msg := range m.messages {
		if msg.BoardID == boardID {
			out = append(out, msg)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *mockStore) CreateGateway(_ context.Context, gw *model.Gateway) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gateways[gw.ID] = gw
	return nil
}

func (m *mockStore) GetGateway(_ context.Context, id string) (*model.Gateway, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gateways[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return g, nil
}

func (m *mockStore) ListGateways(_ context.Context) ([]*model.Gateway, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Gateway
	for _, g := range m.gateways {
		out = append(out, g)
	}
	return out, nil
}

func (m *mockStore) UpdateGateway(_ context.Context, gw *model.Gateway) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.gateways[gw.ID]; !ok {
		return sql.ErrNoRows
	}
	m.gateways[gw.ID] = gw
	return nil
}

func (m *mockStore) DeleteGateway(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.gateways[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.gateways, id)
	return nil
}

func (m *mockStore) CreateTask(_ context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task
	return nil
}

func (m *mockStore) GetTask(_ context.Context, id string) (*model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (m *mockStore) ListTasks(_ context.Context, filter model.TaskFilter) ([]*model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Task
	for _, t := range m.tasks {
		if filter.BoardID != "" && t.BoardID != filter.BoardID {
			continue
		}
		if filter.AgentID != "" && (t.AgentID == nil || *t.AgentID != filter.AgentID) {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *mockStore) UpdateTask(_ context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return sql.ErrNoRows
	}
	m.tasks[task.ID] = task
	return nil
}

func (m *mockStore) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.tasks, id)
	return nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }

var _ store.Store = (*mockStore)(nil)
