package store

import (
	"context"
	"time"

	"github.com/openclaw/missionctl/internal/model"
)

// Store defines the persistence interface for mission control.
//
// Get* methods return sql.ErrNoRows when the record is absent; Find* methods
// return (nil, nil) instead, because absence is an expected outcome there.
type Store interface {
	// Agents
	CreateAgent(ctx context.Context, agent *model.Agent) error
	GetAgent(ctx context.Context, id string) (*model.Agent, error)
	ListAgents(ctx context.Context, boardID string) ([]*model.Agent, error) // boardID "" lists all
	ListAgentsByBoards(ctx context.Context, boardIDs []string) ([]*model.Agent, error)
	FindAgentBySessionKey(ctx context.Context, sessionKey string) (*model.Agent, error)
	FindAgentByName(ctx context.Context, name string) (*model.Agent, error)
	UpdateAgent(ctx context.Context, agent *model.Agent) error
	DeleteAgent(ctx context.Context, id string) error
	SetAgentTokenHash(ctx context.Context, agentID, tokenHash string) error
	TouchAgentLastSeen(ctx context.Context, agentID string, at time.Time) error
	// ListAgentsWithTokens returns agents that have a stored token hash,
	// for resolving X-Agent-Token credentials.
	ListAgentsWithTokens(ctx context.Context) ([]*model.Agent, error)

	// Boards
	CreateBoard(ctx context.Context, board *model.Board) error
	GetBoard(ctx context.Context, id string) (*model.Board, error)
	ListBoards(ctx context.Context) ([]*model.Board, error)
	ListBoardsByGateway(ctx context.Context, gatewayID string) ([]*model.Board, error)
	DeleteBoard(ctx context.Context, id string) error
	// PausedBoardIDs reports which of the given boards are paused: only the
	// most recent "/pause"/"/resume" chat command per board counts.
	PausedBoardIDs(ctx context.Context, boardIDs []string) (map[string]bool, error)

	// Board messages
	CreateBoardMessage(ctx context.Context, msg *model.BoardMessage) error
	ListBoardMessages(ctx context.Context, boardID string, limit int) ([]*model.BoardMessage, error)

	// Gateways
	CreateGateway(ctx context.Context, gw *model.Gateway) error
	GetGateway(ctx context.Context, id string) (*model.Gateway, error)
	ListGateways(ctx context.Context) ([]*model.Gateway, error)
	UpdateGateway(ctx context.Context, gw *model.Gateway) error
	DeleteGateway(ctx context.Context, id string) error

	// Tasks
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, id string) error

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
