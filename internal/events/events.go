package events

import (
	"context"

	"github.com/openclaw/missionctl/internal/model"
)

// Event topic constants
const (
	TopicTaskCreated = "missionctl.task.created"
	TopicTaskUpdated = "missionctl.task.updated"
	TopicTaskMoved   = "missionctl.task.moved"
	TopicTaskDeleted = "missionctl.task.deleted"

	TopicAgentCreated      = "missionctl.agent.created"
	TopicAgentHeartbeat    = "missionctl.agent.heartbeat"
	TopicAgentTokenRotated = "missionctl.agent.token_rotated"
	TopicAgentDeleted      = "missionctl.agent.deleted"

	TopicBoardMessage = "missionctl.board.message"
	TopicBoardPaused  = "missionctl.board.paused"
	TopicBoardResumed = "missionctl.board.resumed"

	// Gateway sync lifecycle events (consumed by `mc watch`).
	TopicSyncStarted  = "missionctl.gateway.sync_started"
	TopicSyncFinished = "missionctl.gateway.sync_finished"
)

// Event types

type TaskCreated struct {
	Task *model.Task `json:"task"`
}

type TaskUpdated struct {
	Task    *model.Task    `json:"task"`
	Changes map[string]any `json:"changes"` // field name -> new value
}

type TaskMoved struct {
	Task *model.Task      `json:"task"`
	From model.TaskStatus `json:"from"`
}

type TaskDeleted struct {
	TaskID string `json:"task_id"`
}

type AgentCreated struct {
	Agent *model.Agent `json:"agent"`
}

type AgentHeartbeat struct {
	AgentID string `json:"agent_id"`
	BoardID string `json:"board_id,omitempty"`
}

// AgentTokenRotated carries only the agent id; tokens and hashes never
// cross the event bus.
type AgentTokenRotated struct {
	AgentID string `json:"agent_id"`
}

type AgentDeleted struct {
	AgentID string `json:"agent_id"`
}

type BoardMessagePosted struct {
	Message *model.BoardMessage `json:"message"`
}

type BoardPaused struct {
	BoardID string `json:"board_id"`
}

type BoardResumed struct {
	BoardID string `json:"board_id"`
}

// Sync events

type SyncStarted struct {
	GatewayID   string `json:"gateway_id"`
	IncludeMain bool   `json:"include_main"`
}

type SyncFinished struct {
	GatewayID     string `json:"gateway_id"`
	AgentsUpdated int    `json:"agents_updated"`
	AgentsSkipped int    `json:"agents_skipped"`
	MainUpdated   bool   `json:"main_updated"`
	ErrorCount    int    `json:"error_count"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
