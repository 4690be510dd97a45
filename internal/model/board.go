package model

import "time"

// Chat commands recognized on board message streams. The most recent one
// wins; matching is case-insensitive on trimmed content.
const (
	PauseCommand  = "/pause"
	ResumeCommand = "/resume"
)

// Board groups agents and tasks under one gateway.
type Board struct {
	ID        string    `json:"id"`
	GatewayID string    `json:"gateway_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BoardMessage is one entry in a board's message stream. Chat rows carry
// operator commentary and commands; non-chat rows are system notices.
type BoardMessage struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	AgentID   *string   `json:"agent_id,omitempty"`
	Content   string    `json:"content"`
	IsChat    bool      `json:"is_chat"`
	CreatedAt time.Time `json:"created_at"`
}
