package sync

// SyncError is one structured error entry in a sync result. Agent and board
// references are optional; global errors carry only a message.
type SyncError struct {
	AgentID   string `json:"agent_id,omitempty"`
	AgentName string `json:"agent_name,omitempty"`
	BoardID   string `json:"board_id,omitempty"`
	Message   string `json:"message"`
}

// Result is the ephemeral, per-invocation aggregate of one sync run. It is
// returned to the caller and never persisted.
type Result struct {
	GatewayID     string      `json:"gateway_id"`
	IncludeMain   bool        `json:"include_main"`
	ResetSessions bool        `json:"reset_sessions"`
	AgentsUpdated int         `json:"agents_updated"`
	AgentsSkipped int         `json:"agents_skipped"`
	MainUpdated   bool        `json:"main_updated"`
	Errors        []SyncError `json:"errors"`
}

func (r *Result) addError(e SyncError) {
	r.Errors = append(r.Errors, e)
}
