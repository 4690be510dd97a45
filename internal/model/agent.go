package model

import (
	"strings"
	"time"
)

// AgentStatus is the presence classification derived from heartbeats.
type AgentStatus string

const (
	StatusOnline  AgentStatus = "online"
	StatusIdle    AgentStatus = "idle"
	StatusOffline AgentStatus = "offline"
)

// String returns the string representation of the status.
func (s AgentStatus) String() string {
	return string(s)
}

// Presence thresholds. An agent that heartbeated within OnlineThreshold is
// online, within IdleThreshold idle, otherwise offline.
const (
	OnlineThreshold = 2 * time.Minute
	IdleThreshold   = 15 * time.Minute
)

// SessionKeyPrefix is the leading segment of gateway session keys
// ("agent:<id>" or "agent:<id>:main").
const SessionKeyPrefix = "agent:"

// Agent is a worker registered on a board, reachable through a gateway
// session and authenticated by a hashed token.
type Agent struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	BoardID    *string    `json:"board_id,omitempty"`
	SessionKey *string    `json:"session_key,omitempty"`
	// TokenHash stores only the PBKDF2 digest; the raw token is never
	// persisted and is shown exactly once, at generation time.
	TokenHash  *string    `json:"-"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Status classifies the agent's presence as of now.
func (a *Agent) Status(now time.Time) AgentStatus {
	if a.LastSeenAt == nil {
		return StatusOffline
	}
	age := now.Sub(*a.LastSeenAt)
	switch {
	case age <= OnlineThreshold:
		return StatusOnline
	case age <= IdleThreshold:
		return StatusIdle
	default:
		return StatusOffline
	}
}

// SessionKeyValue returns the trimmed session key, or "" when unset.
func (a *Agent) SessionKeyValue() string {
	if a.SessionKey == nil {
		return ""
	}
	return strings.TrimSpace(*a.SessionKey)
}
