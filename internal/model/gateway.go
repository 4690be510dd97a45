package model

import "time"

// Gateway is a remote agent host the backend provisions over websocket.
type Gateway struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	// Token authenticates backend calls to the gateway. Never serialized.
	Token string `json:"-"`
	// MainSessionKey names the gateway's distinguished main agent session.
	MainSessionKey string    `json:"main_session_key"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
