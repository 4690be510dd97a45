// Package presence tracks live agent activity for the agent roster.
//
// The Tracker maintains an in-memory map of agents that have heartbeated
// recently, updated directly by the server when an agent heartbeat request
// arrives. A background reaper goroutine marks silent agents as dead after a
// configurable threshold and eventually evicts them.
//
// Durable presence (the last_seen_at column) lives in the store; the tracker
// only answers "who is alive right now" without a database round-trip.
package presence

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Entry represents a single agent's live presence state.
type Entry struct {
	AgentID             string    `json:"agent_id"`
	Name                string    `json:"name"`
	BoardID             string    `json:"board_id,omitempty"`
	LastSeen            time.Time `json:"last_seen"`
	FirstSeen           time.Time `json:"first_seen"`
	IdleSecs            float64   `json:"idle_secs"`             // seconds since last heartbeat
	HeartbeatCount      int64     `json:"heartbeat_count"`       // total heartbeats seen
	SessionDurationSecs float64   `json:"session_duration_secs"` // seconds since first heartbeat
	Reaped              bool      `json:"reaped,omitempty"`      // true if reaper marked dead
	ReapedAt            time.Time `json:"reaped_at,omitempty"`   // when reaped
}

// Heartbeat is the data the tracker needs from one heartbeat request.
type Heartbeat struct {
	AgentID string
	Name    string
	BoardID string
}

// ReaperConfig configures the background dead-agent reaper.
type ReaperConfig struct {
	// DeadThreshold is how long an agent must be silent before being marked dead.
	// Default: 15 minutes.
	DeadThreshold time.Duration

	// EvictAfter is how long after being reaped before an agent is permanently
	// removed from the in-memory map. Prevents unbounded growth from ephemeral agents.
	// Default: 30 minutes.
	EvictAfter time.Duration

	// SweepInterval is how often the reaper scans for dead agents.
	// Default: 60 seconds.
	SweepInterval time.Duration

	// OnDead is called for each agent newly marked as dead.
	// Called outside the lock — safe to make blocking calls.
	OnDead func(agentID string)
}

// Tracker maintains an in-memory roster of live agents.
type Tracker struct {
	mu      sync.RWMutex
	agents  map[string]*agentState
	started time.Time

	reaperStop chan struct{}
	reaperDone chan struct{}
}

type agentState struct {
	name           string
	boardID        string
	firstSeen      time.Time
	lastSeen       time.Time
	heartbeatCount int64
	reaped         bool
	reapedAt       time.Time
}

// New creates a new presence tracker.
func New() *Tracker {
	return &Tracker{
		agents:  make(map[string]*agentState),
		started: time.Now(),
	}
}

// RecordHeartbeat updates the presence state for an agent.
// Called by the server when POST /v1/agents/{id}/heartbeat is received.
func (t *Tracker) RecordHeartbeat(hb Heartbeat) {
	if hb.AgentID == "" {
		return
	}

	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.agents[hb.AgentID]
	if !ok {
		state = &agentState{firstSeen: now}
		t.agents[hb.AgentID] = state
	}

	// Resurrect reaped agents that come back to life.
	if state.reaped {
		slog.Info("presence: agent resurrected", "agent", hb.AgentID)
		state.reaped = false
		state.reapedAt = time.Time{}
	}

	state.lastSeen = now
	state.heartbeatCount++

	if hb.Name != "" {
		state.name = hb.Name
	}
	if hb.BoardID != "" {
		state.boardID = hb.BoardID
	}
}

// Roster returns a snapshot of all tracked agents, sorted by most recently active.
// staleThreshold controls how long since the last heartbeat before an agent is
// excluded. Pass 0 to include all agents ever seen.
func (t *Tracker) Roster(staleThreshold time.Duration) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := time.Now()
	entries := make([]Entry, 0, len(t.agents))

	for agentID, state := range t.agents {
		idle := now.Sub(state.lastSeen)
		if staleThreshold > 0 && idle > staleThreshold {
			continue
		}

		firstSeen := state.firstSeen
		if firstSeen.IsZero() {
			firstSeen = t.started
		}
		sessionDur := now.Sub(firstSeen).Seconds()

		entries = append(entries, Entry{
			AgentID:             agentID,
			Name:                state.name,
			BoardID:             state.boardID,
			LastSeen:            state.lastSeen,
			FirstSeen:           firstSeen,
			IdleSecs:            idle.Seconds(),
			HeartbeatCount:      state.heartbeatCount,
			SessionDurationSecs: sessionDur,
			Reaped:              state.reaped,
			ReapedAt:            state.reapedAt,
		})
	}

	// Sort by last seen (most recent first).
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastSeen.After(entries[j].LastSeen)
	})

	return entries
}

// StartReaper launches a background goroutine that periodically marks silent
// agents as dead. Call Stop() to shut it down.
func (t *Tracker) StartReaper(cfg *ReaperConfig) {
	if cfg == nil {
		cfg = &ReaperConfig{}
	}
	if cfg.DeadThreshold == 0 {
		cfg.DeadThreshold = 15 * time.Minute
	}
	if cfg.EvictAfter == 0 {
		cfg.EvictAfter = 30 * time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 60 * time.Second
	}

	t.reaperStop = make(chan struct{})
	t.reaperDone = make(chan struct{})

	go t.reapLoop(cfg)
	slog.Info("presence: reaper started",
		"dead_threshold", cfg.DeadThreshold,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper goroutine.
func (t *Tracker) Stop() {
	if t.reaperStop != nil {
		close(t.reaperStop)
		<-t.reaperDone
		t.reaperStop = nil
		t.reaperDone = nil
	}
}

func (t *Tracker) reapLoop(cfg *ReaperConfig) {
	defer close(t.reaperDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.reaperStop:
			return
		case <-ticker.C:
			t.sweep(cfg)
		}
	}
}

func (t *Tracker) sweep(cfg *ReaperConfig) {
	now := time.Now()

	var newlyDead []string

	t.mu.Lock()
	for agentID, state := range t.agents {
		if state.reaped {
			// Evict agents reaped for longer than EvictAfter.
			// Low-heartbeat agents (<10) are likely ephemeral — evict faster (5 min).
			evictThreshold := cfg.EvictAfter
			if state.heartbeatCount < 10 {
				evictThreshold = 5 * time.Minute
			}
			if !state.reapedAt.IsZero() && now.Sub(state.reapedAt) > evictThreshold {
				delete(t.agents, agentID)
			}
			continue
		}
		idle := now.Sub(state.lastSeen)
		if idle > cfg.DeadThreshold {
			state.reaped = true
			state.reapedAt = now
			newlyDead = append(newlyDead, agentID)
		}
	}
	t.mu.Unlock()

	for _, agentID := range newlyDead {
		slog.Info("presence: reaper marked agent dead",
			"agent", agentID,
			"threshold", cfg.DeadThreshold)
		if cfg.OnDead != nil {
			cfg.OnDead(agentID)
		}
	}
}
