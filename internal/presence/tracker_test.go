package presence

import (
	"testing"
	"time"
)

func TestRecordHeartbeat_BasicTracking(t *testing.T) {
	tr := New()

	tr.RecordHeartbeat(Heartbeat{
		AgentID: "ag-1",
		Name:    "alice",
		BoardID: "brd-1",
	})

	roster := tr.Roster(0)
	if len(roster) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(roster))
	}

	e := roster[0]
	if e.AgentID != "ag-1" {
		t.Errorf("expected agent ag-1, got %s", e.AgentID)
	}
	if e.Name != "alice" {
		t.Errorf("expected name alice, got %s", e.Name)
	}
	if e.BoardID != "brd-1" {
		t.Errorf("expected board brd-1, got %s", e.BoardID)
	}
	if e.HeartbeatCount != 1 {
		t.Errorf("expected heartbeat_count 1, got %d", e.HeartbeatCount)
	}
}

func TestRecordHeartbeat_UpdatesExistingAgent(t *testing.T) {
	tr := New()

	tr.RecordHeartbeat(Heartbeat{AgentID: "ag-bob", Name: "bob"})
	tr.RecordHeartbeat(Heartbeat{AgentID: "ag-bob", BoardID: "brd-1"})
	tr.RecordHeartbeat(Heartbeat{AgentID: "ag-bob", BoardID: "brd-2"})

	roster := tr.Roster(0)
	if len(roster) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(roster))
	}

	e := roster[0]
	if e.HeartbeatCount != 3 {
		t.Errorf("expected 3 heartbeats, got %d", e.HeartbeatCount)
	}
	if e.BoardID != "brd-2" {
		t.Errorf("expected last board brd-2, got %s", e.BoardID)
	}
	if e.Name != "bob" {
		t.Errorf("name should stick across heartbeats, got %s", e.Name)
	}
}

func TestRecordHeartbeat_IgnoresEmptyAgentID(t *testing.T) {
	tr := New()

	tr.RecordHeartbeat(Heartbeat{AgentID: "", Name: "nameless"})

	roster := tr.Roster(0)
	if len(roster) != 0 {
		t.Fatalf("expected 0 entries for empty agent id, got %d", len(roster))
	}
}

func TestRoster_StaleThreshold(t *testing.T) {
	tr := New()

	// Record a heartbeat, then manually backdate the agent.
	tr.RecordHeartbeat(Heartbeat{AgentID: "old-agent"})
	tr.RecordHeartbeat(Heartbeat{AgentID: "new-agent"})

	tr.mu.Lock()
	tr.agents["old-agent"].lastSeen = time.Now().Add(-20 * time.Minute)
	tr.mu.Unlock()

	// With 10-minute threshold, only new-agent should appear.
	roster := tr.Roster(10 * time.Minute)
	if len(roster) != 1 {
		t.Fatalf("expected 1 entry with threshold, got %d", len(roster))
	}
	if roster[0].AgentID != "new-agent" {
		t.Errorf("expected new-agent, got %s", roster[0].AgentID)
	}

	// With 0 threshold, both should appear.
	all := tr.Roster(0)
	if len(all) != 2 {
		t.Fatalf("expected 2 entries without threshold, got %d", len(all))
	}
}

func TestRoster_SortedByMostRecent(t *testing.T) {
	tr := New()

	tr.RecordHeartbeat(Heartbeat{AgentID: "first"})
	time.Sleep(5 * time.Millisecond)
	tr.RecordHeartbeat(Heartbeat{AgentID: "second"})
	time.Sleep(5 * time.Millisecond)
	tr.RecordHeartbeat(Heartbeat{AgentID: "third"})

	roster := tr.Roster(0)
	if len(roster) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(roster))
	}
	if roster[0].AgentID != "third" {
		t.Errorf("expected third first, got %s", roster[0].AgentID)
	}
	if roster[2].AgentID != "first" {
		t.Errorf("expected first last, got %s", roster[2].AgentID)
	}
}

func TestSweep_MarksSilentAgentsDead(t *testing.T) {
	tr := New()

	tr.RecordHeartbeat(Heartbeat{AgentID: "silent-agent"})

	// Backdate to make it silent.
	tr.mu.Lock()
	tr.agents["silent-agent"].lastSeen = time.Now().Add(-20 * time.Minute)
	tr.mu.Unlock()

	var dead []string
	cfg := &ReaperConfig{
		DeadThreshold: 15 * time.Minute,
		EvictAfter:    30 * time.Minute,
		SweepInterval: time.Second,
		OnDead: func(agentID string) {
			dead = append(dead, agentID)
		},
	}

	tr.sweep(cfg)

	if len(dead) != 1 || dead[0] != "silent-agent" {
		t.Errorf("expected silent-agent to be reaped, got %v", dead)
	}

	roster := tr.Roster(0)
	for _, e := range roster {
		if e.AgentID == "silent-agent" && !e.Reaped {
			t.Error("expected silent-agent to have reaped=true")
		}
	}
}

func TestSweep_ResurrectedAgentNotReaped(t *testing.T) {
	tr := New()

	// Agent was reaped...
	tr.RecordHeartbeat(Heartbeat{AgentID: "zombie"})
	tr.mu.Lock()
	tr.agents["zombie"].lastSeen = time.Now().Add(-20 * time.Minute)
	tr.mu.Unlock()

	cfg := &ReaperConfig{DeadThreshold: 15 * time.Minute, EvictAfter: 30 * time.Minute}
	tr.sweep(cfg)

	// ...but comes back to life.
	tr.RecordHeartbeat(Heartbeat{AgentID: "zombie"})

	roster := tr.Roster(0)
	for _, e := range roster {
		if e.AgentID == "zombie" {
			if e.Reaped {
				t.Error("expected zombie to be resurrected (reaped=false)")
			}
			if e.HeartbeatCount != 2 {
				t.Errorf("expected 2 heartbeats, got %d", e.HeartbeatCount)
			}
			return
		}
	}
	t.Error("zombie not found in roster")
}

func TestSweep_EvictsEphemeralAgents(t *testing.T) {
	tr := New()

	// Agent with few heartbeats, reaped a while ago.
	tr.RecordHeartbeat(Heartbeat{AgentID: "ephemeral"})
	tr.mu.Lock()
	state := tr.agents["ephemeral"]
	state.lastSeen = time.Now().Add(-30 * time.Minute)
	state.reaped = true
	state.reapedAt = time.Now().Add(-10 * time.Minute) // reaped 10 min ago
	state.heartbeatCount = 3                           // low heartbeat count
	tr.mu.Unlock()

	cfg := &ReaperConfig{
		DeadThreshold: 15 * time.Minute,
		EvictAfter:    30 * time.Minute, // normally 30 min
	}

	tr.sweep(cfg)

	// Ephemeral agents (<10 heartbeats) should be evicted after 5 min.
	tr.mu.RLock()
	_, exists := tr.agents["ephemeral"]
	tr.mu.RUnlock()

	if exists {
		t.Error("expected ephemeral agent to be evicted (low heartbeat count, reaped >5 min ago)")
	}
}

func TestStartReaper_StopsCleanly(t *testing.T) {
	tr := New()

	tr.StartReaper(&ReaperConfig{
		SweepInterval: 50 * time.Millisecond,
	})

	// Let it run a couple sweeps.
	time.Sleep(150 * time.Millisecond)

	// Stop should return without hanging.
	done := make(chan struct{})
	go func() {
		tr.Stop()
		close(done)
	}()

	select {
	case <-done:
		// OK
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return within 2 seconds")
	}
}
