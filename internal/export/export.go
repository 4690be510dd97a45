// Package export produces JSONL snapshots of mission control state and
// delivers them to configured destinations on a schedule.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/openclaw/missionctl/internal/model"
	"github.com/openclaw/missionctl/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version      string    `json:"version"`
	Type         string    `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	GatewayCount int       `json:"gateway_count"`
	BoardCount   int       `json:"board_count"`
	AgentCount   int       `json:"agent_count"`
	TaskCount    int       `json:"task_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ExportJSONL writes all gateways, boards, agents, and tasks from the store
// as JSONL to w, each section sorted by ID. Gateway tokens and agent token
// hashes never appear in the output (their fields are not serialized).
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	gateways, err := s.ListGateways(ctx)
	if err != nil {
		return fmt.Errorf("list gateways: %w", err)
	}
	sort.Slice(gateways, func(i, j int) bool { return gateways[i].ID < gateways[j].ID })

	boards, err := s.ListBoards(ctx)
	if err != nil {
		return fmt.Errorf("list boards: %w", err)
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i].ID < boards[j].ID })

	agents, err := s.ListAgents(ctx, "")
	if err != nil {
		return fmt.Errorf("list agents: %w", err)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })

	tasks, err := s.ListTasks(ctx, model.TaskFilter{})
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:      "1",
		Type:         "header",
		Timestamp:    time.Now().UTC(),
		GatewayCount: len(gateways),
		BoardCount:   len(boards),
		AgentCount:   len(agents),
		TaskCount:    len(tasks),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, g := range gateways {
		if err := enc.Encode(record{Type: "gateway", Data: g}); err != nil {
			return fmt.Errorf("encode gateway %s: %w", g.ID, err)
		}
	}
	for _, b := range boards {
		if err := enc.Encode(record{Type: "board", Data: b}); err != nil {
			return fmt.Errorf("encode board %s: %w", b.ID, err)
		}
	}
	for _, a := range agents {
		if err := enc.Encode(record{Type: "agent", Data: a}); err != nil {
			return fmt.Errorf("encode agent %s: %w", a.ID, err)
		}
	}
	for _, t := range tasks {
		if err := enc.Encode(record{Type: "task", Data: t}); err != nil {
			return fmt.Errorf("encode task %s: %w", t.ID, err)
		}
	}

	return nil
}
