package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openclaw/missionctl/internal/events"
	"github.com/openclaw/missionctl/internal/idgen"
	"github.com/openclaw/missionctl/internal/model"
	"github.com/openclaw/missionctl/internal/presence"
	"github.com/openclaw/missionctl/internal/sync"
	"github.com/openclaw/missionctl/internal/token"
)

type createAgentRequest struct {
	Name    string `json:"name"`
	BoardID string `json:"board_id,omitempty"`
}

type agentResponse struct {
	*model.Agent
	Status model.AgentStatus `json:"status"`
}

func agentToResponse(a *model.Agent, now time.Time) agentResponse {
	return agentResponse{Agent: a, Status: a.Status(now)}
}

// handleCreateAgent handles POST /v1/agents. The agent's session key is
// derived from its name and a fresh token is generated and returned once;
// only its digest is stored.
func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx := r.Context()
	existing, err := s.store.FindAgentByName(ctx, req.Name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, fmt.Sprintf("agent %q already exists", req.Name))
		return
	}

	id, err := idgen.Generate(idgen.AgentPrefix)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	raw, err := token.Generate()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	digest, err := token.Hash(raw)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now().UTC()
	sessionKey := model.SessionKeyPrefix + sync.Slugify(req.Name) + ":main"
	agent := &model.Agent{
		ID:         id,
		Name:       strings.TrimSpace(req.Name),
		SessionKey: &sessionKey,
		TokenHash:  &digest,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.BoardID != "" {
		if _, err := s.store.GetBoard(ctx, req.BoardID); err != nil {
			writeStoreError(w, err)
			return
		}
		agent.BoardID = &req.BoardID
	}

	if err := s.store.CreateAgent(ctx, agent); err != nil {
		writeStoreError(w, err)
		return
	}

	s.publish(ctx, events.TopicAgentCreated, events.AgentCreated{Agent: agent})

	writeJSON(w, http.StatusCreated, map[string]any{
		"agent": agentToResponse(agent, now),
		"token": raw, // returned exactly once, never retrievable again
	})
}

// handleListAgents handles GET /v1/agents. Accepts an optional board_id filter.
func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.store.ListAgents(r.Context(), r.URL.Query().Get("board_id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	now := time.Now().UTC()
	out := make([]agentResponse, 0, len(agents))
	for _, a := range agents {
		out = append(out, agentToResponse(a, now))
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": out})
}

// handleGetAgent handles GET /v1/agents/{id}.
func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := s.store.GetAgent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agentToResponse(agent, time.Now().UTC()))
}

// handleDeleteAgent handles DELETE /v1/agents/{id}.
func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteAgent(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	s.publish(r.Context(), events.TopicAgentDeleted, events.AgentDeleted{AgentID: id})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleAgentHeartbeat handles POST /v1/agents/{id}/heartbeat.
// Authenticated by X-Agent-Token, verified against the agent's stored digest.
// Updates the durable last-seen timestamp and feeds the presence tracker.
func (s *Server) handleAgentHeartbeat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agent, err := s.store.GetAgent(ctx, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	provided := r.Header.Get("X-Agent-Token")
	if provided == "" {
		writeError(w, http.StatusUnauthorized, "missing agent token")
		return
	}
	if agent.TokenHash == nil || !token.Verify(provided, *agent.TokenHash) {
		writeError(w, http.StatusUnauthorized, "invalid agent token")
		return
	}

	now := time.Now().UTC()
	if err := s.store.TouchAgentLastSeen(ctx, agent.ID, now); err != nil {
		writeStoreError(w, err)
		return
	}

	boardID := ""
	if agent.BoardID != nil {
		boardID = *agent.BoardID
	}
	s.Presence.RecordHeartbeat(presence.Heartbeat{
		AgentID: agent.ID,
		Name:    agent.Name,
		BoardID: boardID,
	})
	s.publish(ctx, events.TopicAgentHeartbeat, events.AgentHeartbeat{AgentID: agent.ID, BoardID: boardID})

	agent.LastSeenAt = &now
	writeJSON(w, http.StatusOK, map[string]any{
		"status": string(agent.Status(now)),
	})
}

// handleRotateAgentToken handles POST /v1/agents/{id}/rotate-token.
// The digest is persisted before the raw token leaves the process, so a
// crash here never leaves an unverifiable credential in circulation.
func (s *Server) handleRotateAgentToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agent, err := s.store.GetAgent(ctx, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	raw, err := token.Generate()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	digest, err := token.Hash(raw)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.store.SetAgentTokenHash(ctx, agent.ID, digest); err != nil {
		writeStoreError(w, err)
		return
	}

	s.publish(ctx, events.TopicAgentTokenRotated, events.AgentTokenRotated{AgentID: agent.ID})

	writeJSON(w, http.StatusOK, map[string]string{
		"agent_id": agent.ID,
		"token":    raw,
	})
}

// handleAgentRoster handles GET /v1/agents/roster.
// Returns the live agent roster from the presence tracker, enriched with
// each agent's claimed task.
func (s *Server) handleAgentRoster(w http.ResponseWriter, r *http.Request) {
	// Parse optional stale_threshold_secs query param (default: 30 min).
	staleThreshold := 30 * time.Minute
	if v := r.URL.Query().Get("stale_threshold_secs"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			staleThreshold = time.Duration(secs) * time.Second
		}
	}

	entries := s.Presence.Roster(staleThreshold)

	type rosterEntry struct {
		AgentID   string  `json:"agent_id"`
		Name      string  `json:"name"`
		BoardID   string  `json:"board_id,omitempty"`
		TaskID    string  `json:"task_id,omitempty"`
		TaskTitle string  `json:"task_title,omitempty"`
		IdleSecs  float64 `json:"idle_secs"`
		Reaped    bool    `json:"reaped,omitempty"`
	}

	ctx := r.Context()
	agents := make([]rosterEntry, 0, len(entries))
	for _, e := range entries {
		re := rosterEntry{
			AgentID:  e.AgentID,
			Name:     e.Name,
			BoardID:  e.BoardID,
			IdleSecs: e.IdleSecs,
			Reaped:   e.Reaped,
		}

		// Look up the agent's current in-flight task.
		tasks, err := s.store.ListTasks(ctx, model.TaskFilter{
			AgentID: e.AgentID,
			Status:  model.TaskDoing,
		})
		if err == nil && len(tasks) > 0 {
			re.TaskID = tasks[0].ID
			re.TaskTitle = tasks[0].Title
		}

		agents = append(agents, re)
	}

	// Find unclaimed in-flight tasks.
	type unclaimedTask struct {
		ID      string `json:"id"`
		BoardID string `json:"board_id"`
		Title   string `json:"title"`
	}

	var unclaimed []unclaimedTask
	inFlight, err := s.store.ListTasks(ctx, model.TaskFilter{Status: model.TaskDoing})
	if err == nil {
		for _, t := range inFlight {
			if t.AgentID == nil || *t.AgentID == "" {
				unclaimed = append(unclaimed, unclaimedTask{ID: t.ID, BoardID: t.BoardID, Title: t.Title})
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"agents":          agents,
		"unclaimed_tasks": unclaimed,
	})
}
