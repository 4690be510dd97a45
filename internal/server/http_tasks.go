package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openclaw/missionctl/internal/events"
	"github.com/openclaw/missionctl/internal/idgen"
	"github.com/openclaw/missionctl/internal/model"
)

type createTaskRequest struct {
	BoardID     string `json:"board_id"`
	AgentID     string `json:"agent_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position,omitempty"`
}

// handleCreateTask handles POST /v1/tasks.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.BoardID == "" {
		writeError(w, http.StatusBadRequest, "board_id is required")
		return
	}

	ctx := r.Context()
	if _, err := s.store.GetBoard(ctx, req.BoardID); err != nil {
		writeStoreError(w, err)
		return
	}

	id, err := idgen.Generate(idgen.TaskPrefix)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now().UTC()
	task := &model.Task{
		ID:          id,
		BoardID:     req.BoardID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      model.TaskTodo,
		Position:    req.Position,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.AgentID != "" {
		task.AgentID = &req.AgentID
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		writeStoreError(w, err)
		return
	}

	s.publish(ctx, events.TopicTaskCreated, events.TaskCreated{Task: task})
	writeJSON(w, http.StatusCreated, task)
}

// handleListTasks handles GET /v1/tasks with board_id/agent_id/status filters.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.TaskFilter{
		BoardID: q.Get("board_id"),
		AgentID: q.Get("agent_id"),
	}
	if v := q.Get("status"); v != "" {
		status := model.TaskStatus(v)
		if !status.IsValid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", v))
			return
		}
		filter.Status = status
	}

	tasks, err := s.store.ListTasks(r.Context(), filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// handleGetTask handles GET /v1/tasks/{id}.
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type updateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	AgentID     *string `json:"agent_id,omitempty"`
	Position    *int    `json:"position,omitempty"`
}

// handleUpdateTask handles PATCH /v1/tasks/{id}. Only fields present in the
// body are changed. A status change emits a moved event instead of updated.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ctx := r.Context()
	task, err := s.store.GetTask(ctx, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	from := task.Status
	changes := make(map[string]any)
	if req.Title != nil {
		task.Title = *req.Title
		changes["title"] = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
		changes["description"] = *req.Description
	}
	if req.AgentID != nil {
		if *req.AgentID == "" {
			task.AgentID = nil
		} else {
			task.AgentID = req.AgentID
		}
		changes["agent_id"] = *req.AgentID
	}
	if req.Position != nil {
		task.Position = *req.Position
		changes["position"] = *req.Position
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		if !status.IsValid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", *req.Status))
			return
		}
		task.Status = status
		changes["status"] = string(status)
	}
	if len(changes) == 0 {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	task.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		writeStoreError(w, err)
		return
	}

	if task.Status != from {
		s.publish(ctx, events.TopicTaskMoved, events.TaskMoved{Task: task, From: from})
	} else {
		s.publish(ctx, events.TopicTaskUpdated, events.TaskUpdated{Task: task, Changes: changes})
	}
	writeJSON(w, http.StatusOK, task)
}

// handleDeleteTask handles DELETE /v1/tasks/{id}.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteTask(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	s.publish(r.Context(), events.TopicTaskDeleted, events.TaskDeleted{TaskID: id})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type claimTaskRequest struct {
	AgentID string `json:"agent_id"`
}

// handleClaimTask handles POST /v1/tasks/{id}/claim: assigns the task to an
// agent and moves it to doing. A task already claimed by another agent is a
// conflict.
func (s *Server) handleClaimTask(w http.ResponseWriter, r *http.Request) {
	var req claimTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "agent_id is required")
		return
	}

	ctx := r.Context()
	if _, err := s.store.GetAgent(ctx, req.AgentID); err != nil {
		writeStoreError(w, err)
		return
	}
	task, err := s.store.GetTask(ctx, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if task.AgentID != nil && *task.AgentID != "" && *task.AgentID != req.AgentID {
		writeError(w, http.StatusConflict, fmt.Sprintf("task already claimed by %s", *task.AgentID))
		return
	}

	from := task.Status
	task.AgentID = &req.AgentID
	task.Status = model.TaskDoing
	task.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		writeStoreError(w, err)
		return
	}

	s.publish(ctx, events.TopicTaskMoved, events.TaskMoved{Task: task, From: from})
	writeJSON(w, http.StatusOK, task)
}

// handleCloseTask handles POST /v1/tasks/{id}/close: moves the task to done.
func (s *Server) handleCloseTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	task, err := s.store.GetTask(ctx, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	from := task.Status
	task.Status = model.TaskDone
	task.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		writeStoreError(w, err)
		return
	}

	s.publish(ctx, events.TopicTaskMoved, events.TaskMoved{Task: task, From: from})
	writeJSON(w, http.StatusOK, task)
}
