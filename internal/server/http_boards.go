package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openclaw/missionctl/internal/events"
	"github.com/openclaw/missionctl/internal/idgen"
	"github.com/openclaw/missionctl/internal/model"
)

type createBoardRequest struct {
	GatewayID string `json:"gateway_id"`
	Name      string `json:"name"`
}

// handleCreateBoard handles POST /v1/boards.
func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var req createBoardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.GatewayID == "" {
		writeError(w, http.StatusBadRequest, "gateway_id is required")
		return
	}

	ctx := r.Context()
	if _, err := s.store.GetGateway(ctx, req.GatewayID); err != nil {
		writeStoreError(w, err)
		return
	}

	id, err := idgen.Generate(idgen.BoardPrefix)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now().UTC()
	board := &model.Board{
		ID:        id,
		GatewayID: req.GatewayID,
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateBoard(ctx, board); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, board)
}

// handleListBoards handles GET /v1/boards. Accepts an optional gateway_id
// filter and reports each board's pause state.
func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var boards []*model.Board
	var err error
	if gatewayID := r.URL.Query().Get("gateway_id"); gatewayID != "" {
		boards, err = s.store.ListBoardsByGateway(ctx, gatewayID)
	} else {
		boards, err = s.store.ListBoards(ctx)
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}

	ids := make([]string, 0, len(boards))
	for _, b := range boards {
		ids = append(ids, b.ID)
	}
	paused, err := s.store.PausedBoardIDs(ctx, ids)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	type boardResponse struct {
		*model.Board
		Paused bool `json:"paused"`
	}
	out := make([]boardResponse, 0, len(boards))
	for _, b := range boards {
		out = append(out, boardResponse{Board: b, Paused: paused[b.ID]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"boards": out})
}

// handleGetBoard handles GET /v1/boards/{id}.
func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := s.store.GetBoard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// handleDeleteBoard handles DELETE /v1/boards/{id}.
func (s *Server) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteBoard(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type postMessageRequest struct {
	AgentID string `json:"agent_id,omitempty"`
	Content string `json:"content"`
	IsChat  bool   `json:"is_chat"`
}

// handlePostBoardMessage handles POST /v1/boards/{id}/messages.
// A chat message of "/pause" or "/resume" changes the board's pause state
// and emits the corresponding event.
func (s *Server) handlePostBoardMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	ctx := r.Context()
	board, err := s.store.GetBoard(ctx, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	id, err := idgen.Generate(idgen.MessagePrefix)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	msg := &model.BoardMessage{
		ID:        id,
		BoardID:   board.ID,
		Content:   req.Content,
		IsChat:    req.IsChat,
		CreatedAt: time.Now().UTC(),
	}
	if req.AgentID != "" {
		msg.AgentID = &req.AgentID
	}
	if err := s.store.CreateBoardMessage(ctx, msg); err != nil {
		writeStoreError(w, err)
		return
	}

	s.publish(ctx, events.TopicBoardMessage, events.BoardMessagePosted{Message: msg})
	if msg.IsChat {
		switch strings.ToLower(strings.TrimSpace(msg.Content)) {
		case model.PauseCommand:
			s.publish(ctx, events.TopicBoardPaused, events.BoardPaused{BoardID: board.ID})
		case model.ResumeCommand:
			s.publish(ctx, events.TopicBoardResumed, events.BoardResumed{BoardID: board.ID})
		}
	}

	writeJSON(w, http.StatusCreated, msg)
}

// handleListBoardMessages handles GET /v1/boards/{id}/messages.
func (s *Server) handleListBoardMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	board, err := s.store.GetBoard(ctx, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	msgs, err := s.store.ListBoardMessages(ctx, board.ID, limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}
