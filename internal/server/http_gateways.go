package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/openclaw/missionctl/internal/events"
	"github.com/openclaw/missionctl/internal/idgen"
	"github.com/openclaw/missionctl/internal/model"
	"github.com/openclaw/missionctl/internal/sync"
)

type createGatewayRequest struct {
	Name           string `json:"name"`
	URL            string `json:"url"`
	Token          string `json:"token,omitempty"`
	MainSessionKey string `json:"main_session_key,omitempty"`
}

// handleCreateGateway handles POST /v1/gateways.
func (s *Server) handleCreateGateway(w http.ResponseWriter, r *http.Request) {
	var req createGatewayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	id, err := idgen.Generate(idgen.GatewayPrefix)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now().UTC()
	gw := &model.Gateway{
		ID:             id,
		Name:           strings.TrimSpace(req.Name),
		URL:            req.URL,
		Token:          req.Token,
		MainSessionKey: req.MainSessionKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateGateway(r.Context(), gw); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, gw)
}

// handleListGateways handles GET /v1/gateways.
func (s *Server) handleListGateways(w http.ResponseWriter, r *http.Request) {
	gateways, err := s.store.ListGateways(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"gateways": gateways})
}

// handleGetGateway handles GET /v1/gateways/{id}.
func (s *Server) handleGetGateway(w http.ResponseWriter, r *http.Request) {
	gw, err := s.store.GetGateway(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gw)
}

// handleDeleteGateway handles DELETE /v1/gateways/{id}.
func (s *Server) handleDeleteGateway(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteGateway(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type syncGatewayRequest struct {
	IncludeMain    bool   `json:"include_main"`
	ResetSessions  bool   `json:"reset_sessions"`
	RotateTokens   bool   `json:"rotate_tokens"`
	ForceBootstrap bool   `json:"force_bootstrap"`
	BoardID        string `json:"board_id,omitempty"`
}

// handleSyncGateway handles POST /v1/gateways/{id}/sync. The sync runs
// inline; recoverable failures are reported inside the result, not as an
// HTTP error.
func (s *Server) handleSyncGateway(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gw, err := s.store.GetGateway(ctx, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var req syncGatewayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	s.publish(ctx, events.TopicSyncStarted, events.SyncStarted{
		GatewayID:   gw.ID,
		IncludeMain: req.IncludeMain,
	})

	res, err := s.syncer.Sync(ctx, gw, sync.Options{
		IncludeMain:    req.IncludeMain,
		ResetSessions:  req.ResetSessions,
		RotateTokens:   req.RotateTokens,
		ForceBootstrap: req.ForceBootstrap,
		BoardID:        req.BoardID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.publish(ctx, events.TopicSyncFinished, events.SyncFinished{
		GatewayID:     gw.ID,
		AgentsUpdated: res.AgentsUpdated,
		AgentsSkipped: res.AgentsSkipped,
		MainUpdated:   res.MainUpdated,
		ErrorCount:    len(res.Errors),
	})

	writeJSON(w, http.StatusOK, res)
}
