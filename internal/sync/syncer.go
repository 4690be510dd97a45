// Package sync implements the gateway template-synchronization engine:
// reconciling backend agent records with a remote, occasionally-unreachable
// gateway, rotating and verifying per-agent auth tokens, and retrying
// gateway calls with bounded jittered backoff.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openclaw/missionctl/internal/gateway"
	"github.com/openclaw/missionctl/internal/model"
	"github.com/openclaw/missionctl/internal/token"
)

// Store is the narrow persistence surface the orchestrator needs. The
// concrete store.Store satisfies it.
type Store interface {
	ListBoardsByGateway(ctx context.Context, gatewayID string) ([]*model.Board, error)
	// PausedBoardIDs returns the boards whose most recent "/pause"/"/resume"
	// chat command is "/pause". Earlier commands are irrelevant.
	PausedBoardIDs(ctx context.Context, boardIDs []string) (map[string]bool, error)
	// ListAgentsByBoards returns agents on the given boards ordered by
	// creation time, oldest first.
	ListAgentsByBoards(ctx context.Context, boardIDs []string) ([]*model.Agent, error)
	FindAgentBySessionKey(ctx context.Context, sessionKey string) (*model.Agent, error)
	SetAgentTokenHash(ctx context.Context, agentID, tokenHash string) error
}

// ProvisionOptions carries the per-run provisioning flags.
type ProvisionOptions struct {
	ForceBootstrap bool
	ResetSession   bool
}

// Provisioner re-provisions an agent's workspace files against the gateway.
type Provisioner interface {
	ProvisionAgent(ctx context.Context, agent *model.Agent, board *model.Board, gw *model.Gateway, authToken string, opts ProvisionOptions) error
	ProvisionMainAgent(ctx context.Context, agent *model.Agent, gw *model.Gateway, authToken string, opts ProvisionOptions) error
}

// Options configure one sync invocation.
type Options struct {
	IncludeMain    bool
	ResetSessions  bool
	RotateTokens   bool
	ForceBootstrap bool
	BoardID        string // narrow the run to one board when non-empty
}

// Syncer drives gateway template synchronization. Gateway calls are issued
// sequentially, agent by agent; no parallel fan-out within one invocation.
// Independent invocations (different gateways) are safe to run concurrently.
type Syncer struct {
	store       Store
	provisioner Provisioner
	logger      *slog.Logger

	// Overridable in tests.
	newCaller  func(cfg gateway.Config) gateway.Caller
	newBackoff func() *Backoff
	timeout    time.Duration
}

// New returns a Syncer over the given store and provisioner.
func New(st Store, prov Provisioner, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Syncer{
		store:       st,
		provisioner: prov,
		logger:      logger,
		timeout:     DefaultTimeout,
		newCaller: func(cfg gateway.Config) gateway.Caller {
			return gateway.NewClient(cfg)
		},
	}
	s.newBackoff = func() *Backoff { return NewBackoff(s.timeout) }
	return s
}

// Sync reconciles gateway-side agent state with backend records and returns
// a result regardless of recoverable errors. The returned error is non-nil
// only for persistence-layer failures or context cancellation; all gateway
// and per-agent failures are reported inside the result.
func (s *Syncer) Sync(ctx context.Context, gw *model.Gateway, opts Options) (*Result, error) {
	res := &Result{
		GatewayID:     gw.ID,
		IncludeMain:   opts.IncludeMain,
		ResetSessions: opts.ResetSessions,
	}
	if gw.URL == "" {
		res.addError(SyncError{Message: "Gateway URL is not configured for this gateway."})
		return res, nil
	}

	caller := s.newCaller(gateway.Config{URL: gw.URL, Token: gw.Token})
	backoff := s.newBackoff()

	s.logger.Info("gateway sync started",
		"gateway", gw.ID, "include_main", opts.IncludeMain, "rotate_tokens", opts.RotateTokens)

	// PROBING: wait for the gateway to be reachable (e.g. while it restarts)
	// under a fresh deadline. Nothing has been touched yet, so any hard
	// failure here aborts with a single top-level error.
	if _, err := backoff.Run(ctx, func(ctx context.Context) (any, error) {
		return caller.Call(ctx, "agents.list", nil)
	}); err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.addError(SyncError{Message: err.Error()})
		return res, nil
	}

	boards, err := s.store.ListBoardsByGateway(ctx, gw.ID)
	if err != nil {
		return res, fmt.Errorf("listing boards: %w", err)
	}
	boardsByID := make(map[string]*model.Board, len(boards))
	for _, b := range boards {
		boardsByID[b.ID] = b
	}
	if opts.BoardID != "" {
		board, ok := boardsByID[opts.BoardID]
		if !ok {
			res.addError(SyncError{
				BoardID: opts.BoardID,
				Message: "Board does not belong to this gateway.",
			})
			return res, nil
		}
		boardsByID = map[string]*model.Board{opts.BoardID: board}
	}

	boardIDs := make([]string, 0, len(boardsByID))
	for id := range boardsByID {
		boardIDs = append(boardIDs, id)
	}

	paused, err := s.store.PausedBoardIDs(ctx, boardIDs)
	if err != nil {
		return res, fmt.Errorf("resolving paused boards: %w", err)
	}

	var agents []*model.Agent
	if len(boardIDs) > 0 {
		agents, err = s.store.ListAgentsByBoards(ctx, boardIDs)
		if err != nil {
			return res, fmt.Errorf("listing agents: %w", err)
		}
	}

	// RECONCILING_AGENTS: one agent at a time, oldest first. A per-agent
	// failure never blocks the others; only a deadline timeout aborts the
	// whole run, because the gateway is then presumed down.
	for _, agent := range agents {
		var board *model.Board
		if agent.BoardID != nil {
			board = boardsByID[*agent.BoardID]
		}
		if board == nil {
			res.AgentsSkipped++
			res.addError(SyncError{
				AgentID:   agent.ID,
				AgentName: agent.Name,
				BoardID:   derefOr(agent.BoardID, ""),
				Message:   "Skipping agent: board not found for agent.",
			})
			continue
		}
		if paused[board.ID] {
			// Pausing is an operator decision, not a fault: silent skip.
			res.AgentsSkipped++
			continue
		}

		tgt := tokenTarget{agent: agent, boardID: board.ID, gatewayAgentID: GatewayAgentID(agent)}
		authToken, ok, err := s.reconcileToken(ctx, caller, backoff, tgt, opts.RotateTokens, res)
		if err != nil {
			var te *TimeoutError
			if errors.As(err, &te) {
				return res, nil
			}
			return res, err
		}
		if !ok {
			continue
		}

		_, err = backoff.Run(ctx, func(ctx context.Context) (any, error) {
			return nil, s.provisioner.ProvisionAgent(ctx, agent, board, gw, authToken, ProvisionOptions{
				ForceBootstrap: opts.ForceBootstrap,
				ResetSession:   opts.ResetSessions,
			})
		})
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.AgentsSkipped++
			var te *TimeoutError
			if errors.As(err, &te) {
				res.addError(SyncError{
					AgentID: agent.ID, AgentName: agent.Name, BoardID: board.ID,
					Message: err.Error(),
				})
				return res, nil
			}
			res.addError(SyncError{
				AgentID: agent.ID, AgentName: agent.Name, BoardID: board.ID,
				Message: fmt.Sprintf("Failed to sync templates: %v", err),
			})
			continue
		}
		res.AgentsUpdated++
	}

	// RECONCILING_MAIN: best effort, independent of per-agent outcomes.
	if opts.IncludeMain {
		s.syncMainAgent(ctx, caller, backoff, gw, opts, res)
	}

	s.logger.Info("gateway sync finished",
		"gateway", gw.ID,
		"updated", res.AgentsUpdated,
		"skipped", res.AgentsSkipped,
		"main_updated", res.MainUpdated,
		"errors", len(res.Errors))
	return res, nil
}

// syncMainAgent reconciles the gateway's distinguished "main" agent. Failures
// here never disturb the per-agent results already accumulated.
func (s *Syncer) syncMainAgent(ctx context.Context, caller gateway.Caller, backoff *Backoff, gw *model.Gateway, opts Options, res *Result) {
	mainAgent, err := s.store.FindAgentBySessionKey(ctx, gw.MainSessionKey)
	if err != nil {
		res.addError(SyncError{Message: fmt.Sprintf("Looking up gateway main agent: %v", err)})
		return
	}
	if mainAgent == nil {
		res.addError(SyncError{
			Message: "Gateway main agent record not found; skipping main agent template sync.",
		})
		return
	}

	mainGatewayID, err := s.gatewayDefaultAgentID(ctx, caller, backoff, gw.MainSessionKey)
	if err != nil {
		res.addError(SyncError{AgentID: mainAgent.ID, AgentName: mainAgent.Name, Message: err.Error()})
		return
	}
	if mainGatewayID == "" {
		res.addError(SyncError{
			AgentID: mainAgent.ID, AgentName: mainAgent.Name,
			Message: "Unable to resolve gateway default agent id for main agent.",
		})
		return
	}

	tgt := tokenTarget{agent: mainAgent, gatewayAgentID: mainGatewayID, main: true}
	authToken, ok, err := s.reconcileToken(ctx, caller, backoff, tgt, opts.RotateTokens, res)
	if err != nil || !ok {
		return
	}

	_, err = backoff.Run(ctx, func(ctx context.Context) (any, error) {
		return nil, s.provisioner.ProvisionMainAgent(ctx, mainAgent, gw, authToken, ProvisionOptions{
			ForceBootstrap: opts.ForceBootstrap,
			ResetSession:   opts.ResetSessions,
		})
	})
	if err != nil {
		var te *TimeoutError
		if errors.As(err, &te) {
			res.addError(SyncError{AgentID: mainAgent.ID, AgentName: mainAgent.Name, Message: err.Error()})
			return
		}
		res.addError(SyncError{
			AgentID: mainAgent.ID, AgentName: mainAgent.Name,
			Message: fmt.Sprintf("Failed to sync main agent templates: %v", err),
		})
		return
	}
	res.MainUpdated = true
}

// tokenTarget identifies the agent record a token reconciliation acts on.
type tokenTarget struct {
	agent          *model.Agent
	boardID        string
	gatewayAgentID string
	main           bool
}

// reconcileToken is the shared check-token / rotate / verify sequence used
// for both per-board agents and the main agent. It returns the auth token to
// provision with, or ok=false when the agent should be skipped (the skip has
// already been counted and reported). A non-nil error is either a
// *TimeoutError (gateway presumed down, sync must abort) or a persistence
// failure.
func (s *Syncer) reconcileToken(ctx context.Context, caller gateway.Caller, backoff *Backoff, tgt tokenTarget, rotate bool, res *Result) (string, bool, error) {
	authToken, err := s.fetchAuthToken(ctx, caller, backoff, tgt.gatewayAgentID)
	if err != nil {
		res.addError(SyncError{
			AgentID: tgt.agent.ID, AgentName: tgt.agent.Name, BoardID: tgt.boardID,
			Message: err.Error(),
		})
		return "", false, err
	}

	if authToken == "" {
		if !rotate {
			if tgt.main {
				res.addError(SyncError{
					AgentID: tgt.agent.ID, AgentName: tgt.agent.Name,
					Message: "Skipping main agent: unable to read AUTH_TOKEN from TOOLS.md.",
				})
			} else {
				res.AgentsSkipped++
				res.addError(SyncError{
					AgentID: tgt.agent.ID, AgentName: tgt.agent.Name, BoardID: tgt.boardID,
					Message: "Skipping agent: unable to read AUTH_TOKEN from TOOLS.md (run with rotate_tokens=true to re-key).",
				})
			}
			return "", false, nil
		}
		raw, err := s.rotateToken(ctx, tgt.agent)
		if err != nil {
			return "", false, err
		}
		authToken = raw
	}

	if tgt.agent.TokenHash != nil && !token.Verify(authToken, *tgt.agent.TokenHash) {
		// Token drift does not block template sync; optionally re-key.
		if rotate {
			raw, err := s.rotateToken(ctx, tgt.agent)
			if err != nil {
				return "", false, err
			}
			authToken = raw
		} else if tgt.main {
			res.addError(SyncError{
				AgentID: tgt.agent.ID, AgentName: tgt.agent.Name,
				Message: "Warning: AUTH_TOKEN in TOOLS.md does not match backend token hash (main agent auth may be broken).",
			})
		} else {
			res.addError(SyncError{
				AgentID: tgt.agent.ID, AgentName: tgt.agent.Name, BoardID: tgt.boardID,
				Message: "Warning: AUTH_TOKEN in TOOLS.md does not match backend token hash (agent auth may be broken).",
			})
		}
	}

	return authToken, true, nil
}

// rotateToken generates a fresh raw token and durably persists its hash
// before the raw value is used anywhere, so a crash mid-sync leaves the
// rotated credential in its hashed form.
func (s *Syncer) rotateToken(ctx context.Context, agent *model.Agent) (string, error) {
	raw, err := token.Generate()
	if err != nil {
		return "", err
	}
	digest, err := token.Hash(raw)
	if err != nil {
		return "", err
	}
	if err := s.store.SetAgentTokenHash(ctx, agent.ID, digest); err != nil {
		return "", fmt.Errorf("persisting rotated token hash: %w", err)
	}
	agent.TokenHash = &digest
	s.logger.Info("agent token rotated", "agent", agent.ID)
	return raw, nil
}

// fetchAuthToken reads the agent's current raw credential from the gateway's
// TOOLS.md. Retrieval failures yield ("", nil) — no token — except when the
// retry deadline itself expired, which escalates so the sync can abort.
func (s *Syncer) fetchAuthToken(ctx context.Context, caller gateway.Caller, backoff *Backoff, agentGatewayID string) (string, error) {
	payload, err := backoff.Run(ctx, func(ctx context.Context) (any, error) {
		return caller.Call(ctx, "agents.files.get", map[string]any{
			"agentId": agentGatewayID,
			"name":    "TOOLS.md",
		})
	})
	if err != nil {
		var te *TimeoutError
		if errors.As(err, &te) {
			return "", err
		}
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) {
			return "", nil
		}
		return "", err
	}
	content := fileContent(payload)
	if content == "" {
		return "", nil
	}
	return strings.TrimSpace(ParseToolsFile(content)["AUTH_TOKEN"]), nil
}

// gatewayDefaultAgentID resolves the gateway's own notion of its default
// agent: a live listing first, then parsing the configured session key.
func (s *Syncer) gatewayDefaultAgentID(ctx context.Context, caller gateway.Caller, backoff *Backoff, fallbackSessionKey string) (string, error) {
	payload, err := backoff.Run(ctx, func(ctx context.Context) (any, error) {
		return caller.Call(ctx, "agents.list", nil)
	})
	if err != nil {
		var te *TimeoutError
		if errors.As(err, &te) {
			return "", err
		}
		var gwErr *gateway.Error
		if !errors.As(err, &gwErr) {
			return "", err
		}
		// Listing unavailable: fall through to the session-key fallback.
	} else if id := ExtractAgentID(payload); id != "" {
		return id, nil
	}
	return AgentIDFromSessionKey(fallbackSessionKey), nil
}

// fileContent extracts file content from the gateway's heterogeneous
// agents.files.get response shapes: a bare string, {"content": ...}, or
// {"file": {"content": ...}}.
func fileContent(payload any) string {
	switch v := payload.(type) {
	case string:
		return v
	case map[string]any:
		if content, ok := v["content"].(string); ok {
			return content
		}
		if file, ok := v["file"].(map[string]any); ok {
			if content, ok := file["content"].(string); ok {
				return content
			}
		}
	}
	return ""
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
