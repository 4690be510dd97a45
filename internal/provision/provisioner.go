package provision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openclaw/missionctl/internal/gateway"
	"github.com/openclaw/missionctl/internal/model"
	"github.com/openclaw/missionctl/internal/sync"
)

// Config carries the environment a provisioner renders against.
type Config struct {
	// WorkspaceRoot is the gateway-side directory agent workspaces live in.
	WorkspaceRoot string
	// BaseURL is the externally reachable backend URL agents call home to.
	BaseURL string
}

// GatewayProvisioner delivers provisioning messages through a gateway's main
// session. It satisfies sync.Provisioner.
type GatewayProvisioner struct {
	cfg      Config
	renderer *Renderer
	logger   *slog.Logger

	// Overridable in tests.
	newCaller func(cfg gateway.Config) gateway.Caller
}

// NewGatewayProvisioner returns a provisioner rendering from the embedded
// templates.
func NewGatewayProvisioner(cfg Config, logger *slog.Logger) *GatewayProvisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &GatewayProvisioner{
		cfg:      cfg,
		renderer: NewRenderer(),
		logger:   logger,
		newCaller: func(c gateway.Config) gateway.Caller {
			return gateway.NewClient(c)
		},
	}
}

// ProvisionAgent renders the agent's workspace documents and hands them to
// the gateway's main session for delivery.
func (p *GatewayProvisioner) ProvisionAgent(ctx context.Context, agent *model.Agent, board *model.Board, gw *model.Gateway, authToken string, opts sync.ProvisionOptions) error {
	agentID := sync.GatewayAgentID(agent)
	vars := p.baseVars(agent.Name, agentID, agent.SessionKeyValue(), authToken)
	if board != nil {
		vars["BOARD_ID"] = board.ID
	}
	return p.deliver(ctx, gw, agentID, agent, vars, opts)
}

// ProvisionMainAgent provisions the gateway's distinguished main agent. The
// session key comes from the gateway record rather than the agent row.
func (p *GatewayProvisioner) ProvisionMainAgent(ctx context.Context, agent *model.Agent, gw *model.Gateway, authToken string, opts sync.ProvisionOptions) error {
	agentID := sync.AgentIDFromSessionKey(gw.MainSessionKey)
	if agentID == "" {
		agentID = sync.GatewayAgentID(agent)
	}
	vars := p.baseVars(agent.Name, agentID, gw.MainSessionKey, authToken)
	return p.deliver(ctx, gw, agentID, agent, vars, opts)
}

func (p *GatewayProvisioner) baseVars(name, agentID, sessionKey, authToken string) map[string]string {
	return map[string]string{
		"AGENT_NAME":     name,
		"AGENT_ID":       agentID,
		"SESSION_KEY":    sessionKey,
		"WORKSPACE_PATH": WorkspacePath(p.cfg.WorkspaceRoot, name),
		"BASE_URL":       p.cfg.BaseURL,
		"AUTH_TOKEN":     authToken,
	}
}

func (p *GatewayProvisioner) deliver(ctx context.Context, gw *model.Gateway, agentID string, agent *model.Agent, vars map[string]string, opts sync.ProvisionOptions) error {
	if gw.MainSessionKey == "" {
		// Nowhere to deliver to. Not a fault of this agent.
		p.logger.Warn("gateway has no main session key, skipping provisioning delivery",
			"gateway", gw.ID, "agent", agent.ID)
		return nil
	}

	message := p.renderer.BuildMessage(MessageParams{
		AgentName:     agent.Name,
		AgentID:       agentID,
		SessionKey:    vars["SESSION_KEY"],
		WorkspacePath: vars["WORKSPACE_PATH"],
		BaseURL:       p.cfg.BaseURL,
		Vars:          vars,
	})

	caller := p.newCaller(gateway.Config{URL: gw.URL, Token: gw.Token})
	_, err := caller.Call(ctx, "sessions.send", map[string]any{
		"sessionKey":     gw.MainSessionKey,
		"message":        message,
		"deliver":        false,
		"agentId":        agentID,
		"forceBootstrap": opts.ForceBootstrap,
		"resetSession":   opts.ResetSession,
	})
	if err != nil {
		return fmt.Errorf("delivering provisioning message: %w", err)
	}
	p.logger.Info("provisioning message delivered",
		"gateway", gw.ID, "agent", agent.ID, "gateway_agent", agentID)
	return nil
}
