package sync

import (
	"regexp"
	"strings"

	"github.com/openclaw/missionctl/internal/idgen"
	"github.com/openclaw/missionctl/internal/model"
)

// sessionKeyMinParts is the minimum number of colon-delimited segments for a
// gateway agent id to be extractable from a session key.
const sessionKeyMinParts = 2

var nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases value, collapses non-alphanumeric runs to single
// hyphens, and trims. An empty result falls back to a random identifier so
// callers always get a usable gateway id.
func Slugify(value string) string {
	slug := strings.Trim(nonAlnumRun.ReplaceAllString(strings.ToLower(value), "-"), "-")
	if slug != "" {
		return slug
	}
	id, err := idgen.Generate("")
	if err != nil {
		return "agent"
	}
	return strings.ToLower(id)
}

// AgentIDFromSessionKey extracts the gateway agent id from a session key of
// the form "agent:<gateway-agent-id>:main". Returns "" when the key does not
// follow the convention.
func AgentIDFromSessionKey(key string) string {
	value := strings.TrimSpace(key)
	if value == "" || !strings.HasPrefix(value, model.SessionKeyPrefix) {
		return ""
	}
	parts := strings.Split(value, ":")
	if len(parts) < sessionKeyMinParts {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GatewayAgentID maps an agent record to its gateway-side identity: the
// session key's id segment when present, otherwise a deterministic slug of
// the agent's display name.
func GatewayAgentID(agent *model.Agent) string {
	key := agent.SessionKeyValue()
	if strings.HasPrefix(key, model.SessionKeyPrefix) {
		parts := strings.Split(key, ":")
		if len(parts) >= sessionKeyMinParts && parts[1] != "" {
			return parts[1]
		}
	}
	return Slugify(agent.Name)
}

// ExtractAgentID pulls a gateway-reported default agent id out of a
// heterogeneous JSON-like payload. Extraction strategies are tried in
// priority order: direct default-id fields, then well-known list keys, then
// the payload itself when it is already a list. Returns "" when no shape
// matches.
func ExtractAgentID(payload any) string {
	fromList := func(items any) string {
		list, ok := items.([]any)
		if !ok {
			return ""
		}
		for _, item := range list {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			for _, key := range []string{"id", "agentId", "agent_id"} {
				if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		}
		return ""
	}

	if _, ok := payload.([]any); ok {
		return fromList(payload)
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"defaultId", "default_id", "defaultAgentId", "default_agent_id"} {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	for _, key := range []string{"agents", "items", "list", "data"} {
		if id := fromList(obj[key]); id != "" {
			return id
		}
	}
	return ""
}
