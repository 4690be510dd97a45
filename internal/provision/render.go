// Package provision renders agent workspace documents and delivers
// provisioning messages to gateways.
package provision

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/openclaw/missionctl/internal/sync"
)

//go:embed templates/*.md
var templatesFS embed.FS

// TemplateFiles is the fixed, ordered set of workspace documents. Every name
// appears in every provisioning message, present or not.
var TemplateFiles = []string{
	"AGENTS.md",
	"BOOT.md",
	"BOOTSTRAP.md",
	"HEARTBEAT.md",
	"IDENTITY.md",
	"SOUL.md",
	"TOOLS.md",
	"USER.md",
}

// DefaultWorkspaceRoot is where gateways keep agent workspaces unless
// configured otherwise.
const DefaultWorkspaceRoot = "~/.openclaw/workspaces"

// WorkspacePath derives an agent's workspace directory from the configured
// root and its display name.
func WorkspacePath(root, agentName string) string {
	if root == "" {
		root = DefaultWorkspaceRoot
	}
	return strings.TrimRight(root, "/") + "/" + sync.Slugify(agentName)
}

// MessageParams carries the identity a provisioning message is rendered for.
type MessageParams struct {
	AgentName     string
	AgentID       string
	SessionKey    string
	WorkspacePath string
	BaseURL       string
	// Vars are substituted into template bodies wherever {{KEY}} appears.
	// Unknown placeholders are left for the receiving agent to fill.
	Vars map[string]string
}

// Renderer builds provisioning messages from the embedded template set.
type Renderer struct {
	fsys fs.FS
}

// NewRenderer returns a Renderer over the embedded templates.
func NewRenderer() *Renderer {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return &Renderer{fsys: sub}
}

// NewRendererFS returns a Renderer over an arbitrary template tree.
func NewRendererFS(fsys fs.FS) *Renderer {
	return &Renderer{fsys: fsys}
}

// read returns the trimmed template content, or "" when the file is absent.
func (r *Renderer) read(name string) string {
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// renderFileBlock emits one named fenced block. Absent templates render as a
// stub so the receiving agent still creates the file.
func renderFileBlock(name, content string) string {
	body := content
	if body == "" {
		body = fmt.Sprintf("# %s\n\nTODO: add content\n", name)
	}
	return fmt.Sprintf("\n%s\n```md\n%s\n```\n", name, body)
}

// substitute replaces {{KEY}} markers for every known var.
func substitute(content string, vars map[string]string) string {
	for key, val := range vars {
		content = strings.ReplaceAll(content, "{{"+key+"}}", val)
	}
	return content
}

// BuildMessage renders the full provisioning payload: a fixed instructional
// preamble followed by every template file block in order.
func (r *Renderer) BuildMessage(p MessageParams) string {
	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = "UNSET"
	}
	baseURLStep := p.BaseURL
	if baseURLStep == "" {
		baseURLStep = "{{BASE_URL}}"
	}

	var blocks strings.Builder
	for _, name := range TemplateFiles {
		content := substitute(r.read(name), p.Vars)
		blocks.WriteString(renderFileBlock(name, content))
	}

	return "Provision a new OpenClaw agent workspace.\n\n" +
		fmt.Sprintf("Agent name: %s\n", p.AgentName) +
		fmt.Sprintf("Agent id: %s\n", p.AgentID) +
		fmt.Sprintf("Session key: %s\n", p.SessionKey) +
		fmt.Sprintf("Workspace path: %s\n\n", p.WorkspacePath) +
		fmt.Sprintf("Base URL: %s\n\n", baseURL) +
		"Steps:\n" +
		"1) Create the workspace directory.\n" +
		"2) Write the files below with the exact contents.\n" +
		fmt.Sprintf("3) Set BASE_URL to %s for the agent runtime.\n", baseURLStep) +
		"4) Replace placeholders like {{AGENT_NAME}}, {{AGENT_ID}}, {{BASE_URL}}, {{AUTH_TOKEN}}.\n" +
		"5) Leave BOOTSTRAP.md in place; the agent should run it on first start and delete it.\n" +
		"6) Register agent id in OpenClaw so it uses this workspace path.\n\n" +
		"Files:" + blocks.String()
}
