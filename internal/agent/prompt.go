package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// ContextBuilder assembles the system prompt: identity, operator-authored
// workspace files, and skills.
type ContextBuilder struct {
	workspace string
	identity  string // optional override from config
	skills    *SkillsLoader
}

// bootstrapFiles lists workspace files folded into the system prompt.
var bootstrapFiles = []string{"AGENTS.md", "IDENTITY.md", "USER.md", "HOME.md"}

func NewContextBuilder(workspace, identity string) *ContextBuilder {
	return &ContextBuilder{
		workspace: workspace,
		identity:  identity,
		skills:    NewSkillsLoader(workspace),
	}
}

// BuildSystemPrompt assembles the full system prompt.
func (cb *ContextBuilder) BuildSystemPrompt() string {
	var parts []string

	parts = append(parts, cb.buildIdentity())

	if bootstrap := cb.loadBootstrapFiles(); bootstrap != "" {
		parts = append(parts, bootstrap)
	}
	if skills := cb.skills.PromptSection(); skills != "" {
		parts = append(parts, "# Skills\n\n"+skills)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func (cb *ContextBuilder) buildIdentity() string {
	if cb.identity != "" {
		return cb.identity
	}

	now := time.Now().Format("2006-01-02 15:04 (Monday)")
	tz, _ := time.Now().Zone()
	if tz == "" {
		tz = "UTC"
	}
	osName := runtime.GOOS
	if osName == "darwin" {
		osName = "macOS"
	}

	return fmt.Sprintf(`# Hearthmind

You are Hearthmind, the conversational assistant for this home. You can see
and control the home's devices through your tools, look things up on the web,
and keep notes for the household.

## Current Time
%s (%s)

## Runtime
%s %s, Go %s

Guidelines:
- Answer direct questions directly; call tools only when you need device
  state, an action, or outside information.
- Tool attachments you cannot view inline are referenced as chat:// links;
  pass such a link back to a tool that accepts it when the user asks you to
  work with the attachment.
- Be concise. One short sentence before a tool call is plenty.`,
		now, tz, osName, runtime.GOARCH, runtime.Version())
}

// loadBootstrapFiles reads the bootstrap markdown files from the workspace.
func (cb *ContextBuilder) loadBootstrapFiles() string {
	var parts []string
	for _, name := range bootstrapFiles {
		data, err := os.ReadFile(filepath.Join(cb.workspace, name))
		if err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("## %s\n\n%s", name, string(data)))
	}
	return strings.Join(parts, "\n\n")
}
