// Package tool holds tool-level configuration.
package tool

import "github.com/hearthmind/hearthmind/internal/mcp"

// WebSearchConfig configures the Brave web-search tool.
type WebSearchConfig struct {
	APIKey     string `yaml:"apiKey"`
	MaxResults int    `yaml:"maxResults"`
	// MaxChars caps the readable text extracted from a fetched page.
	MaxChars int `yaml:"maxChars"`
}

func DefaultWebSearchConfig() WebSearchConfig {
	return WebSearchConfig{MaxResults: 5, MaxChars: 8000}
}

// EvalToolConfig configures the code-evaluation tool.
type EvalToolConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Interpreter string `yaml:"interpreter"` // e.g. "node", "python3"
	Timeout     int    `yaml:"timeout"`     // seconds
}

func DefaultEvalToolConfig() EvalToolConfig {
	return EvalToolConfig{Interpreter: "node", Timeout: 30}
}

// ToolsConfig groups all tool-level settings.
type ToolsConfig struct {
	Web        WebSearchConfig             `yaml:"web"`
	Eval       EvalToolConfig              `yaml:"eval"`
	MCPServers map[string]mcp.ServerConfig `yaml:"mcpServers"`
}

func DefaultToolsConfig() ToolsConfig {
	return ToolsConfig{
		Web:        DefaultWebSearchConfig(),
		Eval:       DefaultEvalToolConfig(),
		MCPServers: map[string]mcp.ServerConfig{},
	}
}
