// Package mcp bridges external MCP tool servers (stdio subprocess or HTTP)
// into the tool registry.
package mcp

// ServerConfig holds the connection parameters for a single MCP server.
// Either Command (stdio subprocess) or URL (HTTP endpoint) must be set.
type ServerConfig struct {
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	URL     string            `yaml:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}
