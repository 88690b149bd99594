// Package agent holds the agent-behaviour configuration.
package agent

// AgentDefaults holds default values for agent behaviour.
type AgentDefaults struct {
	Workspace    string  `yaml:"workspace"`
	Model        string  `yaml:"model"`
	SystemPrompt string  `yaml:"systemPrompt,omitempty"`
	MaxTokens    int     `yaml:"maxTokens"`
	Temperature  float64 `yaml:"temperature"`
	MaxToolIter  int     `yaml:"maxToolIterations"`
	// LegacyFunctions switches the request wire format to the deprecated
	// functions/function_call fields for backends that never learned tools.
	LegacyFunctions bool `yaml:"legacyFunctions"`
}

type AgentsConfig struct {
	Defaults AgentDefaults `yaml:"defaults"`
}

func defaultAgentDefaults() AgentDefaults {
	return AgentDefaults{
		Workspace:   "~/.hearthmind/workspace",
		Model:       "anthropic/claude-sonnet-4",
		MaxTokens:   8192,
		Temperature: 0.7,
		MaxToolIter: 24,
	}
}

func DefaultAgentsConfig() AgentsConfig {
	return AgentsConfig{Defaults: defaultAgentDefaults()}
}
