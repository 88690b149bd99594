// Package config defines the configuration schema and the YAML loader.
package config

import (
	"os"
	"path/filepath"

	agentcfg "github.com/hearthmind/hearthmind/internal/config/agent"
	channelcfg "github.com/hearthmind/hearthmind/internal/config/channel"
	providercfg "github.com/hearthmind/hearthmind/internal/config/provider"
	toolcfg "github.com/hearthmind/hearthmind/internal/config/tool"
	"github.com/hearthmind/hearthmind/internal/devices"
	"github.com/hearthmind/hearthmind/internal/llmserver"
)

// SessionsConfig controls session persistence and idle eviction.
type SessionsConfig struct {
	// Dir overrides the default sessions directory (<data dir>/sessions).
	Dir string `yaml:"dir,omitempty"`
	// SweepEvery is a cron schedule for the idle-session sweep.
	SweepEvery string `yaml:"sweepEvery"`
	// IdleTimeout is how long a session may sit untouched before eviction.
	IdleTimeout string `yaml:"idleTimeout"`
}

func defaultSessionsConfig() SessionsConfig {
	return SessionsConfig{
		SweepEvery:  "@every 10m",
		IdleTimeout: "2h",
	}
}

// Config is the root configuration object, loaded from
// ~/.hearthmind/config.yaml.
type Config struct {
	LogLevel  string                       `yaml:"logLevel"` // debug|info|warn|error
	Agents    agentcfg.AgentsConfig        `yaml:"agents"`
	Providers providercfg.ProvidersConfig  `yaml:"providers"`
	Channels  channelcfg.ChannelsConfig    `yaml:"channels"`
	Tools     toolcfg.ToolsConfig          `yaml:"tools"`
	Devices   []devices.DeviceConfig       `yaml:"devices"`
	LLMServer llmserver.Config             `yaml:"llmServer"`
	Sessions  SessionsConfig               `yaml:"sessions"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		Agents:    agentcfg.DefaultAgentsConfig(),
		Providers: providercfg.DefaultProvidersConfig(),
		Channels:  channelcfg.DefaultChannelsConfig(),
		Tools:     toolcfg.DefaultToolsConfig(),
		Sessions:  defaultSessionsConfig(),
	}
}

// WorkspacePath returns the expanded absolute path to the agent workspace.
func (c *Config) WorkspacePath() string {
	ws := c.Agents.Defaults.Workspace
	if ws == "" {
		ws = "~/.hearthmind/workspace"
	}
	return expandHome(ws)
}

// SessionsDir returns the expanded sessions directory.
func (c *Config) SessionsDir() string {
	if c.Sessions.Dir != "" {
		return expandHome(c.Sessions.Dir)
	}
	return filepath.Join(DataDir(), "sessions")
}

// ProviderByName returns the ProviderConfig for a registry name, or nil.
func (c *Config) ProviderByName(name string) *providercfg.ProviderConfig {
	return c.Providers.ByName(name)
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
