// Package channel holds the per-channel configuration types.
package channel

type ChannelsConfig struct {
	Console   ConsoleConfig   `yaml:"console"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Slack     SlackConfig     `yaml:"slack"`
}

func DefaultChannelsConfig() ChannelsConfig {
	return ChannelsConfig{
		Console:   DefaultConsoleConfig(),
		WebSocket: DefaultWebSocketConfig(),
		Telegram:  DefaultTelegramConfig(),
		Slack:     DefaultSlackConfig(),
	}
}

// ConsoleConfig configures the interactive terminal channel.
type ConsoleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Prompt  string `yaml:"prompt"`
}

func DefaultConsoleConfig() ConsoleConfig {
	return ConsoleConfig{Enabled: true, Prompt: "You: "}
}

// WebSocketConfig configures the WebSocket line-stream channel.
type WebSocketConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Listen    string   `yaml:"listen"` // host:port
	Path      string   `yaml:"path"`
	AllowFrom []string `yaml:"allowFrom"`
}

func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		Listen:    "127.0.0.1:18789",
		Path:      "/ws",
		AllowFrom: []string{},
	}
}
