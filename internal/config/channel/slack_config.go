package channel

// SlackDMConfig controls direct-message behaviour in Slack.
type SlackDMConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Policy    string   `yaml:"policy"` // "open" or "allowlist"
	AllowFrom []string `yaml:"allowFrom"`
}

func DefaultSlackDMConfig() SlackDMConfig {
	return SlackDMConfig{Enabled: true, Policy: "open", AllowFrom: []string{}}
}

// SlackConfig configures the Slack channel (Socket Mode).
type SlackConfig struct {
	Enabled        bool          `yaml:"enabled"`
	BotToken       string        `yaml:"botToken"`
	AppToken       string        `yaml:"appToken"`
	ReplyInThread  bool          `yaml:"replyInThread"`
	ReactEmoji     string        `yaml:"reactEmoji"`
	GroupPolicy    string        `yaml:"groupPolicy"` // "open", "mention", "allowlist"
	GroupAllowFrom []string      `yaml:"groupAllowFrom"`
	DM             SlackDMConfig `yaml:"dm"`
}

func DefaultSlackConfig() SlackConfig {
	return SlackConfig{
		ReplyInThread:  true,
		ReactEmoji:     "eyes",
		GroupPolicy:    "mention",
		GroupAllowFrom: []string{},
		DM:             DefaultSlackDMConfig(),
	}
}
