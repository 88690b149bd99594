package channel

// TelegramConfig configures the Telegram channel.
type TelegramConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Token          string   `yaml:"token"`
	AllowFrom      []string `yaml:"allowFrom"`
	Proxy          string   `yaml:"proxy,omitempty"`
	ReplyToMessage bool     `yaml:"replyToMessage"`
}

func DefaultTelegramConfig() TelegramConfig {
	return TelegramConfig{AllowFrom: []string{}}
}
