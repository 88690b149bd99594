package channels

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hearthmind/hearthmind/internal/config/channel"
)

// Manager owns the set of enabled channels and runs them concurrently.
type Manager struct {
	channels map[string]Channel
}

// NewManager builds every channel that is enabled in config. All channels
// share the one Responder, which routes requests into per-chat sessions.
func NewManager(cfg *channel.ChannelsConfig, respond Responder) *Manager {
	m := &Manager{channels: make(map[string]Channel)}

	if cfg.Console.Enabled {
		m.channels["console"] = NewConsoleChannel(&cfg.Console, respond)
	}
	if cfg.WebSocket.Enabled {
		m.channels["websocket"] = NewWebSocketChannel(&cfg.WebSocket, respond)
	}
	if cfg.Telegram.Enabled {
		m.channels["telegram"] = NewTelegramChannel(&cfg.Telegram, respond)
	}
	if cfg.Slack.Enabled {
		m.channels["slack"] = NewSlackChannel(&cfg.Slack, respond)
	}
	return m
}

// EnabledChannels returns the names of all enabled channels.
func (m *Manager) EnabledChannels() []string {
	names := make([]string, 0, len(m.channels))
	for n := range m.channels {
		names = append(names, n)
	}
	return names
}

// Get returns a channel by name, or nil.
func (m *Manager) Get(name string) Channel { return m.channels[name] }

// StartAll runs every channel until ctx is cancelled. A channel failing
// takes the group down so the gateway can restart cleanly.
func (m *Manager) StartAll(ctx context.Context) error {
	if len(m.channels) == 0 {
		slog.Warn("no channels enabled")
		<-ctx.Done()
		return ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	for name, ch := range m.channels {
		slog.Info("starting channel", "channel", name)
		g.Go(func() error { return ch.Start(gctx) })
	}
	return g.Wait()
}
