package channels

import (
	"context"
	"fmt"
	"os"

	"github.com/hearthmind/hearthmind/internal/agent"
	"github.com/hearthmind/hearthmind/internal/config/channel"
	"github.com/hearthmind/hearthmind/internal/schema"
	"github.com/hearthmind/hearthmind/internal/session"
)

// ConsoleChannel serves the local terminal through a session coordinator:
// stdin is the line stream, replies stream to stdout as they are generated.
type ConsoleChannel struct {
	Base
	cfg *channel.ConsoleConfig
}

func NewConsoleChannel(cfg *channel.ConsoleConfig, respond Responder) *ConsoleChannel {
	return &ConsoleChannel{
		Base: NewBase("console", respond, schema.TextOnly(), nil),
		cfg:  cfg,
	}
}

func (c *ConsoleChannel) Start(ctx context.Context) error {
	fmt.Println("Console ready. Press Ctrl+C to quit.")

	coord := session.NewCoordinator(os.Stdin, os.Stdout,
		func(ctx context.Context, text string, source agent.MessageSource, onDelta agent.DeltaFunc) (string, error) {
			answer, _, err := c.Dispatch(ctx, Request{
				SenderID: "local",
				ChatID:   "local",
				Text:     text,
				Source:   source,
				OnDelta:  onDelta,
			})
			return answer, err
		})
	coord.Prompt = c.cfg.Prompt
	return coord.Run(ctx)
}
