package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hearthmind/hearthmind/internal/channels"
	"github.com/hearthmind/hearthmind/internal/config"
	"github.com/hearthmind/hearthmind/internal/dependency"
	"github.com/hearthmind/hearthmind/internal/schema"
)

var (
	agentMessage string
	agentSession string
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Chat with the assistant in the terminal",
	Long:  "Chat with the assistant. With -m, send one message and print the reply; otherwise start an interactive console.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgent()
	},
}

func init() {
	agentCmd.Flags().StringVarP(&agentMessage, "message", "m", "", "send a single message and exit")
	agentCmd.Flags().StringVarP(&agentSession, "session", "s", "cli", "session id to use")
}

func runAgent() error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if agentMessage != "" {
		streamed := false
		answer, err := container.Responder().Respond(ctx, channels.Request{
			Channel:  "cli",
			SenderID: "local",
			ChatID:   agentSession,
			Text:     agentMessage,
			Caps:     schema.TextOnly(),
			OnDelta: func(delta string) bool {
				streamed = true
				fmt.Print(delta)
				return true
			},
		})
		if err != nil {
			return err
		}
		if streamed {
			fmt.Println()
		} else if answer != "" {
			fmt.Println(answer)
		}
		return nil
	}

	console := channels.NewConsoleChannel(&cfg.Channels.Console, container.Responder())
	if err := console.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	fmt.Fprintln(os.Stdout)
	return nil
}
