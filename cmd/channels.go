package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthmind/hearthmind/internal/config"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Show channel configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChannels()
	},
}

func runChannels() error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return err
	}

	fmt.Println("Channels:")

	printChannel("console", cfg.Channels.Console.Enabled,
		fmt.Sprintf("prompt %q", cfg.Channels.Console.Prompt))
	printChannel("websocket", cfg.Channels.WebSocket.Enabled,
		fmt.Sprintf("ws://%s%s", cfg.Channels.WebSocket.Listen, cfg.Channels.WebSocket.Path))

	tgDetail := "no token"
	if cfg.Channels.Telegram.Token != "" {
		tgDetail = fmt.Sprintf("token set, %d allowed", len(cfg.Channels.Telegram.AllowFrom))
	}
	printChannel("telegram", cfg.Channels.Telegram.Enabled, tgDetail)

	slackDetail := "no tokens"
	if cfg.Channels.Slack.BotToken != "" && cfg.Channels.Slack.AppToken != "" {
		slackDetail = fmt.Sprintf("tokens set, group policy %q", cfg.Channels.Slack.GroupPolicy)
	}
	printChannel("slack", cfg.Channels.Slack.Enabled, slackDetail)

	return nil
}

func printChannel(name string, enabled bool, detail string) {
	mark := "✗"
	if enabled {
		mark = "✓"
	}
	fmt.Printf("  %s %-10s %s\n", mark, name, detail)
}
