package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hearthmind/hearthmind/internal/channels"
	"github.com/hearthmind/hearthmind/internal/config"
	"github.com/hearthmind/hearthmind/internal/dependency"
	"github.com/hearthmind/hearthmind/internal/heartbeat"
	"github.com/hearthmind/hearthmind/internal/schema"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the chat gateway with all enabled channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGateway()
	},
}

func runGateway() error {
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

	idle, err := time.ParseDuration(cfg.Sessions.IdleTimeout)
	if err != nil {
		slog.Warn("invalid sessions.idleTimeout, using 2h", "value", cfg.Sessions.IdleTimeout)
		idle = 2 * time.Hour
	}
	c := container.Cron()
	if _, err := container.Sessions().StartSweep(c, cfg.Sessions.SweepEvery, idle); err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	c.Start()
	defer c.Stop()

	enabled := container.Channels().EnabledChannels()
	if len(enabled) > 0 {
		fmt.Printf("%s Channels enabled: %s\n", logo, strings.Join(enabled, ", "))
	} else {
		fmt.Printf("%s No channels enabled — edit %s\n", logo, config.ConfigPath())
	}
	fmt.Println("Gateway running. Press Ctrl+C to stop.")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return container.Channels().StartAll(gctx) })
	if llm := container.LLMServer(); llm != nil {
		g.Go(func() error { return llm.Start(gctx) })
	}

	hb := heartbeat.NewService(cfg.WorkspacePath(), func(hctx context.Context, prompt string) error {
		_, err := container.Responder().Respond(hctx, channels.Request{
			Channel:  "heartbeat",
			SenderID: "system",
			ChatID:   "heartbeat",
			Text:     prompt,
			Caps:     schema.TextOnly(),
		})
		return err
	}, 0)
	g.Go(func() error { return hb.Start(gctx) })

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nGateway stopped.")
		return nil
	}
	return err
}

// setupLogging configures the process-wide slog level.
func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
