package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hearthmind/hearthmind/internal/config"
	"github.com/hearthmind/hearthmind/internal/providers"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus()
	},
}

func runStatus() error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return err
	}

	fmt.Printf("%s hearthmind v%s\n\n", logo, version)

	printCheck("Config", config.ConfigPath(), fileExists(config.ConfigPath()))
	printCheck("Workspace", cfg.WorkspacePath(), dirExists(cfg.WorkspacePath()))
	fmt.Println()

	model := cfg.Agents.Defaults.Model
	fmt.Printf("Model: %s\n", model)
	match := cfg.MatchProvider(model)
	if match.Provider != nil {
		spec := providers.FindByName(match.Name)
		label := match.Name
		if spec != nil {
			label = spec.Label()
		}
		fmt.Printf("Provider: %s\n", label)
	} else {
		fmt.Println("Provider: ✗ no API key configured")
	}
	fmt.Println()

	fmt.Println("Providers:")
	for _, spec := range providers.PROVIDERS {
		p := cfg.ProviderByName(spec.Name)
		mark := "✗"
		if p != nil && p.APIKey != "" {
			mark = "✓"
		}
		fmt.Printf("  %s %-20s\n", mark, spec.Label())
	}
	fmt.Println()

	fmt.Println("Channels:")
	for _, ch := range []struct {
		name    string
		enabled bool
	}{
		{"console", cfg.Channels.Console.Enabled},
		{"websocket", cfg.Channels.WebSocket.Enabled},
		{"telegram", cfg.Channels.Telegram.Enabled},
		{"slack", cfg.Channels.Slack.Enabled},
	} {
		mark := "✗"
		if ch.enabled {
			mark = "✓"
		}
		fmt.Printf("  %s %s\n", mark, ch.name)
	}
	fmt.Println()

	fmt.Printf("Devices: %d configured\n", len(cfg.Devices))
	fmt.Printf("MCP servers: %d configured\n", len(cfg.Tools.MCPServers))
	if cfg.LLMServer.Enabled {
		fmt.Println("Local LLM server: enabled")
	}
	return nil
}

func printCheck(label, path string, ok bool) {
	mark := "✗"
	if ok {
		mark = "✓"
	}
	fmt.Printf("%s %s: %s\n", mark, label, path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
