package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hearthmind/hearthmind/internal/config"
	"github.com/hearthmind/hearthmind/internal/devices"
	"github.com/hearthmind/hearthmind/internal/mcp"
	"github.com/hearthmind/hearthmind/internal/schema"
	"github.com/hearthmind/hearthmind/internal/store"
	"github.com/hearthmind/hearthmind/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the assistant can call",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTools()
	},
}

// runTools aggregates the tool providers exactly as the gateway does, minus
// the LLM provider, so it works without an API key.
func runTools() error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	blobs, err := store.Open(filepath.Join(config.DataDir(), "store.json"))
	if err != nil {
		return err
	}
	dir := devices.NewDirectory(cfg.Devices)

	provs := []schema.ToolProvider{
		tools.NewLightsProvider(dir),
		tools.NewCameraProvider(dir, blobs),
		tools.NewNotesProvider(blobs),
		tools.NewWebProvider(cfg.Tools.Web.APIKey, cfg.Tools.Web.MaxResults, cfg.Tools.Web.MaxChars),
	}
	if cfg.Tools.Eval.Enabled {
		provs = append(provs, tools.NewEvalProvider(cfg.Tools.Eval.Interpreter, cfg.Tools.Eval.Timeout))
	}
	var mcpProv *mcp.Provider
	if len(cfg.Tools.MCPServers) > 0 {
		mcpProv = mcp.NewProvider(cfg.Tools.MCPServers)
		defer mcpProv.Close()
		provs = append(provs, mcpProv)
	}

	registry := tools.Aggregate(context.Background(), provs)

	fmt.Printf("%d tools:\n", registry.Len())
	for _, name := range registry.Names() {
		d, _, _ := registry.Lookup(name)
		fmt.Printf("  %-24s %s\n", name, d.Description)
	}
	return nil
}
