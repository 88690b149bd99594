package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hearthmind/hearthmind/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Create the config file and workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnboard()
	},
}

// workspaceTemplates seeds the bootstrap files the system prompt reads.
// Existing files are never overwritten.
var workspaceTemplates = map[string]string{
	"AGENTS.md": `# Agent Notes

Instructions for the assistant. Everything here is folded into the system
prompt on every turn. Keep it short.
`,
	"IDENTITY.md": `# Identity

Describe how the assistant should present itself: name, tone, quirks.
`,
	"USER.md": `# Household

Who lives here, preferred names, routines worth knowing.
`,
	"HOME.md": `# Home

Rooms, zones, and anything about the house the assistant should know
that the device list does not cover.
`,
	"HEARTBEAT.md": `# HEARTBEAT

<!-- Standing tasks the assistant acts on during its periodic check.
     Unchecked boxes are ignored; plain lines and checked boxes run. -->

- [ ] example: remind whoever is home to take the bins out on Tuesday evening
`,
}

func runOnboard() error {
	path := config.ConfigPath()

	// Load merges defaults into whatever exists, so saving back both creates
	// a fresh config and refreshes an old one with newly added fields.
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	existed := fileExists(path)
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	if existed {
		fmt.Printf("✓ Refreshed config: %s\n", path)
	} else {
		fmt.Printf("✓ Created config: %s\n", path)
	}

	ws := cfg.WorkspacePath()
	if err := os.MkdirAll(ws, 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(ws, "skills"), 0o755); err != nil {
		return fmt.Errorf("create skills dir: %w", err)
	}
	fmt.Printf("✓ Workspace: %s\n", ws)

	for name, content := range workspaceTemplates {
		target := filepath.Join(ws, name)
		if fileExists(target) {
			continue
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		fmt.Printf("  + %s\n", name)
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add an API key to %s\n", path)
	fmt.Println("  2. Run `hearthmind agent` to chat in the terminal")
	fmt.Println("  3. Run `hearthmind gateway` to serve your channels")
	return nil
}
