package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthmind/hearthmind/internal/config"
	"github.com/hearthmind/hearthmind/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored conversation sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessions()
	},
}

func runSessions() error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return err
	}

	root := config.DataDir()
	if cfg.Sessions.Dir != "" {
		root = cfg.Sessions.Dir
	}
	mgr, err := session.NewManager(root)
	if err != nil {
		return err
	}

	list := mgr.ListSessions()
	if len(list) == 0 {
		fmt.Println("No sessions.")
		return nil
	}
	fmt.Printf("%d sessions:\n", len(list))
	for _, meta := range list {
		fmt.Printf("  %-32v updated %v\n", meta["key"], meta["updated_at"])
	}
	return nil
}
