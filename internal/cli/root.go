package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom"
	"loom/internal/config"
)

// NewRootCommand builds loom's command tree: run, gather, debug.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "loom",
		Short: "loom runs computation graphs across a worker pool",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a .loom config file")

	envFor := func() (*loom.Environment, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return loom.NewEnvironment(cfg), nil
	}

	root.AddCommand(newRunCommand(envFor))
	root.AddCommand(newGatherCommand(envFor))
	root.AddCommand(newDebugCommand(envFor))
	return root
}
