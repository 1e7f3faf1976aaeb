package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom"
)

func newRunCommand(envFor func() (*loom.Environment, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <graph.json>",
		Short: "Run a computation graph loaded from a JSON fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFor()
			if err != nil {
				return err
			}
			c, err := LoadGraphFromFile(args[0])
			if err != nil {
				return err
			}
			computed, err := loom.ComputeWith(env, c)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "computed: %v\n", computed.Value)
			return nil
		},
	}
	return cmd
}
