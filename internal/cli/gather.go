package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom"
)

func newGatherCommand(envFor func() (*loom.Environment, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gather <graph.json>",
		Short: "Run a computation graph and print its materialized result",
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
			v, err := loom.GatherWith(env, c)
			if err != nil {
				return fmt.Errorf("gather: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v\n", v)
			return nil
		},
	}
	return cmd
}
