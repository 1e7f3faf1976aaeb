package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"loom"
)

func newDebugCommand(envFor func() (*loom.Environment, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug <graph.json>",
		Short: "Run a computation graph with the event recorder attached and dump its decision log",
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

			start := time.Now()
			computed, events, err := loom.DebugCompute(env, c)
			elapsed := time.Since(start)

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"#", "Kind", "Thunk", "Worker", "Reason"})
			for i, e := range events {
				t.AppendRow(table.Row{i, e.Kind, e.ThunkID, e.WorkerID, e.Reason})
			}
			t.Render()

			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "run failed, started %s: %v\n", humanize.Time(start), err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "computed %v in %s\n", computed.Value, elapsed)
			return nil
		},
	}
	return cmd
}
