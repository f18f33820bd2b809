package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	var showHistory bool
	cmd := &cobra.Command{
		Use:   "status <mission-id>",
		Short: "Show a mission's latest state from the checkpoint log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showHistory {
				cps, err := c.app.History(args[0])
				if err != nil {
					return err
				}
				for _, cp := range cps {
					cmd.Printf("%4d  %-16s %-20s %s\n", cp.Seq, cp.Step, cp.Mission.Status, cp.CreatedAt.Format("2006-01-02 15:04:05"))
				}
				return nil
			}

			cp, err := c.app.Status(args[0])
			if err != nil {
				return err
			}
			m := cp.Mission
			cmd.Printf("mission %s: %s (wave %d, step %s)\n", m.ID, m.Status, m.WaveCount, cp.Step)
			for _, t := range m.Tasks {
				line := fmt.Sprintf("  %-20s %-10s %s (iteration %d/%d)", t.ID, t.Role, t.Status, t.Iteration, t.MaxIterations)
				cmd.Println(line)
				if n := len(t.Feedback); n > 0 {
					cmd.Printf("    last failure: %s\n", t.Feedback[n-1])
				}
			}
			for _, e := range m.Errors {
				cmd.Printf("  error: %s\n", e)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showHistory, "history", false, "Show the full checkpoint timeline")
	return cmd
}
