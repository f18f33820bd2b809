package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newApproveCmd() *cobra.Command {
	var reject bool
	cmd := &cobra.Command{
		Use:   "approve <mission-id>",
		Short: "Release a mission that is awaiting operator approval",
		Long: "Release a mission that is awaiting operator approval. By default the " +
			"escalated tasks are skipped and execution continues past them; with " +
			"--reject the mission is failed instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Approve(cmd.Context(), args[0], !reject)
		},
	}
	cmd.Flags().BoolVar(&reject, "reject", false, "Fail the mission instead of skipping escalated tasks")
	return cmd
}
