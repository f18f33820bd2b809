package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <mission-id>",
		Short: "Resume a mission from its latest checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Resume(cmd.Context(), args[0])
		},
	}
}
