// Package commands implements the CLI commands for armada.
package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.trai.ch/armada/internal/adapters/config"
	"go.trai.ch/armada/internal/app"
)

// CLI represents the command line interface for armada.
type CLI struct {
	app     *app.App
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a *app.App) *CLI {
	rootCmd := &cobra.Command{
		Use:           "armada",
		Short:         "Mission orchestration for autonomous worker fleets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// The flag is consumed before dependency wiring (see ConfigPath); it is
	// declared here so it shows up in help and passes flag parsing.
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultFilename, "Path to configuration file")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newResumeCmd())
	rootCmd.AddCommand(c.newApproveCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// ConfigPath extracts the --config flag value from raw arguments. Called by
// main before the component graph is built, since the config node resolves
// during wiring.
func ConfigPath(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--config" || arg == "-c":
			if i+1 < len(args) {
				return args[i+1]
			}
		case len(arg) > len("--config=") && arg[:len("--config=")] == "--config=":
			return arg[len("--config="):]
		}
	}
	return ""
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}
