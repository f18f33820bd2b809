// Package main is the entry point for the armada CLI.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/armada/cmd/armada/commands"
	"go.trai.ch/armada/internal/adapters/config"
	"go.trai.ch/armada/internal/app"
	"go.trai.ch/armada/internal/core/domain"
	_ "go.trai.ch/armada/internal/wiring"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The config node resolves during wiring, before cobra parses flags.
	if path := commands.ConfigPath(os.Args[1:]); path != "" {
		_ = os.Setenv(config.EnvConfigPath, path)
	}

	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}

	cli := commands.New(components.App)
	if err := cli.Execute(ctx); err != nil {
		if errors.Is(err, domain.ErrMissionFailed) {
			// Failure details were already reported by the app layer.
			return 1
		}
		components.Logger.Error(err)
		return 1
	}
	return 0
}
