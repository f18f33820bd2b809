package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/armada/internal/adapters/config" //nolint:depguard // Wired in app layer
	"go.trai.ch/armada/internal/adapters/events" //nolint:depguard // Wired in app layer
	"go.trai.ch/armada/internal/adapters/logger" //nolint:depguard // Wired in app layer
	"go.trai.ch/armada/internal/core/ports"
	"go.trai.ch/armada/internal/engine/mission"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components bundles everything the CLI needs.
type Components struct {
	App    *App
	Logger ports.Logger
	Config *config.Config
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			mission.NodeID,
			events.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			machine, err := graft.Dep[*mission.Machine](ctx)
			if err != nil {
				return nil, err
			}
			bus, err := graft.Dep[*events.Bus](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(machine, bus, log), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			application, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{
				App:    application,
				Logger: log,
				Config: cfg,
			}, nil
		},
	})
}
