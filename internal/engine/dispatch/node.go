package dispatch

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/armada/internal/adapters/agent"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/armada/internal/adapters/config"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/armada/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/armada/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/armada/internal/core/ports"
)

// NodeID is the unique identifier for the coordinator Graft node.
const NodeID graft.ID = "engine.dispatch"

func init() {
	graft.Register(graft.Node[*Coordinator]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			agent.NodeID,
			config.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (*Coordinator, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
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
			return NewCoordinator(executor, tracer, log, Options{
				Workspace:   cfg.Workspace,
				MaxParallel: cfg.MaxParallel,
				Grace:       cfg.DispatchGrace,
			}), nil
		},
	})
}
