package mission

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/armada/internal/adapters/config" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/armada/internal/adapters/events" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/armada/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/armada/internal/adapters/plan"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/armada/internal/adapters/store"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/armada/internal/core/ports"
	"go.trai.ch/armada/internal/engine/dispatch"
)

// NodeID is the unique identifier for the mission machine Graft node.
const NodeID graft.ID = "engine.mission"

func init() {
	graft.Register(graft.Node[*Machine]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			plan.NodeID,
			dispatch.NodeID,
			store.NodeID,
			events.NodeID,
			config.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Machine, error) {
			planner, err := graft.Dep[ports.Planner](ctx)
			if err != nil {
				return nil, err
			}
			coord, err := graft.Dep[*dispatch.Coordinator](ctx)
			if err != nil {
				return nil, err
			}
			checkpoints, err := graft.Dep[ports.CheckpointStore](ctx)
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
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			return NewMachine(planner, coord, checkpoints, bus, log, Options{
				MaxParallel:       cfg.MaxParallel,
				RequireApproval:   cfg.RequireApproval,
				CheckpointRetries: cfg.CheckpointRetries,
			}), nil
		},
	})
}
