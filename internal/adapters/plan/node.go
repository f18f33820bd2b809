package plan

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/armada/internal/adapters/config"
	"go.trai.ch/armada/internal/core/ports"
)

// NodeID is the unique identifier for the planner adapter Graft node.
const NodeID graft.ID = "adapter.plan"

func init() {
	graft.Register(graft.Node[ports.Planner]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.Planner, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(cfg.PlanPath), nil
		},
	})
}
