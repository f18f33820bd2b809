package agent

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/armada/internal/adapters/config"
	"go.trai.ch/armada/internal/adapters/logger"
	"go.trai.ch/armada/internal/core/ports"
)

// NodeID is the unique identifier for the executor adapter Graft node.
const NodeID graft.ID = "adapter.agent"

func init() {
	graft.Register(graft.Node[ports.Executor]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Executor, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewExecutor(log, cfg.Roles, cfg.TaskTimeout), nil
		},
	})
}
