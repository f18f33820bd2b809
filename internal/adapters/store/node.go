package store

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/armada/internal/adapters/config"
	"go.trai.ch/armada/internal/core/ports"
)

// NodeID is the unique identifier for the checkpoint store Graft node.
const NodeID graft.ID = "adapter.store"

func init() {
	graft.Register(graft.Node[ports.CheckpointStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.CheckpointStore, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			if cfg.StoreBackend == "jsonl" {
				return NewFileStore(cfg.StorePath)
			}
			return NewSQLiteStore(cfg.StorePath)
		},
	})
}
