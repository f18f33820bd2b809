package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/armada/internal/adapters/config"
	"go.trai.ch/armada/internal/core/ports"
)

// TracerNodeID is the unique identifier for the telemetry adapter Graft node.
const TracerNodeID graft.ID = "adapter.telemetry"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.Tracer, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			if cfg.TelemetryEnabled {
				return New(), nil
			}
			return NewNoOpTracer(), nil
		},
	})
}
