// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/armada/internal/adapters/agent"
	_ "go.trai.ch/armada/internal/adapters/config"
	_ "go.trai.ch/armada/internal/adapters/events"
	_ "go.trai.ch/armada/internal/adapters/logger"
	_ "go.trai.ch/armada/internal/adapters/plan"
	_ "go.trai.ch/armada/internal/adapters/store"
	_ "go.trai.ch/armada/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/armada/internal/app"
	_ "go.trai.ch/armada/internal/engine/dispatch"
	_ "go.trai.ch/armada/internal/engine/mission"
)
