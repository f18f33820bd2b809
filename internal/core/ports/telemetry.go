package ports

import (
	"context"
	"io"
)

//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for recording units of work (waves, task runs).
type Tracer interface {
	// Start begins a new span for the named unit of work.
	Start(ctx context.Context, name string) (context.Context, Span)
	// EmitPlan signals the set of tasks planned for execution.
	EmitPlan(ctx context.Context, taskIDs []string)
}

// Span represents one recorded unit of work. Writes stream the unit's output.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records a failure for the span.
	RecordError(err error)
}
