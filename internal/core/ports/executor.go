// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/armada/internal/core/domain"
)

// Executor runs one task in an external worker and reports its outcome.
//
// A clean non-success (failed command, timed-out run) is a DispatchResult with
// Success=false and a nil error; a non-nil error means the executor
// infrastructure itself failed (worker could not start, malformed response).
//
// Implementations must support cooperative cancellation via ctx and must
// tolerate re-invocation for a task whose prior attempt's outcome is unknown
// (crash recovery re-dispatches tasks that were RUNNING at the last
// checkpoint).
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	Execute(ctx context.Context, task domain.Task, workspace string) (domain.DispatchResult, error)
}
