package ports

import (
	"context"

	"go.trai.ch/armada/internal/core/domain"
)

// Planner produces the task graph for a mission. It is an external
// collaborator (typically LLM-driven); only its boundary is specified here.
//
//go:generate go run go.uber.org/mock/mockgen -source=planner.go -destination=mocks/mock_planner.go -package=mocks
type Planner interface {
	// Plan turns a request into the initial task list and execution strategy.
	Plan(ctx context.Context, request string) ([]domain.Task, domain.ExecutionStrategy, error)

	// Replan regenerates tasks after a REPLAN failure action, given the
	// current mission snapshot and the accumulated failure feedback. The
	// returned tasks replace only the not-yet-run portion of the plan.
	Replan(ctx context.Context, mission domain.Mission, feedback []string) ([]domain.Task, error)
}
