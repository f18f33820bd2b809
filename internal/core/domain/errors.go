package domain

import "go.trai.ch/zerr"

var (
	// ErrSchedulingDeadlock is returned when non-terminal tasks remain but no
	// wave can be formed. This indicates a planning defect (unsatisfiable or
	// cyclic dependencies) and is fatal to the mission.
	ErrSchedulingDeadlock = zerr.New("scheduling deadlock: non-terminal tasks with no eligible wave")

	// ErrTaskNotFound is returned when a wave references an unknown task id.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrMissionNotFound is returned when no checkpoint exists for a mission id.
	ErrMissionNotFound = zerr.New("mission not found")

	// ErrMissionTerminal is returned when resuming a mission that already
	// reached a final status.
	ErrMissionTerminal = zerr.New("mission already in a terminal status")

	// ErrNotAwaitingApproval is returned when approving a mission that is not
	// waiting on an operator decision.
	ErrNotAwaitingApproval = zerr.New("mission is not awaiting approval")

	// ErrAwaitingApproval is returned when resuming a mission that is blocked
	// on an operator decision; approve releases it.
	ErrAwaitingApproval = zerr.New("mission is awaiting approval")

	// ErrCheckpointWrite is returned when a checkpoint cannot be persisted
	// after bounded retries. The mission is failed rather than allowed to
	// proceed without a durable checkpoint.
	ErrCheckpointWrite = zerr.New("checkpoint write failed")

	// ErrMissionFailed signals a mission that converged with failures; used by
	// the CLI to exit non-zero without re-reporting.
	ErrMissionFailed = zerr.New("mission failed")

	// ErrUnknownStep is returned when the transition table has no entry for a
	// step name, e.g. when resuming from a checkpoint written by a newer
	// version.
	ErrUnknownStep = zerr.New("unknown state machine step")

	// ErrInvalidPlan is returned when a planner produces a task list that
	// violates structural invariants (duplicate ids, self-dependencies).
	ErrInvalidPlan = zerr.New("invalid mission plan")

	// ErrEmptyRequest is returned when a mission is started without a request.
	ErrEmptyRequest = zerr.New("no mission request specified")
)
