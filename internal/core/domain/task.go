// Package domain contains the core domain models for mission orchestration.
package domain

// TaskStatus is the execution status of a single task.
type TaskStatus string

const (
	// TaskPending indicates the task is waiting to be scheduled.
	TaskPending TaskStatus = "PENDING"
	// TaskRunning indicates the task has been dispatched and is executing.
	TaskRunning TaskStatus = "RUNNING"
	// TaskPassed indicates the task finished and cleared its quality gate.
	TaskPassed TaskStatus = "PASSED"
	// TaskFailed indicates the task failed terminally.
	TaskFailed TaskStatus = "FAILED"
	// TaskSkipped indicates the task was skipped by failure policy; it still
	// counts as completed for dependency satisfaction.
	TaskSkipped TaskStatus = "SKIPPED"
)

// Terminal reports whether the status is a final one.
func (s TaskStatus) Terminal() bool {
	return s == TaskPassed || s == TaskFailed || s == TaskSkipped
}

// FailureStrategy is the closed set of recovery policies applied when a task
// fails its execution or its quality gate.
type FailureStrategy string

const (
	// FailureRetry re-enters the task as PENDING with accumulated feedback.
	FailureRetry FailureStrategy = "RETRY"
	// FailureReplan defers to the Planner to regenerate not-yet-run tasks.
	FailureReplan FailureStrategy = "REPLAN"
	// FailureEscalate surfaces the failure for operator decision.
	FailureEscalate FailureStrategy = "ESCALATE"
	// FailureSkip marks the task SKIPPED and lets the mission proceed.
	FailureSkip FailureStrategy = "SKIP"
)

// FileAction describes what happened to a file during task execution.
type FileAction string

const (
	FileCreated  FileAction = "created"
	FileModified FileAction = "modified"
)

// FileChange records one file touched by a task.
type FileChange struct {
	Path   string     `json:"path"`
	Action FileAction `json:"action"`
}

// Task is the smallest unit of dispatched work within a mission.
//
// Dependencies normally reference task IDs, but a dependency may also name a
// worker role (case-insensitive); such a dependency is satisfied once any
// completed task carries that role.
type Task struct {
	ID              string          `json:"id"`
	Role            string          `json:"role"`
	Description     string          `json:"description"`
	Context         string          `json:"context,omitempty"`
	SuccessCriteria string          `json:"successCriteria,omitempty"`
	Dependencies    []string        `json:"dependencies,omitempty"`
	TargetFiles     []string        `json:"targetFiles,omitempty"`
	Status          TaskStatus      `json:"status"`
	Iteration       int             `json:"iteration"`
	MaxIterations   int             `json:"maxIterations"`
	OnFailure       FailureStrategy `json:"onFailure"`
	FilesAffected   []FileChange    `json:"filesAffected,omitempty"`
	ElapsedMs       int64           `json:"elapsedMs,omitempty"`

	// Feedback accumulates the failure reason of every prior attempt, oldest
	// first. Each retry receives the full history, not just the latest entry.
	Feedback []string `json:"feedback,omitempty"`
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	c.Dependencies = cloneStrings(t.Dependencies)
	c.TargetFiles = cloneStrings(t.TargetFiles)
	c.Feedback = cloneStrings(t.Feedback)
	if t.FilesAffected != nil {
		c.FilesAffected = make([]FileChange, len(t.FilesAffected))
		copy(c.FilesAffected, t.FilesAffected)
	}
	return c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
