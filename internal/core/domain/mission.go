package domain

// ExecutionStrategy selects how eligible tasks are batched into waves.
type ExecutionStrategy string

const (
	// StrategySequential caps every wave at a single task.
	StrategySequential ExecutionStrategy = "SEQUENTIAL"
	// StrategyParallel batches non-conflicting eligible tasks up to the
	// parallelism limit.
	StrategyParallel ExecutionStrategy = "PARALLEL"
)

// MissionStatus is the lifecycle state of a mission.
type MissionStatus string

const (
	MissionPlanning         MissionStatus = "PLANNING"
	MissionAwaitingApproval MissionStatus = "AWAITING_APPROVAL"
	MissionExecuting        MissionStatus = "EXECUTING"
	MissionReplanning       MissionStatus = "REPLANNING"
	MissionCompleted        MissionStatus = "COMPLETED"
	MissionFailed           MissionStatus = "FAILED"
	MissionCancelled        MissionStatus = "CANCELLED"
)

// Terminal reports whether the mission can make no further progress on its own.
func (s MissionStatus) Terminal() bool {
	return s == MissionCompleted || s == MissionFailed || s == MissionCancelled
}

// MissionMetrics aggregates results over the lifetime of a mission.
type MissionMetrics struct {
	WavesExecuted   int   `json:"wavesExecuted"`
	TasksPassed     int   `json:"tasksPassed"`
	TasksFailed     int   `json:"tasksFailed"`
	TasksSkipped    int   `json:"tasksSkipped"`
	TotalIterations int   `json:"totalIterations"`
	FilesCreated    int   `json:"filesCreated"`
	FilesModified   int   `json:"filesModified"`
	TotalDurationMs int64 `json:"totalDurationMs"`
}

// Mission is the aggregate root for one orchestrated request. It is treated as
// an immutable snapshot: every state-machine step derives a new value via
// Clone and the previous snapshot is persisted untouched.
type Mission struct {
	ID       string            `json:"id"`
	Request  string            `json:"request"`
	Tasks    []Task            `json:"tasks"`
	Strategy ExecutionStrategy `json:"strategy"`
	Status   MissionStatus     `json:"status"`

	// Completed holds the ids considered done (PASSED or SKIPPED), in
	// completion order. It only ever grows.
	Completed []string `json:"completed,omitempty"`

	WaveCount   int            `json:"waveCount"`
	CurrentWave []string       `json:"currentWave,omitempty"`
	Metrics     MissionMetrics `json:"metrics"`

	// Errors records every denial and escalation reason so failures remain
	// queryable from the checkpoint log rather than only transient logs.
	Errors []string `json:"errors,omitempty"`
}

// Clone returns a deep copy of the mission snapshot.
func (m Mission) Clone() Mission {
	c := m
	c.Tasks = make([]Task, len(m.Tasks))
	for i, t := range m.Tasks {
		c.Tasks[i] = t.Clone()
	}
	c.Completed = cloneStrings(m.Completed)
	c.CurrentWave = cloneStrings(m.CurrentWave)
	c.Errors = cloneStrings(m.Errors)
	return c
}

// Task returns the task with the given id.
func (m Mission) Task(id string) (Task, bool) {
	for _, t := range m.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// ReplaceTask returns a copy of the mission with the task of the same id
// replaced. Unknown ids are ignored.
func (m Mission) ReplaceTask(task Task) Mission {
	c := m.Clone()
	for i, t := range c.Tasks {
		if t.ID == task.ID {
			c.Tasks[i] = task.Clone()
			break
		}
	}
	return c
}

// CompletedSet returns the completed ids as a set.
func (m Mission) CompletedSet() map[string]bool {
	set := make(map[string]bool, len(m.Completed))
	for _, id := range m.Completed {
		set[id] = true
	}
	return set
}

// AllTerminal reports whether every task has reached a final status.
func (m Mission) AllTerminal() bool {
	for _, t := range m.Tasks {
		if !t.Status.Terminal() {
			return false
		}
	}
	return true
}
