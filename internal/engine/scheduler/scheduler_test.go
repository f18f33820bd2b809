package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/armada/internal/core/domain"
	"go.trai.ch/armada/internal/engine/scheduler"
)

func pending(id string, deps ...string) domain.Task {
	return domain.Task{
		ID:           id,
		Role:         "coder",
		Status:       domain.TaskPending,
		Dependencies: deps,
	}
}

func completedSet(ids ...string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func TestComputeNextWave_Diamond(t *testing.T) {
	tasks := []domain.Task{
		pending("A"),
		pending("B", "A"),
		pending("C", "A"),
		pending("D", "B", "C"),
	}

	wave := scheduler.ComputeNextWave(tasks, completedSet(), domain.StrategyParallel, 10)
	require.Equal(t, []string{"A"}, wave)

	tasks[0].Status = domain.TaskPassed
	wave = scheduler.ComputeNextWave(tasks, completedSet("A"), domain.StrategyParallel, 10)
	assert.ElementsMatch(t, []string{"B", "C"}, wave)

	tasks[1].Status = domain.TaskPassed
	tasks[2].Status = domain.TaskPassed
	wave = scheduler.ComputeNextWave(tasks, completedSet("A", "B", "C"), domain.StrategyParallel, 10)
	assert.Equal(t, []string{"D"}, wave)
}

func TestComputeNextWave_SequentialChain(t *testing.T) {
	tasks := []domain.Task{
		pending("A"),
		pending("B", "A"),
		pending("C", "B"),
	}

	wave := scheduler.ComputeNextWave(tasks, completedSet(), domain.StrategySequential, 10)
	assert.Equal(t, []string{"A"}, wave)

	tasks[0].Status = domain.TaskPassed
	wave = scheduler.ComputeNextWave(tasks, completedSet("A"), domain.StrategySequential, 10)
	assert.Equal(t, []string{"B"}, wave)

	tasks[1].Status = domain.TaskPassed
	wave = scheduler.ComputeNextWave(tasks, completedSet("A", "B"), domain.StrategySequential, 10)
	assert.Equal(t, []string{"C"}, wave)
}

func TestComputeNextWave_SequentialCapsAtOne(t *testing.T) {
	// Independent, non-overlapping tasks still run one at a time.
	tasks := []domain.Task{pending("A"), pending("B"), pending("C")}
	wave := scheduler.ComputeNextWave(tasks, completedSet(), domain.StrategySequential, 10)
	assert.Equal(t, []string{"A"}, wave)
}

func TestComputeNextWave_OverlapSerialization(t *testing.T) {
	a := pending("A")
	a.TargetFiles = []string{"src/index.html"}
	b := pending("B")
	b.TargetFiles = []string{"./src/index.html"}
	c := pending("C")
	c.TargetFiles = []string{"docs/readme.md"}

	wave := scheduler.ComputeNextWave([]domain.Task{a, b, c}, completedSet(), domain.StrategyParallel, 10)
	assert.Equal(t, []string{"A", "C"}, wave, "B conflicts with A after path normalization")

	// The second task becomes eligible once the first completes.
	a.Status = domain.TaskPassed
	wave = scheduler.ComputeNextWave([]domain.Task{a, b, c}, completedSet("A", "C"), domain.StrategyParallel, 10)
	assert.Equal(t, []string{"B"}, wave)
}

func TestComputeNextWave_SuffixOverlap(t *testing.T) {
	a := pending("A")
	a.TargetFiles = []string{"public/index.html"}
	b := pending("B")
	b.TargetFiles = []string{"/abs/path/public/index.html"}

	wave := scheduler.ComputeNextWave([]domain.Task{a, b}, completedSet(), domain.StrategyParallel, 10)
	assert.Equal(t, []string{"A"}, wave)
}

func TestComputeNextWave_NoFalseOverlap(t *testing.T) {
	a := pending("A")
	a.TargetFiles = []string{"cmd/main.go"}
	b := pending("B")
	b.TargetFiles = []string{"internal/server.go"}
	c := pending("C") // no target files never conflicts

	wave := scheduler.ComputeNextWave([]domain.Task{a, b, c}, completedSet(), domain.StrategyParallel, 10)
	assert.Equal(t, []string{"A", "B", "C"}, wave)
}

func TestComputeNextWave_MaxParallelCap(t *testing.T) {
	tasks := []domain.Task{pending("A"), pending("B"), pending("C"), pending("D")}
	wave := scheduler.ComputeNextWave(tasks, completedSet(), domain.StrategyParallel, 2)
	assert.Equal(t, []string{"A", "B"}, wave)
}

func TestComputeNextWave_Termination(t *testing.T) {
	tasks := []domain.Task{pending("A"), pending("B")}
	tasks[0].Status = domain.TaskPassed
	tasks[1].Status = domain.TaskSkipped

	wave := scheduler.ComputeNextWave(tasks, completedSet("A", "B"), domain.StrategyParallel, 10)
	assert.Empty(t, wave)
}

func TestComputeNextWave_RoleDependency(t *testing.T) {
	analyst := pending("research-1")
	analyst.Role = "analyst"
	analyst.Status = domain.TaskPassed

	// Dependency names a role instead of a task id, case-insensitively.
	coder := pending("impl-1", "Analyst")

	wave := scheduler.ComputeNextWave([]domain.Task{analyst, coder}, completedSet("research-1"), domain.StrategyParallel, 10)
	assert.Equal(t, []string{"impl-1"}, wave)
}

func TestBlocked(t *testing.T) {
	tasks := []domain.Task{
		pending("A", "missing"),
		pending("B"),
	}
	tasks[1].Status = domain.TaskPassed

	blocked := scheduler.Blocked(tasks, completedSet("B"))
	assert.Equal(t, []string{"A"}, blocked)

	wave := scheduler.ComputeNextWave(tasks, completedSet("B"), domain.StrategyParallel, 10)
	assert.Empty(t, wave, "unsatisfiable dependency never schedules")
}
