package plan_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/armada/internal/adapters/plan"
	"go.trai.ch/armada/internal/core/domain"
)

const planfile = `
version: "1"
strategy: parallel
tasks:
  - id: research-1
    role: analyst
    description: survey the landscape
  - id: impl-1
    role: coder
    description: build the feature
    context: use the existing module layout
    successCriteria: all tests green
    dependsOn: [research-1]
    targetFiles: [src/feature.go]
    maxIterations: 5
    onFailure: replan
  - id: test-1
    role: tester
    description: verify the feature
    dependsOn: [impl-1]
`

func writePlan(t *testing.T, content string) *plan.Loader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mission.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return plan.NewLoader(path)
}

func TestPlan_ParsesTasksAndStrategy(t *testing.T) {
	l := writePlan(t, planfile)

	tasks, strategy, err := l.Plan(context.Background(), "any request")
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyParallel, strategy)
	require.Len(t, tasks, 3)

	impl := tasks[1]
	assert.Equal(t, "impl-1", impl.ID)
	assert.Equal(t, "coder", impl.Role)
	assert.Equal(t, []string{"research-1"}, impl.Dependencies)
	assert.Equal(t, []string{"src/feature.go"}, impl.TargetFiles)
	assert.Equal(t, 5, impl.MaxIterations)
	assert.Equal(t, domain.FailureReplan, impl.OnFailure)
	assert.Equal(t, domain.TaskPending, impl.Status)
}

func TestPlan_AppliesDefaults(t *testing.T) {
	l := writePlan(t, `
tasks:
  - id: t1
    role: coder
    description: minimal task
`)

	tasks, strategy, err := l.Plan(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.StrategySequential, strategy, "missing strategy is sequential")
	require.Len(t, tasks, 1)
	assert.Equal(t, 3, tasks[0].MaxIterations)
	assert.Equal(t, domain.FailureRetry, tasks[0].OnFailure)
}

func TestPlan_MissingFile(t *testing.T) {
	l := plan.NewLoader(filepath.Join(t.TempDir(), "nope.yaml"))

	_, _, err := l.Plan(context.Background(), "")
	require.Error(t, err)
}

func TestReplan_SkipsTerminalTasksAndFoldsFeedback(t *testing.T) {
	l := writePlan(t, planfile)

	mission := domain.Mission{
		ID: "m1",
		Tasks: []domain.Task{
			{ID: "research-1", Status: domain.TaskPassed},
			{ID: "impl-1", Status: domain.TaskPending},
			{ID: "test-1", Status: domain.TaskPending},
		},
	}

	tasks, err := l.Replan(context.Background(), mission, []string{"impl-1: wrong approach"})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "impl-1", tasks[0].ID)
	assert.Equal(t, "test-1", tasks[1].ID)

	assert.Contains(t, tasks[0].Context, "use the existing module layout")
	assert.Contains(t, tasks[0].Context, "impl-1: wrong approach")
	assert.Contains(t, tasks[1].Context, "impl-1: wrong approach")
}

func TestReplan_NoFeedbackLeavesContextAlone(t *testing.T) {
	l := writePlan(t, planfile)

	tasks, err := l.Replan(context.Background(), domain.Mission{}, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "use the existing module layout", tasks[1].Context)
}
