package agent_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/armada/internal/adapters/agent"
	"go.trai.ch/armada/internal/core/domain"
	"go.trai.ch/armada/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()
	return log
}

func shWorker(t *testing.T, script string) map[string][]string {
	t.Helper()
	return map[string][]string{"coder": {"sh", "-c", script}}
}

func task(id string) domain.Task {
	return domain.Task{ID: id, Role: "coder", Description: "do the thing"}
}

func TestExecute_ParsesWorkerResult(t *testing.T) {
	e := agent.NewExecutor(quietLogger(t), shWorker(t,
		`echo '{"success":true,"output":"done","filesAffected":[{"path":"src/a.go","action":"created"}],"elapsedMs":42}'`,
	), time.Minute)

	res, err := e.Execute(context.Background(), task("t1"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "t1", res.TaskID)
	assert.True(t, res.Success)
	assert.Equal(t, "done", res.Output)
	require.Len(t, res.FilesAffected, 1)
	assert.Equal(t, "src/a.go", res.FilesAffected[0].Path)
	assert.Equal(t, int64(42), res.ElapsedMs)
}

func TestExecute_WorkerReceivesPayloadAndWorkspace(t *testing.T) {
	// The worker drains its stdin payload and reports its working directory.
	e := agent.NewExecutor(quietLogger(t), shWorker(t,
		`cat >/dev/null; printf '{"success":true,"output":"%s"}' "$(basename "$PWD")"`,
	), time.Minute)

	ws := t.TempDir()
	res, err := e.Execute(context.Background(), task("t-42"), ws)
	require.NoError(t, err)
	assert.Contains(t, ws, res.Output)
}

func TestExecute_RoleIsCaseInsensitive(t *testing.T) {
	e := agent.NewExecutor(quietLogger(t), map[string][]string{
		"Coder": {"sh", "-c", `echo '{"success":true}'`},
	}, time.Minute)

	tk := task("t1")
	tk.Role = "CODER"
	res, err := e.Execute(context.Background(), tk, t.TempDir())
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestExecute_UnknownRole(t *testing.T) {
	e := agent.NewExecutor(quietLogger(t), nil, time.Minute)

	_, err := e.Execute(context.Background(), task("t1"), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no worker command configured")
}

func TestExecute_NonZeroExitWithResult(t *testing.T) {
	// A worker may report its own failure verdict and still exit non-zero.
	e := agent.NewExecutor(quietLogger(t), shWorker(t,
		`echo '{"success":false,"output":"tests failed"}'; exit 1`,
	), time.Minute)

	res, err := e.Execute(context.Background(), task("t1"), t.TempDir())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "tests failed", res.Output)
}

func TestExecute_NonZeroExitWithoutResult(t *testing.T) {
	e := agent.NewExecutor(quietLogger(t), shWorker(t,
		`echo 'panic: boom' >&2; exit 2`,
	), time.Minute)

	res, err := e.Execute(context.Background(), task("t1"), t.TempDir())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "panic: boom", res.Output)
}

func TestExecute_TimeoutIsAFailedResultNotAnError(t *testing.T) {
	e := agent.NewExecutor(quietLogger(t), shWorker(t, `sleep 5`), 50*time.Millisecond)

	res, err := e.Execute(context.Background(), task("t1"), t.TempDir())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "timed out")
}

func TestExecute_GarbageOutputIsAnError(t *testing.T) {
	e := agent.NewExecutor(quietLogger(t), shWorker(t, `echo 'not json'`), time.Minute)

	_, err := e.Execute(context.Background(), task("t1"), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no parsable result")
}
