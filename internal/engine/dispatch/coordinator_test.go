package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/armada/internal/adapters/telemetry"
	"go.trai.ch/armada/internal/core/domain"
	"go.trai.ch/armada/internal/core/ports/mocks"
	"go.trai.ch/armada/internal/engine/dispatch"
	"go.uber.org/mock/gomock"
)

func testMission(ids ...string) domain.Mission {
	m := domain.Mission{ID: "m1", Status: domain.MissionExecuting}
	for _, id := range ids {
		m.Tasks = append(m.Tasks, domain.Task{ID: id, Role: "coder", Status: domain.TaskRunning})
	}
	return m
}

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()
	return log
}

func TestDispatchWave_ResultsInWaveOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		exec := mocks.NewMockExecutor(ctrl)
		exec.EXPECT().Execute(gomock.Any(), gomock.Any(), "ws").DoAndReturn(
			func(_ context.Context, task domain.Task, _ string) (domain.DispatchResult, error) {
				return domain.DispatchResult{TaskID: task.ID, Success: true}, nil
			}).Times(3)

		c := dispatch.NewCoordinator(exec, telemetry.NewNoOpTracer(), quietLogger(ctrl), dispatch.Options{
			Workspace:   "ws",
			MaxParallel: 3,
		})

		results, err := c.DispatchWave(context.Background(), testMission("A", "B", "C"), []string{"A", "B", "C"})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "A", results[0].TaskID)
		assert.Equal(t, "B", results[1].TaskID)
		assert.Equal(t, "C", results[2].TaskID)
	})
}

func TestDispatchWave_BoundedConcurrency(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		var (
			mu      sync.Mutex
			active  int
			maxSeen int
		)
		exec := mocks.NewMockExecutor(ctrl)
		exec.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, task domain.Task, _ string) (domain.DispatchResult, error) {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()

				time.Sleep(time.Second)

				mu.Lock()
				active--
				mu.Unlock()
				return domain.DispatchResult{TaskID: task.ID, Success: true}, nil
			}).Times(4)

		c := dispatch.NewCoordinator(exec, telemetry.NewNoOpTracer(), quietLogger(ctrl), dispatch.Options{
			MaxParallel: 2,
		})

		results, err := c.DispatchWave(context.Background(), testMission("A", "B", "C", "D"), []string{"A", "B", "C", "D"})
		require.NoError(t, err)
		require.Len(t, results, 4)
		assert.LessOrEqual(t, maxSeen, 2)
	})
}

func TestDispatchWave_InfraErrorBecomesFailedResult(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		exec := mocks.NewMockExecutor(ctrl)
		exec.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, task domain.Task, _ string) (domain.DispatchResult, error) {
				if task.ID == "B" {
					return domain.DispatchResult{}, errors.New("worker spawn failed")
				}
				return domain.DispatchResult{TaskID: task.ID, Success: true}, nil
			}).Times(2)

		c := dispatch.NewCoordinator(exec, telemetry.NewNoOpTracer(), quietLogger(ctrl), dispatch.Options{
			MaxParallel: 2,
		})

		results, err := c.DispatchWave(context.Background(), testMission("A", "B"), []string{"A", "B"})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.True(t, results[0].Success)
		assert.False(t, results[1].Success)
		assert.Contains(t, results[1].Output, "worker spawn failed")
	})
}

func TestDispatchWave_UnknownTask(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := dispatch.NewCoordinator(mocks.NewMockExecutor(ctrl), telemetry.NewNoOpTracer(), quietLogger(ctrl), dispatch.Options{})

	_, err := c.DispatchWave(context.Background(), testMission("A"), []string{"A", "ghost"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestDispatchWave_CancellationBoundedByGrace(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		exec := mocks.NewMockExecutor(ctrl)
		exec.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, task domain.Task, _ string) (domain.DispatchResult, error) {
				// A worker that ignores cancellation entirely.
				time.Sleep(10 * time.Minute)
				return domain.DispatchResult{TaskID: task.ID, Success: true}, nil
			})

		c := dispatch.NewCoordinator(exec, telemetry.NewNoOpTracer(), quietLogger(ctrl), dispatch.Options{
			MaxParallel: 1,
			Grace:       time.Second,
		})

		type waveOutcome struct {
			results []domain.DispatchResult
			err     error
		}

		ctx, cancel := context.WithCancel(context.Background())
		outCh := make(chan waveOutcome, 1)
		go func() {
			results, err := c.DispatchWave(ctx, testMission("A"), []string{"A"})
			outCh <- waveOutcome{results, err}
		}()

		synctest.Wait()
		cancel()

		out := <-outCh
		require.NoError(t, out.err)
		results := out.results
		require.Len(t, results, 1)
		assert.False(t, results[0].Success)
		assert.Contains(t, results[0].Output, "abandoned")
	})
}

func TestDispatchWave_OpenBreakerShortCircuits(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		exec := mocks.NewMockExecutor(ctrl)
		exec.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.DispatchResult{}, errors.New("backend unreachable")).
			Times(5)

		c := dispatch.NewCoordinator(exec, telemetry.NewNoOpTracer(), quietLogger(ctrl), dispatch.Options{
			MaxParallel: 1,
		})

		// Five consecutive infrastructure failures trip the role's breaker.
		for range 5 {
			results, err := c.DispatchWave(context.Background(), testMission("A"), []string{"A"})
			require.NoError(t, err)
			require.False(t, results[0].Success)
		}

		// The sixth dispatch fails fast without reaching the executor.
		results, err := c.DispatchWave(context.Background(), testMission("A"), []string{"A"})
		require.NoError(t, err)
		require.False(t, results[0].Success)
		assert.Contains(t, results[0].Output, "circuit breaker is open")
	})
}
