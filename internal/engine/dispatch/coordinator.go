// Package dispatch fans a scheduled wave out to the Executor with bounded
// parallelism and joins on completion.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.trai.ch/armada/internal/core/domain"
	"go.trai.ch/armada/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Options configures a Coordinator.
type Options struct {
	// Workspace is the workspace reference handed to the Executor.
	Workspace string
	// MaxParallel bounds concurrent Executor calls within one wave.
	MaxParallel int
	// Grace bounds how long the coordinator waits for in-flight tasks after
	// the wave context is cancelled before abandoning them.
	Grace time.Duration
}

// Coordinator dispatches waves. The scheduler's file-overlap rule is the sole
// file-race prevention; the coordinator trusts it and never re-checks overlap.
type Coordinator struct {
	executor ports.Executor
	tracer   ports.Tracer
	logger   ports.Logger
	opts     Options

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(executor ports.Executor, tracer ports.Tracer, logger ports.Logger, opts Options) *Coordinator {
	if opts.MaxParallel < 1 {
		opts.MaxParallel = 1
	}
	if opts.Grace <= 0 {
		opts.Grace = 10 * time.Second
	}
	return &Coordinator{
		executor: executor,
		tracer:   tracer,
		logger:   logger,
		opts:     opts,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// DispatchWave invokes the Executor for every task in the wave, bounded by
// MaxParallel, and blocks until every dispatched task has a result. Results
// come back in wave order, one per task id: Executor infrastructure errors,
// open breakers and abandoned in-flight tasks all surface as failed results
// rather than errors, so a partial wave never reaches evaluation.
func (c *Coordinator) DispatchWave(ctx context.Context, mission domain.Mission, waveIDs []string) ([]domain.DispatchResult, error) {
	tasks := make([]domain.Task, 0, len(waveIDs))
	for _, id := range waveIDs {
		t, ok := mission.Task(id)
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrTaskNotFound, "wave references unknown task"), "task", id)
		}
		tasks = append(tasks, t)
	}

	c.tracer.EmitPlan(ctx, waveIDs)

	resultCh := make(chan domain.DispatchResult, len(tasks))
	var g errgroup.Group
	g.SetLimit(c.opts.MaxParallel)
	for _, task := range tasks {
		g.Go(func() error {
			resultCh <- c.dispatch(ctx, task)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		g.Wait() //nolint:errcheck // goroutines report through resultCh
		close(done)
	}()

	// Join barrier. After cancellation the wait is bounded by the grace
	// period; whatever is still in flight is written off.
	select {
	case <-done:
	case <-ctx.Done():
		select {
		case <-done:
		case <-time.After(c.opts.Grace):
			c.logger.Warn("grace period elapsed, abandoning in-flight tasks")
		}
	}

	collected := make(map[string]domain.DispatchResult, len(tasks))
drain:
	for {
		select {
		case res := <-resultCh:
			collected[res.TaskID] = res
		default:
			break drain
		}
	}

	results := make([]domain.DispatchResult, 0, len(tasks))
	for _, task := range tasks {
		res, ok := collected[task.ID]
		if !ok {
			res = domain.DispatchResult{
				TaskID: task.ID,
				Output: "dispatch abandoned after cancellation",
			}
		}
		results = append(results, res)
	}
	return results, nil
}

func (c *Coordinator) dispatch(ctx context.Context, task domain.Task) domain.DispatchResult {
	ctx, span := c.tracer.Start(ctx, "task "+task.ID)
	defer span.End()

	start := time.Now()
	out, err := c.breaker(task.Role).Execute(func() (interface{}, error) {
		res, execErr := c.executor.Execute(ctx, task, c.opts.Workspace)
		if execErr != nil {
			return nil, execErr
		}
		return res, nil
	})
	if err != nil {
		span.RecordError(err)
		c.logger.Error(zerr.With(zerr.Wrap(err, "task dispatch failed"), "task", task.ID))
		return domain.DispatchResult{
			TaskID:    task.ID,
			Output:    err.Error(),
			ElapsedMs: time.Since(start).Milliseconds(),
		}
	}

	res := out.(domain.DispatchResult)
	res.TaskID = task.ID
	if res.ElapsedMs == 0 {
		res.ElapsedMs = time.Since(start).Milliseconds()
	}
	return res
}

// breaker returns the circuit breaker for a worker role, creating it on first
// use. A role whose Executor keeps failing at the infrastructure level trips
// its breaker; subsequent dispatches for that role fail fast without calling
// the Executor while the breaker is open.
func (c *Coordinator) breaker(role string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[role]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    role,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Cancellation is the mission's doing, not the Executor's.
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})
	c.breakers[role] = cb
	return cb
}
