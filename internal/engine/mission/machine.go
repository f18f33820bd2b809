// Package mission implements the checkpointed mission state machine.
//
// A mission advances in discrete steps. Each step is a function from one
// immutable mission snapshot to the next; after every step the new snapshot
// is checkpointed before the following step begins. Two steps of the same
// mission are never active concurrently; all concurrency lives inside the
// dispatch step's coordinator.
package mission

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.trai.ch/armada/internal/core/domain"
	"go.trai.ch/armada/internal/core/ports"
	"go.trai.ch/armada/internal/engine/dispatch"
	"go.trai.ch/armada/internal/engine/gate"
	"go.trai.ch/armada/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// Options configures a Machine.
type Options struct {
	// MaxParallel bounds wave size and concurrent dispatches.
	MaxParallel int
	// RequireApproval pauses the mission for operator approval after
	// planning, before the first wave.
	RequireApproval bool
	// CheckpointRetries bounds how often a failed checkpoint write is
	// retried before the mission is failed.
	CheckpointRetries uint64
}

// Machine drives missions through the plan/schedule/dispatch/evaluate loop.
// It is the only component that writes checkpoints.
type Machine struct {
	planner  ports.Planner
	coord    *dispatch.Coordinator
	store    ports.CheckpointStore
	notifier ports.Notifier
	logger   ports.Logger
	opts     Options
}

// NewMachine creates a Machine.
func NewMachine(
	planner ports.Planner,
	coord *dispatch.Coordinator,
	store ports.CheckpointStore,
	notifier ports.Notifier,
	logger ports.Logger,
	opts Options,
) *Machine {
	if opts.MaxParallel < 1 {
		opts.MaxParallel = 1
	}
	if opts.CheckpointRetries == 0 {
		opts.CheckpointRetries = 3
	}
	return &Machine{
		planner:  planner,
		coord:    coord,
		store:    store,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
	}
}

// run is the per-mission-run state: the oscillation detector and gate are
// mission-scoped so failure history never leaks between missions, and the
// wave results are ephemeral by design. A crash between dispatch and
// evaluation loses them; resume re-dispatches the wave.
type run struct {
	m        *Machine
	detector *scheduler.OscillationDetector
	gate     *gate.Evaluator
	results  map[string]domain.DispatchResult
	seq      uint64
	started  time.Time
}

func (m *Machine) newRun(missionID string) (*run, error) {
	r := &run{
		m:       m,
		started: time.Now(),
	}
	r.detector = scheduler.NewOscillationDetector()
	r.gate = gate.NewEvaluator(r.detector)

	// Seed the sequence counter past any existing checkpoints so a resumed
	// run keeps appending to the same log.
	latest, err := m.store.Latest(missionID)
	if err != nil {
		return nil, zerr.Wrap(err, "loading latest checkpoint")
	}
	if latest != nil {
		r.seq = latest.Seq
	}
	return r, nil
}

// Run plans and executes a new mission for the given request, returning the
// final mission snapshot. A mission that converges with failures is returned
// with status FAILED and a nil error; callers inspect the status.
func (m *Machine) Run(ctx context.Context, request string) (domain.Mission, error) {
	mission := domain.Mission{
		ID:      uuid.NewString(),
		Request: request,
		Status:  domain.MissionPlanning,
	}
	return m.loop(ctx, mission, StepPlan)
}

// Resume continues a mission from its latest checkpoint. Tasks left RUNNING
// by a crash are treated as not yet started and re-dispatched; the Executor
// contract requires tolerating re-invocation for the same task id.
func (m *Machine) Resume(ctx context.Context, missionID string) (domain.Mission, error) {
	mission, err := m.latestMission(missionID)
	if err != nil {
		return domain.Mission{}, err
	}

	var next Step
	switch mission.Status {
	case domain.MissionPlanning:
		next = StepPlan
	case domain.MissionReplanning:
		next = StepReplan
	case domain.MissionExecuting:
		next = StepScheduleWave
	case domain.MissionAwaitingApproval:
		return mission, zerr.With(zerr.Wrap(domain.ErrAwaitingApproval, "cannot resume"), "mission", missionID)
	default:
		return mission, zerr.With(zerr.Wrap(domain.ErrMissionTerminal, "cannot resume"), "mission", missionID)
	}

	mission = resetRunning(mission)
	return m.loop(ctx, mission, next)
}

// Approve releases a mission from AWAITING_APPROVAL. With skip true the
// escalated tasks are marked SKIPPED and execution continues past them; with
// skip false the mission is failed. Approving a freshly planned mission
// (approval gate, no escalated tasks) starts execution either way.
func (m *Machine) Approve(ctx context.Context, missionID string, skip bool) (domain.Mission, error) {
	mission, err := m.latestMission(missionID)
	if err != nil {
		return domain.Mission{}, err
	}
	if mission.Status != domain.MissionAwaitingApproval {
		return mission, zerr.With(zerr.With(zerr.Wrap(domain.ErrNotAwaitingApproval, "cannot approve"), "mission", missionID), "status", string(mission.Status))
	}

	mission = mission.Clone()
	escalated := escalatedTasks(mission)

	if len(escalated) > 0 && !skip {
		mission.Status = domain.MissionFailed
		mission.Errors = append(mission.Errors, "operator rejected escalated tasks")
		r, err := m.newRun(mission.ID)
		if err != nil {
			return mission, err
		}
		if err := r.checkpoint(mission, "approve"); err != nil {
			return mission, err
		}
		r.publish(mission, "approve")
		return mission, nil
	}

	for _, id := range escalated {
		t, _ := mission.Task(id)
		t.Status = domain.TaskSkipped
		mission = mission.ReplaceTask(t)
		mission.Completed = append(mission.Completed, id)
	}
	mission.Status = domain.MissionExecuting
	return m.loop(ctx, mission, StepScheduleWave)
}

// Status returns the latest checkpoint for a mission, or ErrMissionNotFound.
func (m *Machine) Status(missionID string) (domain.Checkpoint, error) {
	cp, err := m.store.Latest(missionID)
	if err != nil {
		return domain.Checkpoint{}, zerr.Wrap(err, "loading latest checkpoint")
	}
	if cp == nil {
		return domain.Checkpoint{}, zerr.With(zerr.Wrap(domain.ErrMissionNotFound, "no checkpoints recorded"), "mission", missionID)
	}
	return *cp, nil
}

// History returns the full checkpoint log for a mission, oldest first.
func (m *Machine) History(missionID string) ([]domain.Checkpoint, error) {
	cps, err := m.store.List(missionID)
	if err != nil {
		return nil, zerr.Wrap(err, "listing checkpoints")
	}
	if len(cps) == 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrMissionNotFound, "no checkpoints recorded"), "mission", missionID)
	}
	return cps, nil
}

func (m *Machine) latestMission(missionID string) (domain.Mission, error) {
	cp, err := m.store.Latest(missionID)
	if err != nil {
		return domain.Mission{}, zerr.Wrap(err, "loading latest checkpoint")
	}
	if cp == nil {
		return domain.Mission{}, zerr.With(zerr.Wrap(domain.ErrMissionNotFound, "no checkpoints recorded"), "mission", missionID)
	}
	return cp.Mission.Clone(), nil
}

// loop drives the transition table until a step yields StepDone. Cancellation
// is observed at step boundaries only; an in-flight wave is signalled through
// the step's context and bounded by the coordinator's grace period.
func (m *Machine) loop(ctx context.Context, mission domain.Mission, next Step) (domain.Mission, error) {
	r, err := m.newRun(mission.ID)
	if err != nil {
		return mission, err
	}

	for next != StepDone {
		if ctx.Err() != nil {
			mission = mission.Clone()
			mission.Status = domain.MissionCancelled
			if err := r.checkpoint(mission, "cancel"); err != nil {
				return mission, err
			}
			r.publish(mission, "cancel")
			return mission, nil
		}

		fn, ok := transitions[next]
		if !ok {
			return mission, zerr.With(zerr.Wrap(domain.ErrUnknownStep, "cannot continue"), "step", string(next))
		}

		stepName := string(next)
		updated, following, stepErr := fn(r, ctx, mission)
		if stepErr != nil {
			updated = updated.Clone()
			updated.Status = domain.MissionFailed
			updated.Errors = append(updated.Errors, stepErr.Error())
			if cpErr := r.checkpoint(updated, stepName); cpErr != nil {
				m.logger.Error(zerr.Wrap(cpErr, "checkpointing failed mission"))
			}
			r.publish(updated, stepName)
			return updated, stepErr
		}

		if err := r.checkpoint(updated, stepName); err != nil {
			// Proceeding without a durable checkpoint would break crash
			// recovery; the mission is failed instead.
			updated = updated.Clone()
			updated.Status = domain.MissionFailed
			updated.Errors = append(updated.Errors, err.Error())
			r.publish(updated, stepName)
			return updated, err
		}
		r.publish(updated, stepName)

		mission = updated
		next = following
	}

	return mission, nil
}

// checkpoint persists the snapshot, retrying transient write failures with
// exponential backoff up to the configured bound.
func (r *run) checkpoint(mission domain.Mission, step string) error {
	r.seq++
	cp := domain.Checkpoint{
		MissionID: mission.ID,
		Seq:       r.seq,
		Step:      step,
		Mission:   mission.Clone(),
		CreatedAt: time.Now().UTC(),
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = 2 * time.Second

	err := backoff.Retry(func() error {
		return r.m.store.Append(cp)
	}, backoff.WithMaxRetries(policy, r.m.opts.CheckpointRetries))
	if err != nil {
		// Join keeps the sentinel in the chain so callers can match it with
		// errors.Is.
		joined := errors.Join(domain.ErrCheckpointWrite, err)
		return zerr.With(zerr.With(joined, "mission", mission.ID), "seq", cp.Seq)
	}
	return nil
}

func (r *run) publish(mission domain.Mission, step string) {
	r.m.notifier.Publish(domain.Event{
		MissionID: mission.ID,
		Step:      step,
		Wave:      mission.WaveCount,
		Outcome:   string(mission.Status),
		At:        time.Now().UTC(),
	})
}

func (r *run) publishTask(mission domain.Mission, step, taskID, outcome string, fields map[string]string) {
	r.m.notifier.Publish(domain.Event{
		MissionID: mission.ID,
		Step:      step,
		Wave:      mission.WaveCount,
		TaskID:    taskID,
		Outcome:   outcome,
		Fields:    fields,
		At:        time.Now().UTC(),
	})
}

func resetRunning(mission domain.Mission) domain.Mission {
	mission = mission.Clone()
	for i, t := range mission.Tasks {
		if t.Status == domain.TaskRunning {
			mission.Tasks[i].Status = domain.TaskPending
		}
	}
	mission.CurrentWave = nil
	return mission
}

func escalatedTasks(mission domain.Mission) []string {
	completed := mission.CompletedSet()
	var ids []string
	for _, t := range mission.Tasks {
		if t.Status == domain.TaskFailed && !completed[t.ID] {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
