package mission

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.trai.ch/armada/internal/core/domain"
	"go.trai.ch/armada/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// Step names one state-machine transition. The step name recorded in a
// checkpoint is the step that produced the snapshot.
type Step string

const (
	StepPlan         Step = "plan_mission"
	StepScheduleWave Step = "schedule_wave"
	StepDispatchWave Step = "dispatch_wave"
	StepEvaluateWave Step = "evaluate_wave"
	StepReplan       Step = "replan_mission"
	StepConverge     Step = "converge"

	// StepDone halts the loop. Never recorded in a checkpoint.
	StepDone Step = ""
)

// stepFunc maps one immutable mission snapshot to the next, together with the
// step to run afterwards. A non-nil error is fatal to the mission.
type stepFunc func(r *run, ctx context.Context, mission domain.Mission) (domain.Mission, Step, error)

var transitions = map[Step]stepFunc{
	StepPlan:         (*run).planMission,
	StepScheduleWave: (*run).scheduleWave,
	StepDispatchWave: (*run).dispatchWave,
	StepEvaluateWave: (*run).evaluateWave,
	StepReplan:       (*run).replanMission,
	StepConverge:     (*run).converge,
}

func (r *run) planMission(ctx context.Context, mission domain.Mission) (domain.Mission, Step, error) {
	tasks, strategy, err := r.m.planner.Plan(ctx, mission.Request)
	if err != nil {
		return mission, StepDone, zerr.Wrap(err, "planning failed")
	}
	tasks = normalizeTasks(tasks)
	if err := validatePlan(tasks); err != nil {
		return mission, StepDone, err
	}

	mission = mission.Clone()
	mission.Tasks = tasks
	mission.Strategy = strategy
	if mission.Strategy == "" {
		mission.Strategy = domain.StrategySequential
	}

	if r.m.opts.RequireApproval {
		mission.Status = domain.MissionAwaitingApproval
		return mission, StepDone, nil
	}
	mission.Status = domain.MissionExecuting
	return mission, StepScheduleWave, nil
}

func (r *run) scheduleWave(ctx context.Context, mission domain.Mission) (domain.Mission, Step, error) {
	completed := mission.CompletedSet()
	wave := scheduler.ComputeNextWave(mission.Tasks, completed, mission.Strategy, r.m.opts.MaxParallel)

	if len(wave) == 0 {
		if mission.AllTerminal() {
			return mission, StepConverge, nil
		}
		blocked := scheduler.Blocked(mission.Tasks, completed)
		return mission, StepDone, zerr.With(zerr.Wrap(domain.ErrSchedulingDeadlock, "cannot schedule next wave"), "blocked", strings.Join(blocked, ","))
	}

	mission = mission.Clone()
	mission.CurrentWave = wave
	mission.WaveCount++
	return mission, StepDispatchWave, nil
}

func (r *run) dispatchWave(ctx context.Context, mission domain.Mission) (domain.Mission, Step, error) {
	mission = mission.Clone()
	for i, t := range mission.Tasks {
		if slices.Contains(mission.CurrentWave, t.ID) {
			mission.Tasks[i].Status = domain.TaskRunning
		}
	}

	results, err := r.m.coord.DispatchWave(ctx, mission, mission.CurrentWave)
	if err != nil {
		return mission, StepDone, err
	}

	r.results = make(map[string]domain.DispatchResult, len(results))
	for _, res := range results {
		r.results[res.TaskID] = res
	}
	mission.Metrics.WavesExecuted++
	return mission, StepEvaluateWave, nil
}

func (r *run) evaluateWave(ctx context.Context, mission domain.Mission) (domain.Mission, Step, error) {
	mission = mission.Clone()

	var escalated, replan bool
	for _, id := range mission.CurrentWave {
		task, ok := mission.Task(id)
		if !ok {
			return mission, StepDone, zerr.With(zerr.Wrap(domain.ErrTaskNotFound, "wave references missing task"), "task", id)
		}
		res := r.results[id]

		task.FilesAffected = res.FilesAffected
		task.ElapsedMs += res.ElapsedMs

		decision := r.gate.Evaluate(task, res, verifications(mission, task))
		task.Iteration++

		if decision.Granted {
			task.Status = domain.TaskPassed
			mission = mission.ReplaceTask(task)
			mission.Completed = append(mission.Completed, id)
			r.publishTask(mission, string(StepEvaluateWave), id, "granted", nil)
			continue
		}

		task.Feedback = append(task.Feedback, decision.Reason)
		mission.Errors = append(mission.Errors, fmt.Sprintf("%s: %s", id, decision.Reason))

		switch decision.Action {
		case domain.FailureRetry, domain.FailureReplan:
			task.Status = domain.TaskPending
			replan = replan || decision.Action == domain.FailureReplan
		case domain.FailureSkip:
			task.Status = domain.TaskSkipped
		case domain.FailureEscalate:
			task.Status = domain.TaskFailed
			escalated = true
		}
		mission = mission.ReplaceTask(task)
		if decision.Action == domain.FailureSkip {
			mission.Completed = append(mission.Completed, id)
		}
		r.publishTask(mission, string(StepEvaluateWave), id, "denied", map[string]string{
			"action": string(decision.Action),
			"reason": decision.Reason,
		})
	}

	mission.CurrentWave = nil
	r.results = nil

	if escalated {
		mission.Status = domain.MissionAwaitingApproval
		return mission, StepDone, nil
	}
	if replan {
		mission.Status = domain.MissionReplanning
		return mission, StepReplan, nil
	}
	return mission, StepScheduleWave, nil
}

// replanMission asks the Planner to regenerate the not-yet-run tasks with the
// accumulated feedback. Terminal tasks and their results are kept; everything
// still pending is replaced by the revised plan. Wave scheduling stays
// blocked until the planner returns.
func (r *run) replanMission(ctx context.Context, mission domain.Mission) (domain.Mission, Step, error) {
	revised, err := r.m.planner.Replan(ctx, mission, collectFeedback(mission))
	if err != nil {
		return mission, StepDone, zerr.Wrap(err, "replanning failed")
	}
	revised = normalizeTasks(revised)

	mission = mission.Clone()
	var kept []domain.Task
	for _, t := range mission.Tasks {
		if t.Status.Terminal() {
			kept = append(kept, t)
		}
	}
	keptIDs := make(map[string]bool, len(kept))
	for _, t := range kept {
		keptIDs[t.ID] = true
	}
	for _, t := range revised {
		if !keptIDs[t.ID] {
			kept = append(kept, t)
		}
	}
	if err := validatePlan(kept); err != nil {
		return mission, StepDone, err
	}

	mission.Tasks = kept
	mission.Status = domain.MissionExecuting
	return mission, StepScheduleWave, nil
}

func (r *run) converge(ctx context.Context, mission domain.Mission) (domain.Mission, Step, error) {
	mission = mission.Clone()

	metrics := mission.Metrics
	metrics.TasksPassed = 0
	metrics.TasksFailed = 0
	metrics.TasksSkipped = 0
	metrics.TotalIterations = 0
	metrics.FilesCreated = 0
	metrics.FilesModified = 0

	failed := false
	for _, t := range mission.Tasks {
		metrics.TotalIterations += t.Iteration
		switch t.Status {
		case domain.TaskPassed:
			metrics.TasksPassed++
		case domain.TaskFailed:
			metrics.TasksFailed++
			failed = true
		case domain.TaskSkipped:
			metrics.TasksSkipped++
		}
		for _, fc := range t.FilesAffected {
			switch fc.Action {
			case domain.FileCreated:
				metrics.FilesCreated++
			case domain.FileModified:
				metrics.FilesModified++
			}
		}
	}
	metrics.TotalDurationMs += time.Since(r.started).Milliseconds()
	mission.Metrics = metrics

	if failed {
		mission.Status = domain.MissionFailed
	} else {
		mission.Status = domain.MissionCompleted
	}
	return mission, StepDone, nil
}

// verifications gathers the terminal outcomes of verifier-role tasks that
// depend on the given task. Verifiers still pending simply contribute no
// check yet.
func verifications(mission domain.Mission, task domain.Task) []domain.VerificationResult {
	var out []domain.VerificationResult
	for _, other := range mission.Tasks {
		if other.ID == task.ID || !verifierRole(other.Role) || !other.Status.Terminal() {
			continue
		}
		if !dependsOn(other, task) {
			continue
		}
		v := domain.VerificationResult{
			TaskID: other.ID,
			Role:   other.Role,
			Passed: other.Status != domain.TaskFailed,
		}
		if n := len(other.Feedback); n > 0 {
			v.Detail = other.Feedback[n-1]
		}
		out = append(out, v)
	}
	return out
}

func verifierRole(role string) bool {
	switch strings.ToLower(role) {
	case "tester", "reviewer":
		return true
	}
	return false
}

func dependsOn(t, target domain.Task) bool {
	for _, dep := range t.Dependencies {
		if dep == target.ID || strings.EqualFold(dep, target.Role) {
			return true
		}
	}
	return false
}

func collectFeedback(mission domain.Mission) []string {
	var out []string
	for _, t := range mission.Tasks {
		for _, f := range t.Feedback {
			out = append(out, fmt.Sprintf("%s: %s", t.ID, f))
		}
	}
	return out
}

func normalizeTasks(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		if t.Status == "" {
			t.Status = domain.TaskPending
		}
		if t.MaxIterations <= 0 {
			t.MaxIterations = 3
		}
		if t.OnFailure == "" {
			t.OnFailure = domain.FailureRetry
		}
		out[i] = t
	}
	return out
}

func validatePlan(tasks []domain.Task) error {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			return zerr.With(zerr.Wrap(domain.ErrInvalidPlan, "rejecting plan"), "reason", "task with empty id")
		}
		if seen[t.ID] {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidPlan, "rejecting plan"), "reason", "duplicate task id"), "task", t.ID)
		}
		seen[t.ID] = true
		for _, dep := range t.Dependencies {
			if dep == t.ID {
				return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidPlan, "rejecting plan"), "reason", "task depends on itself"), "task", t.ID)
			}
		}
	}
	return nil
}
