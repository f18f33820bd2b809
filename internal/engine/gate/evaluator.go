// Package gate implements the per-task quality gate.
//
// The gate turns a task's dispatch result plus externally supplied
// verification outcomes into a grant/deny decision and, on denial, resolves
// the task's failure policy into a concrete action. It never mutates the
// task; folding the decision back into mission state is the state machine's
// job.
package gate

import (
	"fmt"
	"strings"

	"go.trai.ch/armada/internal/core/domain"
	"go.trai.ch/armada/internal/engine/scheduler"
)

// Decision is the outcome of one gate evaluation. Action and Reason are only
// meaningful when Granted is false.
type Decision struct {
	Granted bool
	Action  domain.FailureStrategy
	Reason  string

	// Oscillating marks an escalation forced by an alternating failure
	// pattern rather than by policy or budget exhaustion.
	Oscillating bool
}

// Evaluator applies gate rules against a mission-scoped oscillation detector.
type Evaluator struct {
	detector *scheduler.OscillationDetector
}

// NewEvaluator returns an evaluator bound to the given detector. Each mission
// run constructs its own pair; sharing a detector across missions would leak
// failure history between them.
func NewEvaluator(detector *scheduler.OscillationDetector) *Evaluator {
	return &Evaluator{detector: detector}
}

// Evaluate gates one task of a completed wave. checks are the verification
// outcomes produced by other tasks (tests, reviews) that apply to this task.
func (e *Evaluator) Evaluate(task domain.Task, result domain.DispatchResult, checks []domain.VerificationResult) Decision {
	if !result.Success {
		return e.deny(task, executionFailureReason(result))
	}

	// Roles without a produced-artifact contract auto-pass once their own
	// execution succeeds.
	if !gatedRole(task.Role) {
		e.detector.ClearHistory(task.ID)
		return Decision{Granted: true}
	}

	if len(result.FilesAffected) == 0 {
		return e.deny(task, "execution reported success but produced no file changes")
	}

	for _, check := range checks {
		if !check.Passed {
			reason := fmt.Sprintf("verification by %s failed", check.Role)
			if check.Detail != "" {
				reason += ": " + check.Detail
			}
			return e.deny(task, reason)
		}
	}

	e.detector.ClearHistory(task.ID)
	return Decision{Granted: true}
}

// deny resolves the task's failure policy into the final action. Oscillation
// overrides any remaining retry budget; budget exhaustion likewise converts
// RETRY into ESCALATE.
func (e *Evaluator) deny(task domain.Task, reason string) Decision {
	action := task.OnFailure
	if action == "" {
		action = domain.FailureRetry
	}

	if action != domain.FailureRetry {
		return Decision{Action: action, Reason: reason}
	}

	e.detector.RecordFailure(task.ID, scheduler.Signature(reason))

	if e.detector.IsOscillating(task.ID) {
		return Decision{
			Action:      domain.FailureEscalate,
			Reason:      fmt.Sprintf("oscillating failure pattern detected: %s (history: %s)", reason, strings.Join(e.detector.History(task.ID), ", ")),
			Oscillating: true,
		}
	}

	if task.Iteration >= task.MaxIterations {
		return Decision{
			Action: domain.FailureEscalate,
			Reason: fmt.Sprintf("retry budget exhausted after %d attempts: %s", task.Iteration, reason),
		}
	}

	return Decision{Action: domain.FailureRetry, Reason: reason}
}

func executionFailureReason(result domain.DispatchResult) string {
	out := strings.TrimSpace(result.Output)
	if out == "" {
		return "execution failed"
	}
	if len(out) > 240 {
		out = out[:240]
	}
	return "execution failed: " + out
}

// gatedRole reports whether the role's output is held to the quality gate's
// artifact and verification checks. Everything else (research, review-only
// roles) passes on successful execution alone.
func gatedRole(role string) bool {
	switch strings.ToLower(role) {
	case "coder", "refactorer":
		return true
	}
	return false
}
