// Package agent provides the process-based executor adapter.
//
// A worker is any executable that reads one JSON task payload on stdin and
// writes one JSON result to stdout. The adapter maps worker roles to
// commands, enforces the per-task timeout, and converts clean worker
// failures and timeouts into failed dispatch results; only infrastructure
// problems (unknown role, spawn failure, unparsable output) surface as
// errors.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"time"

	"go.trai.ch/armada/internal/core/domain"
	"go.trai.ch/armada/internal/core/ports"
	"go.trai.ch/zerr"
)

// taskPayload is the JSON handed to the worker on stdin.
type taskPayload struct {
	ID              string   `json:"id"`
	Role            string   `json:"role"`
	Description     string   `json:"description"`
	Context         string   `json:"context,omitempty"`
	SuccessCriteria string   `json:"successCriteria,omitempty"`
	TargetFiles     []string `json:"targetFiles,omitempty"`
	Feedback        []string `json:"feedback,omitempty"`
	Workspace       string   `json:"workspace"`
	Iteration       int      `json:"iteration"`
}

// resultPayload is the JSON expected from the worker on stdout.
type resultPayload struct {
	Success       bool                `json:"success"`
	Output        string              `json:"output"`
	FilesAffected []domain.FileChange `json:"filesAffected"`
	ElapsedMs     int64               `json:"elapsedMs"`
}

// Executor implements ports.Executor by spawning one worker process per task.
type Executor struct {
	logger  ports.Logger
	roles   map[string][]string
	timeout time.Duration
}

// NewExecutor creates an Executor. roles maps a lowercased worker role to
// the argv of its command.
func NewExecutor(logger ports.Logger, roles map[string][]string, timeout time.Duration) *Executor {
	normalized := make(map[string][]string, len(roles))
	for role, argv := range roles {
		normalized[strings.ToLower(role)] = argv
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Executor{
		logger:  logger,
		roles:   normalized,
		timeout: timeout,
	}
}

// Execute runs the task's worker process and returns its result. A worker
// that exits non-zero or overruns the timeout yields a failed result with a
// nil error. Workers receive the full payload again on re-invocation after a
// crash; idempotency is the worker's contract.
func (e *Executor) Execute(ctx context.Context, task domain.Task, workspace string) (domain.DispatchResult, error) {
	argv, ok := e.roles[strings.ToLower(task.Role)]
	if !ok || len(argv) == 0 {
		return domain.DispatchResult{}, zerr.With(zerr.With(zerr.New("no worker command configured for role"), "role", task.Role), "task", task.ID)
	}

	payload, err := json.Marshal(taskPayload{
		ID:              task.ID,
		Role:            task.Role,
		Description:     task.Description,
		Context:         task.Context,
		SuccessCriteria: task.SuccessCriteria,
		TargetFiles:     task.TargetFiles,
		Feedback:        task.Feedback,
		Workspace:       workspace,
		Iteration:       task.Iteration,
	})
	if err != nil {
		return domain.DispatchResult{}, zerr.Wrap(err, "failed to marshal task payload")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // command comes from operator config
	cmd.Dir = workspace
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	if ctx.Err() == context.DeadlineExceeded {
		e.logger.Warn("worker timed out: " + task.ID)
		return domain.DispatchResult{
			TaskID:    task.ID,
			Output:    "execution timed out after " + e.timeout.String(),
			ElapsedMs: elapsed,
		}, nil
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// Could not spawn or was killed by us; not a worker verdict.
			return domain.DispatchResult{}, zerr.With(zerr.Wrap(runErr, "failed to run worker"), "task", task.ID)
		}
		// Non-zero exit: take the worker's own result if it produced one.
		if res, ok := parseResult(task.ID, stdout.Bytes(), elapsed); ok {
			return res, nil
		}
		return domain.DispatchResult{
			TaskID:    task.ID,
			Output:    firstNonEmpty(strings.TrimSpace(stderr.String()), "worker exited non-zero"),
			ElapsedMs: elapsed,
		}, nil
	}

	res, ok := parseResult(task.ID, stdout.Bytes(), elapsed)
	if !ok {
		return domain.DispatchResult{}, zerr.With(zerr.New("worker produced no parsable result"), "task", task.ID)
	}
	return res, nil
}

func parseResult(taskID string, out []byte, elapsed int64) (domain.DispatchResult, bool) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return domain.DispatchResult{}, false
	}
	var payload resultPayload
	if err := json.Unmarshal(out, &payload); err != nil {
		return domain.DispatchResult{}, false
	}
	res := domain.DispatchResult{
		TaskID:        taskID,
		Success:       payload.Success,
		Output:        payload.Output,
		FilesAffected: payload.FilesAffected,
		ElapsedMs:     payload.ElapsedMs,
	}
	if res.ElapsedMs == 0 {
		res.ElapsedMs = elapsed
	}
	return res, true
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
