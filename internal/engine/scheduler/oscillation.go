package scheduler

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// OscillationDetector tracks per-task failure signatures and flags tasks that
// alternate between two failure modes instead of converging.
//
// Each mission run owns its own detector, keyed by task id. The detector is
// only touched from the single active state-machine step, so it carries no
// locking.
type OscillationDetector struct {
	history map[string][]string
}

// NewOscillationDetector returns an empty detector.
func NewOscillationDetector() *OscillationDetector {
	return &OscillationDetector{history: make(map[string][]string)}
}

// RecordFailure appends a failure signature to the task's history.
func (d *OscillationDetector) RecordFailure(taskID, signature string) {
	d.history[taskID] = append(d.history[taskID], signature)
}

// IsOscillating reports whether the task's last three failures form an
// A, B, A pattern. A monotonic repeat (A, A, A) is an ordinary persistent
// failure, not oscillation, and stays subject to normal retry exhaustion.
func (d *OscillationDetector) IsOscillating(taskID string) bool {
	h := d.history[taskID]
	n := len(h)
	if n < 3 {
		return false
	}
	return h[n-1] == h[n-3] && h[n-1] != h[n-2]
}

// ClearHistory drops the task's failure history so a later, unrelated failure
// streak starts fresh. Called when a task transitions out of failure.
func (d *OscillationDetector) ClearHistory(taskID string) {
	delete(d.history, taskID)
}

// FailureCount returns the number of recorded failures for the task.
func (d *OscillationDetector) FailureCount(taskID string) int {
	return len(d.history[taskID])
}

// History returns a copy of the task's recorded signatures, oldest first.
// Surfaced to the operator on oscillation-forced escalation.
func (d *OscillationDetector) History(taskID string) []string {
	h := d.history[taskID]
	if h == nil {
		return nil
	}
	out := make([]string, len(h))
	copy(out, h)
	return out
}

// Signature derives a stable failure signature from a raw failure reason.
// The reason is lowercased and whitespace-collapsed before hashing so that
// cosmetic variations of the same error class map to one signature.
func Signature(reason string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(reason)), " ")
	return fmt.Sprintf("%016x", xxhash.Sum64String(norm))
}
