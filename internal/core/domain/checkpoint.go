package domain

import "time"

// Checkpoint is an immutable snapshot of a mission taken after one
// state-machine step. The checkpoint log is the only crash-recovery mechanism:
// a mission resumes from its latest checkpoint, and external consumers read
// the full sequence for timeline inspection.
type Checkpoint struct {
	MissionID string    `json:"missionId"`
	Seq       uint64    `json:"seq"`
	Step      string    `json:"step"`
	Mission   Mission   `json:"mission"`
	CreatedAt time.Time `json:"createdAt"`
}

// DispatchResult is the ephemeral per-task outcome of one wave dispatch.
// It is consumed by the quality gate and folded into the task's persistent
// fields; it is never checkpointed standalone.
type DispatchResult struct {
	TaskID        string       `json:"taskId"`
	Success       bool         `json:"success"`
	Output        string       `json:"output,omitempty"`
	FilesAffected []FileChange `json:"filesAffected,omitempty"`
	ElapsedMs     int64        `json:"elapsedMs"`
}

// VerificationResult is an externally produced pass/fail input to the quality
// gate, typically the outcome of a verifier-role task (tester, reviewer).
type VerificationResult struct {
	TaskID string `json:"taskId"`
	Role   string `json:"role"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}
