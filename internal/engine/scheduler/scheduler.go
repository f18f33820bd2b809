// Package scheduler computes dependency-aware execution waves for a mission.
//
// Wave computation is a pure function: the same task list, completion set,
// strategy and parallelism cap always produce the same wave. The state machine
// relies on this for deterministic replay from any checkpoint.
package scheduler

import (
	"strings"

	"go.trai.ch/armada/internal/core/domain"
)

// ComputeNextWave returns the ids of the tasks to dispatch next, in selection
// order. An empty result means either every task is terminal (the mission is
// complete) or the remaining tasks are blocked; callers distinguish the two
// with Blocked.
//
// Under SEQUENTIAL the wave holds at most the first eligible task. Under
// PARALLEL eligible tasks are accepted greedily in input order, skipping any
// candidate whose target files overlap a file already claimed by this wave,
// up to maxParallel.
func ComputeNextWave(tasks []domain.Task, completed map[string]bool, strategy domain.ExecutionStrategy, maxParallel int) []string {
	if maxParallel < 1 {
		maxParallel = 1
	}

	var wave []string
	var claimed []string
	for _, t := range tasks {
		if !eligible(t, tasks, completed) {
			continue
		}

		if strategy == domain.StrategySequential {
			return []string{t.ID}
		}

		if conflicts(t.TargetFiles, claimed) {
			continue
		}

		wave = append(wave, t.ID)
		claimed = append(claimed, t.TargetFiles...)
		if len(wave) == maxParallel {
			break
		}
	}
	return wave
}

// Blocked returns the ids of tasks that are neither terminal nor completed.
// A non-empty result alongside an empty wave is a scheduling deadlock and
// names the tasks that can never run.
func Blocked(tasks []domain.Task, completed map[string]bool) []string {
	var blocked []string
	for _, t := range tasks {
		if t.Status.Terminal() || completed[t.ID] {
			continue
		}
		blocked = append(blocked, t.ID)
	}
	return blocked
}

func eligible(t domain.Task, tasks []domain.Task, completed map[string]bool) bool {
	if t.Status != domain.TaskPending || completed[t.ID] {
		return false
	}
	for _, dep := range t.Dependencies {
		if !depSatisfied(dep, tasks, completed) {
			return false
		}
	}
	return true
}

// depSatisfied resolves a dependency reference. A dependency is normally a
// task id, but planners also emit role names; a role reference is satisfied
// once any completed task carries that role (case-insensitive).
func depSatisfied(dep string, tasks []domain.Task, completed map[string]bool) bool {
	if completed[dep] {
		return true
	}
	for _, t := range tasks {
		if completed[t.ID] && strings.EqualFold(t.Role, dep) {
			return true
		}
	}
	return false
}

func conflicts(files, claimed []string) bool {
	for _, f := range files {
		for _, c := range claimed {
			if pathsOverlap(f, c) {
				return true
			}
		}
	}
	return false
}

// pathsOverlap reports whether two declared target paths may refer to the
// same file. Paths are compared after stripping a leading "./"; they overlap
// when equal or when one is a path-segment suffix of the other, which covers
// relative vs. absolute references to the same file. The suffix test can
// false-positive on unrelated files sharing a tail; tasks that need strict
// isolation should declare rooted paths.
func pathsOverlap(a, b string) bool {
	a = normalizePath(a)
	b = normalizePath(b)
	if a == b {
		return true
	}
	return strings.HasSuffix(a, "/"+b) || strings.HasSuffix(b, "/"+a)
}

func normalizePath(p string) string {
	return strings.TrimPrefix(p, "./")
}
