// Package plan implements ports.Planner from a YAML mission plan file.
//
// The loader stands in for the model-driven planning service: it turns a
// plan file into the initial task graph and, on replan, re-reads the file
// and hands back the tasks that have not yet run, annotated with the
// accumulated feedback.
package plan

import (
	"context"
	"os"
	"strings"

	"go.trai.ch/armada/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Planfile represents the structure of a mission plan file.
type Planfile struct {
	Version  string    `yaml:"version"`
	Strategy string    `yaml:"strategy"`
	Tasks    []TaskDTO `yaml:"tasks"`
}

// TaskDTO represents a task definition in the plan file.
type TaskDTO struct {
	ID              string   `yaml:"id"`
	Role            string   `yaml:"role"`
	Description     string   `yaml:"description"`
	Context         string   `yaml:"context"`
	SuccessCriteria string   `yaml:"successCriteria"`
	DependsOn       []string `yaml:"dependsOn"`
	TargetFiles     []string `yaml:"targetFiles"`
	MaxIterations   int      `yaml:"maxIterations"`
	OnFailure       string   `yaml:"onFailure"`
}

// Loader implements ports.Planner by reading a plan file.
type Loader struct {
	Path string
}

// NewLoader creates a Loader for the given plan file path.
func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

// Plan reads the plan file and returns the initial task list. The request is
// carried on the mission, not interpreted here.
func (l *Loader) Plan(_ context.Context, _ string) ([]domain.Task, domain.ExecutionStrategy, error) {
	file, err := l.read()
	if err != nil {
		return nil, "", err
	}

	tasks := make([]domain.Task, 0, len(file.Tasks))
	for _, dto := range file.Tasks {
		tasks = append(tasks, toTask(dto))
	}

	strategy := domain.StrategySequential
	if strings.EqualFold(file.Strategy, string(domain.StrategyParallel)) {
		strategy = domain.StrategyParallel
	}
	return tasks, strategy, nil
}

// Replan re-reads the plan file and returns the tasks that have not reached
// a terminal status, with the accumulated feedback folded into their context
// so the next attempt sees what went wrong.
func (l *Loader) Replan(_ context.Context, mission domain.Mission, feedback []string) ([]domain.Task, error) {
	file, err := l.read()
	if err != nil {
		return nil, err
	}

	note := ""
	if len(feedback) > 0 {
		note = "Previous attempt feedback:\n" + strings.Join(feedback, "\n")
	}

	var tasks []domain.Task
	for _, dto := range file.Tasks {
		if prior, ok := mission.Task(dto.ID); ok && prior.Status.Terminal() {
			continue
		}
		t := toTask(dto)
		if note != "" {
			if t.Context != "" {
				t.Context += "\n\n"
			}
			t.Context += note
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (l *Loader) read() (*Planfile, error) {
	data, err := os.ReadFile(l.Path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read plan file")
	}
	var file Planfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(err, "failed to parse plan file")
	}
	return &file, nil
}

func toTask(dto TaskDTO) domain.Task {
	t := domain.Task{
		ID:              dto.ID,
		Role:            dto.Role,
		Description:     dto.Description,
		Context:         dto.Context,
		SuccessCriteria: dto.SuccessCriteria,
		Dependencies:    dto.DependsOn,
		TargetFiles:     dto.TargetFiles,
		Status:          domain.TaskPending,
		MaxIterations:   dto.MaxIterations,
		OnFailure:       domain.FailureStrategy(strings.ToUpper(dto.OnFailure)),
	}
	if t.MaxIterations <= 0 {
		t.MaxIterations = 3
	}
	if t.OnFailure == "" {
		t.OnFailure = domain.FailureRetry
	}
	return t
}
