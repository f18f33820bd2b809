// Package app implements the application layer for armada.
package app

import (
	"context"
	"fmt"
	"strings"

	"go.trai.ch/armada/internal/adapters/events"
	"go.trai.ch/armada/internal/core/domain"
	"go.trai.ch/armada/internal/core/ports"
	"go.trai.ch/armada/internal/engine/mission"
	"go.trai.ch/zerr"
)

// App ties the mission machine to the CLI surface.
type App struct {
	machine *mission.Machine
	logger  ports.Logger
}

// New creates an App and subscribes mission events to the logger.
func New(machine *mission.Machine, bus *events.Bus, logger ports.Logger) *App {
	a := &App{
		machine: machine,
		logger:  logger,
	}
	bus.Subscribe(func(e domain.Event) {
		msg := fmt.Sprintf("mission %s: %s (wave %d, %s)", e.MissionID, e.Step, e.Wave, e.Outcome)
		if e.TaskID != "" {
			msg = fmt.Sprintf("mission %s: task %s %s", e.MissionID, e.TaskID, e.Outcome)
			if reason := e.Fields["reason"]; reason != "" {
				msg += ": " + reason
			}
		}
		a.logger.Info(msg)
	})
	return a
}

// Run plans and executes a mission for the request.
func (a *App) Run(ctx context.Context, request string) error {
	request = strings.TrimSpace(request)
	if request == "" {
		return domain.ErrEmptyRequest
	}
	m, err := a.machine.Run(ctx, request)
	if err != nil {
		return zerr.Wrap(err, "mission execution failed")
	}
	return a.finish(m)
}

// Resume continues a mission from its latest checkpoint.
func (a *App) Resume(ctx context.Context, missionID string) error {
	m, err := a.machine.Resume(ctx, missionID)
	if err != nil {
		return zerr.Wrap(err, "mission resume failed")
	}
	return a.finish(m)
}

// Approve releases a mission that is awaiting operator approval.
func (a *App) Approve(ctx context.Context, missionID string, skip bool) error {
	m, err := a.machine.Approve(ctx, missionID, skip)
	if err != nil {
		return zerr.Wrap(err, "mission approval failed")
	}
	return a.finish(m)
}

// Status returns the latest checkpoint for display.
func (a *App) Status(missionID string) (domain.Checkpoint, error) {
	return a.machine.Status(missionID)
}

// History returns the full checkpoint log for timeline display.
func (a *App) History(missionID string) ([]domain.Checkpoint, error) {
	return a.machine.History(missionID)
}

func (a *App) finish(m domain.Mission) error {
	switch m.Status {
	case domain.MissionCompleted:
		a.logger.Info(fmt.Sprintf(
			"mission %s completed: %d passed, %d skipped, %d waves, %d files created, %d files modified",
			m.ID, m.Metrics.TasksPassed, m.Metrics.TasksSkipped, m.Metrics.WavesExecuted,
			m.Metrics.FilesCreated, m.Metrics.FilesModified,
		))
		return nil
	case domain.MissionAwaitingApproval:
		a.logger.Warn(fmt.Sprintf("mission %s is awaiting approval; run 'armada approve %s' to continue", m.ID, m.ID))
		return nil
	case domain.MissionCancelled:
		a.logger.Warn(fmt.Sprintf("mission %s cancelled", m.ID))
		return nil
	case domain.MissionFailed:
		for _, e := range m.Errors {
			a.logger.Error(zerr.New(e))
		}
		return zerr.With(zerr.Wrap(domain.ErrMissionFailed, "mission converged with failures"), "mission", m.ID)
	default:
		return nil
	}
}
