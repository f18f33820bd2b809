package ports

import "go.trai.ch/armada/internal/core/domain"

// CheckpointStore persists the append-only checkpoint log, keyed by mission id
// and sequence number. The state machine is the only writer; UI/CLI layers
// read the log for status display and point-in-time inspection.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type CheckpointStore interface {
	// Append writes one checkpoint. Appending a (missionID, seq) pair that
	// already exists is an error: checkpoints are immutable.
	Append(cp domain.Checkpoint) error

	// List returns all checkpoints for a mission in ascending seq order.
	// Returns an empty slice if the mission is unknown.
	List(missionID string) ([]domain.Checkpoint, error)

	// Latest returns the highest-seq checkpoint for a mission.
	// Returns nil, nil if not found.
	Latest(missionID string) (*domain.Checkpoint, error)
}
