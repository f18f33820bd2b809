package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/armada/internal/adapters/store"
	"go.trai.ch/armada/internal/core/domain"
	"go.trai.ch/armada/internal/core/ports"
)

func checkpoint(missionID string, seq uint64, step string) domain.Checkpoint {
	return domain.Checkpoint{
		MissionID: missionID,
		Seq:       seq,
		Step:      step,
		Mission: domain.Mission{
			ID:      missionID,
			Request: "ship the feature",
			Status:  domain.MissionExecuting,
			Tasks: []domain.Task{
				{ID: "t1", Role: "coder", Status: domain.TaskRunning},
			},
			Completed: []string{"t0"},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func runStoreTests(t *testing.T, newStore func(t *testing.T) ports.CheckpointStore) {
	t.Helper()

	t.Run("round trip", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Append(checkpoint("m1", 1, "plan_mission")))
		require.NoError(t, s.Append(checkpoint("m1", 2, "schedule_wave")))

		cps, err := s.List("m1")
		require.NoError(t, err)
		require.Len(t, cps, 2)
		assert.Equal(t, uint64(1), cps[0].Seq)
		assert.Equal(t, "plan_mission", cps[0].Step)
		assert.Equal(t, "ship the feature", cps[0].Mission.Request)
		assert.Equal(t, []string{"t0"}, cps[0].Mission.Completed)
		require.Len(t, cps[0].Mission.Tasks, 1)
		assert.Equal(t, domain.TaskRunning, cps[0].Mission.Tasks[0].Status)

		latest, err := s.Latest("m1")
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, uint64(2), latest.Seq)
		assert.Equal(t, "schedule_wave", latest.Step)
	})

	t.Run("unknown mission", func(t *testing.T) {
		s := newStore(t)

		latest, err := s.Latest("missing")
		require.NoError(t, err)
		assert.Nil(t, latest)

		cps, err := s.List("missing")
		require.NoError(t, err)
		assert.Empty(t, cps)
	})

	t.Run("duplicate sequence rejected", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Append(checkpoint("m1", 1, "plan_mission")))
		assert.Error(t, s.Append(checkpoint("m1", 1, "plan_mission")))
	})

	t.Run("missions are isolated", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Append(checkpoint("m1", 1, "plan_mission")))
		require.NoError(t, s.Append(checkpoint("m2", 1, "plan_mission")))
		require.NoError(t, s.Append(checkpoint("m2", 2, "converge")))

		cps, err := s.List("m1")
		require.NoError(t, err)
		assert.Len(t, cps, 1)

		latest, err := s.Latest("m2")
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, "converge", latest.Step)
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) ports.CheckpointStore {
		s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "checkpoints.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestFileStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) ports.CheckpointStore {
		s, err := store.NewFileStore(t.TempDir())
		require.NoError(t, err)
		return s
	})
}

func TestMemoryStore(t *testing.T) {
	s, err := store.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	// The shared-cache memory database outlives individual connections, so a
	// unique mission id keeps this test independent.
	id := "m-" + t.Name()
	require.NoError(t, s.Append(checkpoint(id, 1, "plan_mission")))

	latest, err := s.Latest(id)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, uint64(1), latest.Seq)
}

func TestFileStore_RejectsDecreasingSequence(t *testing.T) {
	s, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Append(checkpoint("m1", 2, "plan_mission")))
	assert.Error(t, s.Append(checkpoint("m1", 1, "plan_mission")))
}

func TestSQLiteStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "checkpoints.db")
	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Append(checkpoint("m1", 1, "plan_mission")))
}
