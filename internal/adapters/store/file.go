package store

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/armada/internal/core/domain"
	"go.trai.ch/zerr"
)

// FileStore implements ports.CheckpointStore as one append-only JSONL file
// per mission. Useful for inspection with standard text tooling and as a
// dependency-free fallback to the SQLite store.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the store directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, zerr.Wrap(err, "failed to create store directory")
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(missionID string) string {
	return filepath.Join(s.dir, missionID+".jsonl")
}

// Append writes one checkpoint as a JSON line. A sequence number at or below
// the last written one is rejected to keep the log append-only.
func (s *FileStore) Append(cp domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, err := s.latestLocked(cp.MissionID)
	if err != nil {
		return err
	}
	if last != nil && cp.Seq <= last.Seq {
		err := zerr.With(zerr.New("checkpoint sequence must increase"), "mission", cp.MissionID)
		err = zerr.With(err, "seq", cp.Seq)
		return zerr.With(err, "last", last.Seq)
	}

	line, err := json.Marshal(cp)
	if err != nil {
		return zerr.Wrap(err, "failed to marshal checkpoint")
	}

	f, err := os.OpenFile(s.path(cp.MissionID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return zerr.Wrap(err, "failed to open checkpoint log")
	}
	defer f.Close() //nolint:errcheck

	if _, err := f.Write(append(line, '\n')); err != nil {
		return zerr.Wrap(err, "failed to write checkpoint")
	}
	return f.Sync()
}

// List returns every checkpoint for a mission, oldest first.
func (s *FileStore) List(missionID string) ([]domain.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(missionID)
}

// Latest returns the most recent checkpoint, or nil when the mission has none.
func (s *FileStore) Latest(missionID string) (*domain.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestLocked(missionID)
}

func (s *FileStore) listLocked(missionID string) ([]domain.Checkpoint, error) {
	f, err := os.Open(s.path(missionID)) //nolint:gosec
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open checkpoint log")
	}
	defer f.Close() //nolint:errcheck

	var out []domain.Checkpoint
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var cp domain.Checkpoint
		if err := json.Unmarshal(scanner.Bytes(), &cp); err != nil {
			return nil, zerr.Wrap(err, "failed to parse checkpoint log line")
		}
		out = append(out, cp)
	}
	if err := scanner.Err(); err != nil {
		return nil, zerr.Wrap(err, "failed to read checkpoint log")
	}
	return out, nil
}

func (s *FileStore) latestLocked(missionID string) (*domain.Checkpoint, error) {
	cps, err := s.listLocked(missionID)
	if err != nil || len(cps) == 0 {
		return nil, err
	}
	return &cps[len(cps)-1], nil
}
