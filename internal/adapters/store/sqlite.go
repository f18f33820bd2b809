// Package store provides checkpoint persistence adapters.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/armada/internal/core/domain"
	"go.trai.ch/zerr"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	mission_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	step       TEXT NOT NULL,
	state      TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (mission_id, seq)
);
`

// SQLiteStore implements ports.CheckpointStore on a local SQLite database.
// The primary key on (mission_id, seq) makes the log append-only: a duplicate
// sequence number is rejected by the database, never silently overwritten.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, zerr.Wrap(err, "failed to create store directory")
		}
	}

	// modernc.org/sqlite understands these pragmas in the DSN.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open checkpoint database")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, zerr.Wrap(err, "failed to initialize checkpoint schema")
	}
	return &SQLiteStore{db: db}, nil
}

// NewMemoryStore opens an in-memory store. Used by tests.
func NewMemoryStore() (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", "file::memory:?mode=memory&cache=shared")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open memory database")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, zerr.Wrap(err, "failed to initialize checkpoint schema")
	}
	return &SQLiteStore{db: db}, nil
}

// Append persists one checkpoint. A duplicate (mission, seq) pair is an error.
func (s *SQLiteStore) Append(cp domain.Checkpoint) error {
	state, err := json.Marshal(cp.Mission)
	if err != nil {
		return zerr.Wrap(err, "failed to marshal mission snapshot")
	}

	_, err = s.db.Exec(
		`INSERT INTO checkpoints (mission_id, seq, step, state, created_at) VALUES (?, ?, ?, ?, ?)`,
		cp.MissionID, cp.Seq, cp.Step, string(state), cp.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return zerr.With(zerr.With(zerr.Wrap(err, "failed to write checkpoint"), "mission", cp.MissionID), "seq", cp.Seq)
	}
	return nil
}

// List returns every checkpoint for a mission, oldest first.
func (s *SQLiteStore) List(missionID string) ([]domain.Checkpoint, error) {
	rows, err := s.db.Query(
		`SELECT seq, step, state, created_at FROM checkpoints WHERE mission_id = ? ORDER BY seq ASC`,
		missionID,
	)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to query checkpoints")
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(missionID, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, zerr.Wrap(err, "failed to read checkpoints")
	}
	return out, nil
}

// Latest returns the most recent checkpoint, or nil when the mission has none.
func (s *SQLiteStore) Latest(missionID string) (*domain.Checkpoint, error) {
	row := s.db.QueryRow(
		`SELECT seq, step, state, created_at FROM checkpoints WHERE mission_id = ? ORDER BY seq DESC LIMIT 1`,
		missionID,
	)
	cp, err := scanCheckpoint(missionID, row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckpoint(missionID string, row rowScanner) (domain.Checkpoint, error) {
	var (
		cp      domain.Checkpoint
		state   string
		created string
	)
	if err := row.Scan(&cp.Seq, &cp.Step, &state, &created); err != nil {
		if err == sql.ErrNoRows {
			return domain.Checkpoint{}, err
		}
		return domain.Checkpoint{}, zerr.Wrap(err, "failed to scan checkpoint")
	}
	cp.MissionID = missionID

	if err := json.Unmarshal([]byte(state), &cp.Mission); err != nil {
		return domain.Checkpoint{}, zerr.Wrap(err, "failed to unmarshal mission snapshot")
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return domain.Checkpoint{}, zerr.Wrap(err, "failed to parse checkpoint timestamp")
	}
	cp.CreatedAt = ts
	return cp, nil
}
