// Package persistence provides the SQLite run archive. Every completed run
// is stored whole as its JSON envelope plus a few indexed columns for
// listing; the envelope is the contract, the columns are a convenience.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/swarmforge/arena/internal/engine"
)

// ErrNotFound is returned when a run id is not in the archive.
var ErrNotFound = errors.New("run not found")

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		hypothesis_id INTEGER NOT NULL,
		hypothesis_name TEXT NOT NULL,
		seed INTEGER NOT NULL,
		rounds INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_hypothesis ON runs(hypothesis_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun archives a completed run. Saving the same run id twice replaces the
// stored envelope, which only matters for replays of the same seed.
func (db *DB) SaveRun(res *engine.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", res.RunID, err)
	}

	_, err = db.conn.Exec(`INSERT OR REPLACE INTO runs
		(run_id, hypothesis_id, hypothesis_name, seed, rounds, created_at, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Config.ID, res.Config.Name, res.Seed, res.Metrics.Rounds,
		time.Now().UTC().Format(time.RFC3339), string(payload))
	if err != nil {
		return fmt.Errorf("save run %s: %w", res.RunID, err)
	}
	return nil
}

// LoadRun fetches a run envelope by id.
func (db *DB) LoadRun(runID string) (*engine.Result, error) {
	var payload string
	err := db.conn.Get(&payload, `SELECT result_json FROM runs WHERE run_id = ?`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	var res engine.Result
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return &res, nil
}

// RunMeta is one archive listing row.
type RunMeta struct {
	RunID          string    `db:"run_id" json:"runId"`
	HypothesisID   int       `db:"hypothesis_id" json:"hypothesisId"`
	HypothesisName string    `db:"hypothesis_name" json:"hypothesisName"`
	Seed           int64     `db:"seed" json:"seed"`
	Rounds         int       `db:"rounds" json:"rounds"`
	CreatedAt      time.Time `db:"-" json:"createdAt"`

	RawCreatedAt string `db:"created_at" json:"-"`
}

// ListRuns returns the newest runs first, up to limit.
func (db *DB) ListRuns(limit int) ([]RunMeta, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []RunMeta
	err := db.conn.Select(&rows, `SELECT run_id, hypothesis_id, hypothesis_name, seed, rounds, created_at
		FROM runs ORDER BY created_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	for i := range rows {
		if t, err := time.Parse(time.RFC3339, rows[i].RawCreatedAt); err == nil {
			rows[i].CreatedAt = t
		}
	}
	return rows, nil
}
