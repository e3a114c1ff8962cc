// Package storage provides SQLite-based persistence for saved worlds and
// run history. Uses the pure-Go modernc.org/sqlite driver to avoid CGO
// dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tui-karol/internal/snapshot"
)

// ErrNotFound is returned when a named world does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// WorldEntry describes a saved world without its contents.
type WorldEntry struct {
	Name       string
	Dimensions string
	UpdatedAt  time.Time
}

// Outcome is how a run ended.
type Outcome string

const (
	OutcomeFinished Outcome = "finished"
	OutcomeError    Outcome = "error"
	OutcomeStopped  Outcome = "stopped"
)

// RunRecord is one program run.
type RunRecord struct {
	ID        int64
	Program   string // file name or example name
	Outcome   Outcome
	Steps     int
	Duration  time.Duration
	Error     string
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS worlds (
			name TEXT PRIMARY KEY,
			dimensions TEXT NOT NULL,
			data BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			program TEXT NOT NULL,
			outcome TEXT NOT NULL,
			steps INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_program ON runs(program);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// parseTime converts a DATETIME column, which the driver may return as
// time.Time or as text.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// SaveWorld stores snap under name, replacing an existing world.
func (s *Store) SaveWorld(name string, snap snapshot.Snapshot) error {
	data, err := snapshot.Marshal(snap)
	if err != nil {
		return fmt.Errorf("storage: cannot encode world: %w", err)
	}
	d := snap.World.Dimensions
	_, err = s.db.Exec(
		`INSERT INTO worlds (name, dimensions, data, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(name) DO UPDATE SET
		   dimensions = excluded.dimensions,
		   data = excluded.data,
		   updated_at = excluded.updated_at`,
		name, fmt.Sprintf("%dx%dx%d", d.X, d.Z, d.Y), data,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save world: %w", err)
	}
	return nil
}

// LoadWorld returns the world saved under name.
func (s *Store) LoadWorld(name string) (snapshot.Snapshot, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM worlds WHERE name = ?", name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return snapshot.Snapshot{}, fmt.Errorf("%w: world %q", ErrNotFound, name)
	}
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("storage: cannot query world: %w", err)
	}
	snap, err := snapshot.Unmarshal(data)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("storage: world %q: %w", name, err)
	}
	return snap, nil
}

// ListWorlds returns all saved worlds ordered by name.
func (s *Store) ListWorlds() ([]WorldEntry, error) {
	rows, err := s.db.Query("SELECT name, dimensions, updated_at FROM worlds ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query worlds: %w", err)
	}
	defer rows.Close()

	var entries []WorldEntry
	for rows.Next() {
		var e WorldEntry
		var updatedAt any
		if err := rows.Scan(&e.Name, &e.Dimensions, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.UpdatedAt = parseTime(updatedAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}

// DeleteWorld removes the world saved under name.
func (s *Store) DeleteWorld(name string) error {
	res, err := s.db.Exec("DELETE FROM worlds WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("storage: cannot delete world: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: world %q", ErrNotFound, name)
	}
	return nil
}

// SaveRun records a finished, failed or stopped run.
// Returns the ID of the inserted record.
func (s *Store) SaveRun(r RunRecord) (int64, error) {
	var errText sql.NullString
	if r.Error != "" {
		errText = sql.NullString{String: r.Error, Valid: true}
	}
	result, err := s.db.Exec(
		"INSERT INTO runs (program, outcome, steps, duration_ms, error) VALUES (?, ?, ?, ?, ?)",
		r.Program, string(r.Outcome), r.Steps, r.Duration.Milliseconds(), errText,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecentRuns retrieves the most recent runs, newest first. An empty
// program returns runs of every program.
func (s *Store) RecentRuns(program string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, program, outcome, steps, duration_ms, error, created_at
		 FROM runs
		 WHERE ? = '' OR program = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		program, program, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var outcome string
		var durationMS int64
		var errText sql.NullString
		var createdAt any
		if err := rows.Scan(&r.ID, &r.Program, &outcome, &r.Steps, &durationMS, &errText, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.Outcome = Outcome(outcome)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.Error = errText.String
		r.CreatedAt = parseTime(createdAt)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// ClearRuns deletes the run history of program, or all history when
// program is empty.
func (s *Store) ClearRuns(program string) error {
	_, err := s.db.Exec("DELETE FROM runs WHERE ? = '' OR program = ?", program, program)
	if err != nil {
		return fmt.Errorf("storage: cannot clear runs: %w", err)
	}
	return nil
}

// ProgramStats contains aggregated statistics for a program.
type ProgramStats struct {
	Program   string
	Runs      int
	Finished  int
	Failed    int
	BestSteps int // fewest steps of a finished run, 0 if none
	AvgSteps  float64
	LastRun   time.Time
}

// GetProgramStats retrieves aggregated statistics for a program.
func (s *Store) GetProgramStats(program string) (*ProgramStats, error) {
	stats := &ProgramStats{Program: program}
	var lastRun any

	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(outcome = 'finished'), 0),
		        COALESCE(SUM(outcome = 'error'), 0),
		        COALESCE(MIN(CASE WHEN outcome = 'finished' THEN steps END), 0),
		        COALESCE(AVG(steps), 0),
		        MAX(created_at)
		 FROM runs WHERE program = ?`,
		program,
	).Scan(&stats.Runs, &stats.Finished, &stats.Failed, &stats.BestSteps, &stats.AvgSteps, &lastRun)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get program stats: %w", err)
	}
	stats.LastRun = parseTime(lastRun)

	return stats, nil
}

// GetAllProgramStats retrieves statistics for every program with runs.
func (s *Store) GetAllProgramStats() (map[string]*ProgramStats, error) {
	rows, err := s.db.Query(
		`SELECT program, COUNT(*),
		        SUM(outcome = 'finished'),
		        SUM(outcome = 'error'),
		        COALESCE(MIN(CASE WHEN outcome = 'finished' THEN steps END), 0),
		        AVG(steps),
		        MAX(created_at)
		 FROM runs
		 GROUP BY program`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get all program stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*ProgramStats)
	for rows.Next() {
		var ps ProgramStats
		var lastRun any
		if err := rows.Scan(&ps.Program, &ps.Runs, &ps.Finished, &ps.Failed, &ps.BestSteps, &ps.AvgSteps, &lastRun); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		ps.LastRun = parseTime(lastRun)
		stats[ps.Program] = &ps
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return stats, nil
}
