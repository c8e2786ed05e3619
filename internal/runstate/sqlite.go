package runstate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a pure-Go SQLite database, a durable
// alternative to MemoryStore whose records outlive the process.
type SQLiteStore struct {
	db *sql.DB
}

const createTaskTable = `
CREATE TABLE IF NOT EXISTS run_tasks (
	run_id       TEXT NOT NULL,
	jurisdiction TEXT NOT NULL,
	status       TEXT NOT NULL,
	created_at   DATETIME NOT NULL,
	started_at   DATETIME,
	finished_at  DATETIME,
	found        INTEGER NOT NULL DEFAULT 0,
	error        TEXT,
	PRIMARY KEY (run_id, jurisdiction)
)`

// NewSQLiteStore opens (creating if absent) a SQLite database at path and
// ensures the run_tasks table exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("runstate: opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, createTaskTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("runstate: creating run_tasks table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, task *Task) error {
	if task == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_tasks (run_id, jurisdiction, status, created_at, started_at, finished_at, found, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, jurisdiction) DO UPDATE SET
			status = excluded.status,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			found = excluded.found,
			error = excluded.error
	`,
		task.RunID, task.Jurisdiction, string(task.Status), task.CreatedAt,
		nullTime(task.StartedAt), nullTime(task.FinishedAt), boolToInt(task.Found), task.Error,
	)
	if err != nil {
		return fmt.Errorf("runstate: creating task: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, task *Task) error {
	return s.Create(ctx, task)
}

func (s *SQLiteStore) Get(ctx context.Context, runID, jurisdiction string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, jurisdiction, status, created_at, started_at, finished_at, found, error
		FROM run_tasks WHERE run_id = ? AND jurisdiction = ?
	`, runID, jurisdiction)

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("runstate: getting task: %w", err)
	}
	return task, nil
}

func (s *SQLiteStore) List(ctx context.Context, runID string) ([]*Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, jurisdiction, status, created_at, started_at, finished_at, found, error
		FROM run_tasks WHERE run_id = ? ORDER BY jurisdiction
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("runstate: listing tasks: %w", err)
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("runstate: scanning task: %w", err)
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (*Task, error) {
	var (
		task               Task
		status             string
		startedAt, finishedAt sql.NullTime
		found              int
		errMsg             sql.NullString
	)
	if err := r.Scan(&task.RunID, &task.Jurisdiction, &status, &task.CreatedAt, &startedAt, &finishedAt, &found, &errMsg); err != nil {
		return nil, err
	}
	task.Status = Status(status)
	task.Found = found != 0
	if startedAt.Valid {
		task.StartedAt = startedAt.Time
	}
	if finishedAt.Valid {
		task.FinishedAt = finishedAt.Time
	}
	task.Error = errMsg.String
	return &task, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
