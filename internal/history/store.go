package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/watzon/stepbench/internal/database"
)

// Fixed-width UTC timestamps sort correctly as text.
const timeLayout = "2006-01-02T15:04:05.000Z"

// Store persists runs.
type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Record inserts run and its executions in one transaction. An empty ID is
// replaced with a new UUID.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	err := s.db.Transaction(ctx, func(tx *database.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (
				id, runnable, repetitions, status,
				output_path, archive_uri, error, started_at, finished_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			run.Runnable,
			run.Repetitions,
			string(run.Status),
			run.OutputPath,
			run.ArchiveURI,
			run.Error,
			formatTime(run.StartedAt),
			formatTime(run.FinishedAt),
		)
		if err != nil {
			return err
		}

		for _, e := range run.Executions {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO run_repetitions (run_id, idx, execution_arn, log_stream, duration_ms)
				VALUES (?, ?, ?, ?, ?)
			`, run.ID, e.Index, e.ExecutionARN, e.LogStream, e.Duration.Milliseconds()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		err = database.ClassifyError(err)
		if database.IsUniqueError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, run.ID)
		}
		return fmt.Errorf("recording run: %w", err)
	}

	return nil
}

// Get returns a run with its executions.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, execution_arn, log_stream, duration_ms
		FROM run_repetitions
		WHERE run_id = ?
		ORDER BY idx
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying executions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e Execution
		var ms int64
		if err := rows.Scan(&e.Index, &e.ExecutionARN, &e.LogStream, &ms); err != nil {
			return nil, fmt.Errorf("scanning execution: %w", err)
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		run.Executions = append(run.Executions, e)
	}

	return run, rows.Err()
}

// List returns runs newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]*Run, error) {
	query := selectRuns + ` WHERE 1=1`
	args := []any{}

	if f.Runnable != "" {
		query += " AND runnable = ?"
		args = append(args, f.Runnable)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}

	query += " ORDER BY started_at DESC"

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

// Prune deletes runs that started more than age ago and returns how many
// were removed.
func (s *Store) Prune(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-age))

	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return n, nil
}

const selectRuns = `
	SELECT id, runnable, repetitions, status,
	       output_path, archive_uri, error, started_at, finished_at
	FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var startedAt, finishedAt string

	if err := row.Scan(
		&run.ID,
		&run.Runnable,
		&run.Repetitions,
		&run.Status,
		&run.OutputPath,
		&run.ArchiveURI,
		&run.Error,
		&startedAt,
		&finishedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
		return nil, fmt.Errorf("parsing finished_at: %w", err)
	}

	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
