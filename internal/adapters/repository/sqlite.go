package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/pkg/metrics"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Times are stored as unix nanoseconds so ordering stays exact.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	dedupe_key TEXT NOT NULL DEFAULT '',
	tournament TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'queued',
	error      TEXT NOT NULL DEFAULT '',
	outcome    TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

// Migrate creates the runs table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save upserts a run. The creation stamp of an existing row is kept.
func (s *SQLiteStore) Save(ctx context.Context, run model.Run) error { //nolint:gocritic // hugeParam: runs are values
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()
	if err := validate(&run); err != nil {
		return err
	}

	var outcome sql.NullString
	if run.Outcome != nil {
		b, err := json.Marshal(run.Outcome)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal outcome")
		}
		outcome = sql.NullString{String: string(b), Valid: true}
	}
	now := time.Now().UTC()
	created, updated := run.Created, run.Updated
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = created
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, dedupe_key, tournament, status, error, outcome, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			dedupe_key = excluded.dedupe_key,
			tournament = excluded.tournament,
			status = excluded.status,
			error = excluded.error,
			outcome = excluded.outcome,
			updated_at = excluded.updated_at`,
		run.ID, run.Key, run.Tournament, string(run.Status), run.Error, outcome,
		created.UnixNano(), updated.UnixNano(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save run %s", run.ID)
	}
	if n, err := s.Count(ctx); err == nil {
		metrics.UpdateRepositoryRunsTotal(n)
	}
	return nil
}

// Get returns a run by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, dedupe_key, tournament, status, error, outcome, created_at, updated_at FROM runs WHERE id = ?`,
		id,
	)
	return scanRun(row, true)
}

// List returns run summaries, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]model.Run, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dedupe_key, tournament, status, error, outcome, created_at, updated_at
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows, false)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// Count returns the number of stored runs.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count runs")
	}
	return n, nil
}

type scannable interface {
	Scan(dest ...any) error
}

// scanRun reads one row; without full the outcome is reduced to a summary.
func scanRun(row scannable, full bool) (model.Run, error) {
	var (
		r                model.Run
		status           string
		outcome          sql.NullString
		created, updated int64
	)
	err := row.Scan(&r.ID, &r.Key, &r.Tournament, &status, &r.Error, &outcome, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, eris.Wrap(ErrNotFound, "sqlite")
	}
	if err != nil {
		return model.Run{}, eris.Wrap(err, "sqlite: scan run")
	}
	r.Status = model.RunStatus(status)
	r.Created = time.Unix(0, created).UTC()
	r.Updated = time.Unix(0, updated).UTC()
	if outcome.Valid {
		r.Outcome = &model.Outcome{}
		if err := json.Unmarshal([]byte(outcome.String), r.Outcome); err != nil {
			return model.Run{}, eris.Wrap(err, "sqlite: unmarshal outcome")
		}
	}
	if !full {
		r = r.Summary()
	}
	return r, nil
}
