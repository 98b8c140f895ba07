package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/openmined/notionsync/internal/db"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS sync_runs (
    id TEXT PRIMARY KEY,
    direction TEXT NOT NULL,
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL,
    downloaded INTEGER NOT NULL DEFAULT 0,
    uploaded INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    conflicts INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    failed_collections INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sync_outcomes (
    run_id TEXT NOT NULL REFERENCES sync_runs(id) ON DELETE CASCADE,
    collection_id TEXT NOT NULL,
    record_id TEXT NOT NULL,
    path TEXT NOT NULL DEFAULT '',
    result TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_outcomes_run ON sync_outcomes(run_id);
CREATE INDEX IF NOT EXISTS idx_runs_started ON sync_runs(started_at);
`

// keep this many runs; older ones are pruned on insert
const journalRetention = 200

// RunRecord is a journaled pass.
type RunRecord struct {
	ID                string `db:"id" json:"id"`
	Direction         string `db:"direction" json:"direction"`
	StartedAt         int64  `db:"started_at" json:"startedAt"`
	FinishedAt        int64  `db:"finished_at" json:"finishedAt"`
	Downloaded        int    `db:"downloaded" json:"downloaded"`
	Uploaded          int    `db:"uploaded" json:"uploaded"`
	Skipped           int    `db:"skipped" json:"skipped"`
	Conflicts         int    `db:"conflicts" json:"conflicts"`
	Failed            int    `db:"failed" json:"failed"`
	FailedCollections int    `db:"failed_collections" json:"failedCollections"`
}

func (r *RunRecord) Started() time.Time  { return time.UnixMilli(r.StartedAt) }
func (r *RunRecord) Finished() time.Time { return time.UnixMilli(r.FinishedAt) }

type OutcomeRecord struct {
	RunID        string `db:"run_id" json:"runId"`
	CollectionID string `db:"collection_id" json:"collectionId"`
	RecordID     string `db:"record_id" json:"recordId"`
	Path         string `db:"path" json:"path"`
	Result       string `db:"result" json:"result"`
	Error        string `db:"error" json:"error,omitempty"`
}

// Journal records finished passes in sqlite.
type Journal struct {
	db *sqlx.DB
}

func NewJournal(database *sqlx.DB) (*Journal, error) {
	if err := db.Migrate(database, journalSchema); err != nil {
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return &Journal{db: database}, nil
}

// OpenJournal opens the journal database at path.
func OpenJournal(path string) (*Journal, error) {
	database, err := db.NewSqliteDB(db.WithPath(path))
	if err != nil {
		return nil, err
	}
	j, err := NewJournal(database)
	if err != nil {
		database.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Record(ctx context.Context, run *Run) error {
	s := run.Summary()

	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO sync_runs (id, direction, started_at, finished_at, downloaded, uploaded, skipped, conflicts, failed, failed_collections)
		VALUES (:id, :direction, :started_at, :finished_at, :downloaded, :uploaded, :skipped, :conflicts, :failed, :failed_collections)`,
		&RunRecord{
			ID:                run.ID,
			Direction:         run.Force.String(),
			StartedAt:         run.StartedAt.UnixMilli(),
			FinishedAt:        run.FinishedAt.UnixMilli(),
			Downloaded:        s.Downloaded,
			Uploaded:          s.Uploaded,
			Skipped:           s.Skipped,
			Conflicts:         s.Conflicts,
			Failed:            s.Failed,
			FailedCollections: s.FailedCollections,
		})
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO sync_outcomes (run_id, collection_id, record_id, path, result, error)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare outcome: %w", err)
	}
	defer stmt.Close()

	for _, c := range run.Collections {
		if c.Err != nil {
			if _, err := stmt.ExecContext(ctx, run.ID, c.CollectionID, "", c.Path, string(ResultFailed), c.Err.Error()); err != nil {
				return fmt.Errorf("insert outcome: %w", err)
			}
		}
		for _, o := range c.Outcomes {
			msg := ""
			if o.Err != nil {
				msg = o.Err.Error()
			}
			if _, err := stmt.ExecContext(ctx, run.ID, c.CollectionID, o.RecordID, o.Path, string(o.Result), msg); err != nil {
				return fmt.Errorf("insert outcome: %w", err)
			}
		}
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM sync_runs WHERE id NOT IN (
			SELECT id FROM sync_runs ORDER BY started_at DESC LIMIT ?
		)`, journalRetention)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}

	return tx.Commit()
}

// LastRun returns the newest journaled run, or nil when there is none.
func (j *Journal) LastRun(ctx context.Context) (*RunRecord, error) {
	var r RunRecord
	err := j.db.GetContext(ctx, &r, `SELECT * FROM sync_runs ORDER BY started_at DESC, rowid DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last run: %w", err)
	}
	return &r, nil
}

func (j *Journal) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	runs := []RunRecord{}
	err := j.db.SelectContext(ctx, &runs, `SELECT * FROM sync_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (j *Journal) Outcomes(ctx context.Context, runID string) ([]OutcomeRecord, error) {
	out := []OutcomeRecord{}
	err := j.db.SelectContext(ctx, &out, `SELECT * FROM sync_outcomes WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	return out, nil
}
