// Package ledger keeps an append-only SQLite record of governance runs and the
// decisions each one produced, so a decision table can be audited after it has
// been overwritten on disk.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eb-examples/ebgov/pipeline"

	_ "modernc.org/sqlite"
)

// Run is one recorded governance run.
type Run struct {
	ID                  string
	PolicyVersion       string
	HRTauMin            float64
	DecisionTableSHA256 string
	DecisionCount       int
	PermittedCount      int
	RecordedAt          time.Time
}

// Entry is one decision as stored for a run.
type Entry struct {
	RunID           string
	Scope           string
	AllowAdjustment bool
	Reasons         []string
}

var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://eb-examples/ebgov/governance"))

// RunID derives the ledger id of a run from its decision table digest, so
// recording an identical table twice is a no-op.
func RunID(tableDigest string) string {
	return uuid.NewSHA1(runNamespace, []byte(tableDigest)).String()
}

// recordedAtLayout is fixed width so that recorded_at sorts chronologically as
// text. RFC3339Nano trims trailing zeros and would order "05Z" after "05.5Z".
const recordedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		policy_version TEXT NOT NULL,
		hr_tau_min REAL NOT NULL,
		decision_table_sha256 TEXT NOT NULL,
		decision_count INTEGER NOT NULL,
		permitted_count INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS decisions (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		forecast_entity_id TEXT NOT NULL,
		allow_adjustment INTEGER NOT NULL,
		reasons_json TEXT NOT NULL,
		PRIMARY KEY (run_id, forecast_entity_id)
	)`,
}

// Ledger appends governance runs to a SQL database.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite ledger file.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	l, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// New wraps db and applies the schema.
func New(db *sql.DB) (*Ledger, error) {
	l := &Ledger{db: db}
	if err := l.migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("migrating ledger: %w", err)
	}
	return l, nil
}

func (l *Ledger) migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record appends a run and its decisions in one transaction. A run id already
// present is left untouched.
func (l *Ledger) Record(ctx context.Context, run Run, decisions []pipeline.Decision) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning ledger transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO runs (
		run_id, policy_version, hr_tau_min, decision_table_sha256, decision_count, permitted_count, recorded_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.PolicyVersion, run.HRTauMin, run.DecisionTableSHA256, run.DecisionCount, run.PermittedCount,
		run.RecordedAt.UTC().Format(recordedAtLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	for _, d := range decisions {
		reasons, err := json.Marshal(d.Reasons)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO decisions (
			run_id, forecast_entity_id, allow_adjustment, reasons_json
		) VALUES (?, ?, ?, ?)`, run.ID, d.Scope, d.AllowAdjustment, string(reasons))
		if err != nil {
			return fmt.Errorf("failed to insert decision %s: %w", d.Scope, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing ledger transaction: %w", err)
	}
	return nil
}

// Runs lists recorded runs, most recent first.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, policy_version, hr_tau_min, decision_table_sha256, decision_count, permitted_count, recorded_at
		FROM runs
		ORDER BY recorded_at DESC, run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var recorded string
		if err := rows.Scan(&r.ID, &r.PolicyVersion, &r.HRTauMin, &r.DecisionTableSHA256, &r.DecisionCount, &r.PermittedCount, &recorded); err != nil {
			return nil, err
		}
		if r.RecordedAt, err = time.Parse(time.RFC3339Nano, recorded); err != nil {
			return nil, fmt.Errorf("run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Entries returns the decisions recorded for a run, ordered by scope.
func (l *Ledger) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, forecast_entity_id, allow_adjustment, reasons_json
		FROM decisions
		WHERE run_id = ?
		ORDER BY forecast_entity_id`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var reasons string
		if err := rows.Scan(&e.RunID, &e.Scope, &e.AllowAdjustment, &reasons); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(reasons), &e.Reasons); err != nil {
			return nil, fmt.Errorf("decision %s: %w", e.Scope, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
