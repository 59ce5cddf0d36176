package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"PolicyPulse/internal/model"
)

// SQLiteRecorder persists study runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboards read while
	// the daemon writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS dataset_snapshots (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			study     TEXT,
			source    TEXT,
			rows      INTEGER,
			columns   INTEGER,
			date_from TEXT,
			date_to   TEXT,
			csv_path  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dataset_ts ON dataset_snapshots(timestamp)`,

		`CREATE TABLE IF NOT EXISTS regression_runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			study        TEXT,
			target       TEXT,
			observations INTEGER,
			r2           REAL,
			adj_r2       REAL,
			clustered    INTEGER,
			coefficients TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_regression_ts ON regression_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS simulation_runs (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			run_id           TEXT,
			study            TEXT,
			scenario         TEXT,
			days_ahead       INTEGER,
			announcement_bp  REAL,
			final_cum_return REAL,
			final_level      REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_simulation_ts ON simulation_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS shock_events (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			date           TEXT,
			rate_change_bp REAL,
			shock_type     TEXT,
			day_return     REAL,
			UNIQUE(date, shock_type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shock_date ON shock_events(date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordDataset(snap *model.DatasetSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO dataset_snapshots
		(timestamp, study, source, rows, columns, date_from, date_to, csv_path)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), snap.Study, snap.Source, snap.Rows, snap.Columns,
		snap.From.Format("2006-01-02"), snap.To.Format("2006-01-02"), snap.CSVPath,
	)
	return err
}

func (r *SQLiteRecorder) RecordRegression(rec *model.RegressionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	coefs, err := json.Marshal(rec.Coefficients)
	if err != nil {
		return fmt.Errorf("marshal coefficients: %w", err)
	}
	clustered := 0
	if rec.Clustered {
		clustered = 1
	}
	_, err = r.db.Exec(`INSERT INTO regression_runs
		(timestamp, study, target, observations, r2, adj_r2, clustered, coefficients)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Study, rec.Target, rec.Observations,
		rec.R2, rec.AdjR2, clustered, string(coefs),
	)
	return err
}

func (r *SQLiteRecorder) RecordSimulation(rec *model.SimulationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO simulation_runs
		(timestamp, run_id, study, scenario, days_ahead, announcement_bp, final_cum_return, final_level)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.RunID, rec.Study, rec.Scenario,
		rec.DaysAhead, rec.AnnouncementBP, rec.FinalCumReturn, rec.FinalLevel,
	)
	return err
}

func (r *SQLiteRecorder) RecordShockEvent(evt *model.ShockEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-runs over the same sample hit the same shocks; keep one row each.
	_, err := r.db.Exec(`INSERT OR IGNORE INTO shock_events
		(timestamp, date, rate_change_bp, shock_type, day_return)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.Date.Format("2006-01-02"),
		evt.RateChangeBP, evt.Type, evt.Return,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
