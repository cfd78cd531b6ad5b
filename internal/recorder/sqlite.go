package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"FXInsight/internal/model"
)

// SQLiteRecorder persists snapshots and source attempts to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so external readers do not block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{
		db:  db,
		log: log.With().Str("component", "recorder").Logger(),
		now: time.Now,
	}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			trigger_type   TEXT,
			pair           TEXT,
			source_label   TEXT,
			is_synthetic   INTEGER,
			latest_date    TEXT,
			latest_price   REAL,
			ma20           REAL,
			ma60           REAL,
			position_52w   REAL,
			model_version  TEXT,
			fair_value     REAL,
			gap            REAL,
			policy         TEXT,
			horizon        INTEGER,
			forecast_final REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(timestamp)`,

		`CREATE TABLE IF NOT EXISTS source_attempts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			pair       TEXT,
			source     TEXT,
			points     INTEGER,
			ok         INTEGER,
			error      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_ts ON source_attempts(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSnapshot(snap *Snapshot) error {
	if snap == nil || snap.View == nil || snap.View.Market == nil {
		return errors.New("record snapshot: empty view")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	v := snap.View

	_, err := r.db.Exec(`INSERT INTO snapshots
		(timestamp, trigger_type, pair, source_label, is_synthetic, latest_date, latest_price,
		 ma20, ma60, position_52w, model_version, fair_value, gap,
		 policy, horizon, forecast_final)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.now().Unix(), snap.Trigger, v.Market.Series.Pair.String(), v.Market.SourceLabel,
		v.Market.IsSynthetic, v.Market.LatestDate.Format("2006-01-02"), v.Market.LatestPrice,
		v.Summary.MA20, v.Summary.MA60, v.Summary.Position52w,
		v.FairValue.Version, v.FairValue.Rounded(), v.Gap,
		v.Forecast.Policy, len(v.Forecast.Points)-1, v.Forecast.Final(),
	)
	return err
}

func (r *SQLiteRecorder) RecordAttempts(res *model.SourceResult) error {
	if res == nil || len(res.Attempts) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	ts := r.now().Unix()
	pair := res.Series.Pair.String()
	for _, a := range res.Attempts {
		if _, err := tx.Exec(`INSERT INTO source_attempts
			(timestamp, pair, source, points, ok, error)
			VALUES (?,?,?,?,?,?)`,
			ts, pair, a.Source, a.Points, a.OK(), a.Message(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert attempt: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
