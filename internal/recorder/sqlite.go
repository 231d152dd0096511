package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
// Pass ":memory:" for a throwaway database.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases alive and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS decision_runs (
			id            TEXT PRIMARY KEY,
			timestamp     INTEGER NOT NULL,
			status        TEXT NOT NULL,
			bet_count     INTEGER,
			total_stake   TEXT,
			balance_after TEXT,
			channel       TEXT,
			note          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decision_ts ON decision_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS decision_bets (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES decision_runs(id),
			horse  TEXT NOT NULL,
			odds   REAL,
			score  REAL,
			edge   REAL,
			tier   TEXT,
			stake  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bets_run ON decision_bets(run_id)`,

		`CREATE TABLE IF NOT EXISTS retrain_runs (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			ingested  INTEGER,
			samples   INTEGER,
			trained   INTEGER,
			log_loss  REAL,
			note      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_retrain_ts ON retrain_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS bankroll_history (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			event_type    TEXT,
			horse         TEXT,
			stake         TEXT,
			profit        TEXT,
			balance_after TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bankroll_ts ON bankroll_history(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordDecision stores a run and its bets. An empty ID is filled with a new UUID.
func (r *SQLiteRecorder) RecordDecision(run *DecisionRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO decision_runs
		(id, timestamp, status, bet_count, total_stake, balance_after, channel, note)
		VALUES (?,?,?,?,?,?,?,?)`,
		run.ID, run.At.Unix(), run.Status, len(run.Bets), run.TotalStake().String(),
		run.BalanceAfter.String(), run.Channel, run.Note,
	); err != nil {
		return err
	}
	for _, b := range run.Bets {
		if _, err := tx.Exec(`INSERT INTO decision_bets
			(run_id, horse, odds, score, edge, tier, stake)
			VALUES (?,?,?,?,?,?,?)`,
			run.ID, b.Horse, b.Odds, b.Score, b.Edge, b.Tier, b.Stake.String(),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordRetrain(run *RetrainRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	trained := 0
	if run.Trained {
		trained = 1
	}
	_, err := r.db.Exec(`INSERT INTO retrain_runs
		(id, timestamp, ingested, samples, trained, log_loss, note)
		VALUES (?,?,?,?,?,?,?)`,
		run.ID, run.At.Unix(), run.Ingested, run.Samples, trained, run.LogLoss, run.Note,
	)
	return err
}

func (r *SQLiteRecorder) RecordBankrollEvent(evt *BankrollEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO bankroll_history
		(timestamp, event_type, horse, stake, profit, balance_after)
		VALUES (?,?,?,?,?,?)`,
		evt.At.Unix(), evt.EventType, evt.Horse, evt.Stake.String(), evt.Profit.String(), evt.BalanceAfter.String(),
	)
	return err
}

// BankrollHistory returns every recorded balance in time order.
func (r *SQLiteRecorder) BankrollHistory() ([]BankrollPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, balance_after FROM bankroll_history ORDER BY timestamp, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BankrollPoint
	for rows.Next() {
		var ts int64
		var bal string
		if err := rows.Scan(&ts, &bal); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(bal)
		if err != nil {
			return nil, fmt.Errorf("balance %q: %w", bal, err)
		}
		out = append(out, BankrollPoint{At: time.Unix(ts, 0), Balance: d})
	}
	return out, rows.Err()
}

// RecentDecisions returns the latest runs, newest first, without their bets.
func (r *SQLiteRecorder) RecentDecisions(limit int) ([]DecisionRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(`SELECT id, timestamp, status, balance_after, channel, note
		FROM decision_runs ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DecisionRun
	for rows.Next() {
		var (
			run     DecisionRun
			ts      int64
			balance string
			channel sql.NullString
			note    sql.NullString
		)
		if err := rows.Scan(&run.ID, &ts, &run.Status, &balance, &channel, &note); err != nil {
			return nil, err
		}
		run.At = time.Unix(ts, 0)
		run.BalanceAfter, _ = decimal.NewFromString(balance)
		run.Channel = channel.String
		run.Note = note.String
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

var (
	_ Recorder = (*SQLiteRecorder)(nil)
	_ Recorder = (*NoopRecorder)(nil)
)
