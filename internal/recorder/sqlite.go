package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists alert history to a SQLite database.
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
		`CREATE TABLE IF NOT EXISTS alert_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT,
			timestamp  INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			event_type TEXT NOT NULL,
			kind       TEXT,
			message    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_events_ts ON alert_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_events_symbol ON alert_events(symbol)`,

		`CREATE TABLE IF NOT EXISTS ticks (
			run_id      TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			duration_ms INTEGER,
			symbols     INTEGER,
			classified  INTEGER,
			entries     INTEGER,
			exits       INTEGER,
			skipped     INTEGER,
			expired     INTEGER,
			active      INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ticks_ts ON ticks(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAlertEvent(evt *AlertEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO alert_events
		(run_id, timestamp, symbol, event_type, kind, message)
		VALUES (?,?,?,?,?,?)`,
		evt.RunID.String(), evt.At.UnixMilli(), evt.Symbol, evt.EventType,
		string(evt.Kind), evt.Message,
	)
	return err
}

func (r *SQLiteRecorder) RecordTick(sum *TickSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO ticks
		(run_id, timestamp, duration_ms, symbols, classified, entries, exits,
		 skipped, expired, active, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		sum.RunID.String(), sum.StartedAt.UnixMilli(), sum.Duration.Milliseconds(),
		sum.Symbols, sum.Classified, sum.Entries, sum.Exits,
		sum.Skipped, sum.Expired, sum.Active, sum.Err,
	)
	return err
}

// CountAlertEvents returns how many events of the given type were stored for symbol.
func (r *SQLiteRecorder) CountAlertEvents(symbol, eventType string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM alert_events WHERE symbol = ? AND event_type = ?`,
		symbol, eventType).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
