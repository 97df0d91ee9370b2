package alertstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteKV persists timestamps in a SQLite table.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV opens (or creates) the database and ensures the table exists.
func NewSQLiteKV(dbPath string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS active_alerts (
		symbol     TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Printf("[INFO] sqlite alert store opened: %s", dbPath)
	return &SQLiteKV{db: db}, nil
}

func (s *SQLiteKV) Get(ctx context.Context, symbol string) (time.Time, bool, error) {
	var ms int64
	err := s.db.QueryRowContext(ctx, `SELECT created_at FROM active_alerts WHERE symbol = ?`, symbol).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms), true, nil
}

func (s *SQLiteKV) Set(ctx context.Context, symbol string, createdAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO active_alerts (symbol, created_at) VALUES (?, ?)
		ON CONFLICT(symbol) DO UPDATE SET created_at = excluded.created_at`,
		symbol, createdAt.UnixMilli())
	return err
}

func (s *SQLiteKV) Delete(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM active_alerts WHERE symbol = ?`, symbol)
	return err
}

func (s *SQLiteKV) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol FROM active_alerts ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteKV) Close() error {
	log.Println("[INFO] closing sqlite alert store")
	return s.db.Close()
}
