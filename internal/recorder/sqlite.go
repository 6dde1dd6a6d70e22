package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the request history to a SQLite database.
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

	// WAL lets dashboards read the history while requests are being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("component", "recorder").Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS requests (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			request_id  TEXT,
			route       TEXT NOT NULL,
			symbol      TEXT,
			range_start TEXT,
			range_end   TEXT,
			bars        INTEGER,
			status      INTEGER,
			duration_ms REAL,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_ts ON requests(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_symbol ON requests(symbol)`,

		`CREATE TABLE IF NOT EXISTS warmups (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			bars        INTEGER,
			duration_ms REAL,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_warmups_ts ON warmups(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRequest(evt *RequestEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO requests
		(timestamp, request_id, route, symbol, range_start, range_end, bars, status, duration_ms, error)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.RequestID, evt.Route, evt.Symbol,
		dateOrEmpty(evt.Start), dateOrEmpty(evt.End),
		evt.Bars, evt.Status, durationMs(evt.Duration), evt.Err,
	)
	return err
}

func (r *SQLiteRecorder) RecordWarmup(evt *WarmupEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO warmups
		(timestamp, symbol, bars, duration_ms, error)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, evt.Bars, durationMs(evt.Duration), evt.Err,
	)
	return err
}

// CountRequests returns the number of recorded requests for symbol, or all requests when symbol is empty.
func (r *SQLiteRecorder) CountRequests(symbol string) (int, error) {
	var n int
	var err error
	if symbol == "" {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM requests`).Scan(&n)
	} else {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM requests WHERE symbol = ?`, symbol).Scan(&n)
	}
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Str("component", "recorder").Msg("closing sqlite recorder")
	return r.db.Close()
}

func dateOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
