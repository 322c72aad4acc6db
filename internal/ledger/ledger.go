// Package ledger keeps the local append-only record of processed
// leads. It is the durable fallback when the spreadsheet sink is down.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type Entry struct {
	ID         int64     `db:"id"`
	ReceivedAt time.Time `db:"-"`
	RequestID  string    `db:"request_id"`
	Company    string    `db:"company"`
	Niche      string    `db:"niche"`
	RFC        string    `db:"rfc"`
	Score      float64   `db:"score"`
	Service    string    `db:"service"`
	ReportRef  string    `db:"report_ref"`
	Degraded   bool      `db:"-"`
	Synced     bool      `db:"-"`
}

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	received_at TEXT NOT NULL,
	request_id  TEXT NOT NULL UNIQUE,
	company     TEXT NOT NULL DEFAULT '',
	niche       TEXT NOT NULL DEFAULT '',
	rfc         TEXT NOT NULL DEFAULT '',
	score       REAL NOT NULL DEFAULT 0,
	service     TEXT NOT NULL DEFAULT '',
	report_ref  TEXT NOT NULL DEFAULT '',
	degraded    INTEGER NOT NULL DEFAULT 0,
	synced      INTEGER NOT NULL DEFAULT 0
);
`

// Ledger is a SQLite-backed lead log.
type Ledger struct {
	db *sqlx.DB
}

func Open(path string) (*Ledger, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Append records one processed lead.
func (l *Ledger) Append(ctx context.Context, e Entry) error {
	_, err := l.db.ExecContext(ctx, `INSERT INTO leads
		(received_at, request_id, company, niche, rfc, score, service, report_ref, degraded, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		timeToString(e.ReceivedAt),
		e.RequestID,
		e.Company,
		e.Niche,
		e.RFC,
		e.Score,
		e.Service,
		e.ReportRef,
		boolToInt(e.Degraded),
		boolToInt(e.Synced),
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// MarkSynced flags a lead as delivered to the spreadsheet.
func (l *Ledger) MarkSynced(ctx context.Context, requestID string) error {
	_, err := l.db.ExecContext(ctx, `UPDATE leads SET synced = 1 WHERE request_id = ?`, requestID)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// Recent returns the newest n leads, newest first.
func (l *Ledger) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := l.db.QueryContext(ctx, `SELECT id, received_at, request_id, company, niche, rfc, score, service, report_ref, degraded, synced
		FROM leads ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var receivedAt string
		var degraded, synced int
		if err := rows.Scan(&e.ID, &receivedAt, &e.RequestID, &e.Company, &e.Niche, &e.RFC, &e.Score, &e.Service, &e.ReportRef, &degraded, &synced); err != nil {
			return nil, err
		}
		e.ReceivedAt, _ = time.Parse(time.RFC3339Nano, receivedAt)
		e.Degraded = degraded != 0
		e.Synced = synced != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// Unsynced returns leads that never reached the spreadsheet.
func (l *Ledger) Unsynced(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id, received_at, request_id, company, niche, rfc, score, service, report_ref, degraded, synced
		FROM leads WHERE synced = 0 ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query unsynced leads: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var receivedAt string
		var degraded, synced int
		if err := rows.Scan(&e.ID, &receivedAt, &e.RequestID, &e.Company, &e.Niche, &e.RFC, &e.Score, &e.Service, &e.ReportRef, &degraded, &synced); err != nil {
			return nil, err
		}
		e.ReceivedAt, _ = time.Parse(time.RFC3339Nano, receivedAt)
		e.Degraded = degraded != 0
		e.Synced = synced != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func timeToString(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
