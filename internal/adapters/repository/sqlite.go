package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/stampcard/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS log_rows (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	body       TEXT    NOT NULL,
	created_at INTEGER NOT NULL
)`

// SQLiteStore keeps rows in a SQLite file.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoPath
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, row json.RawMessage) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, ErrClosed
	}
	if err := validRow(row); err != nil {
		return 0, err
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO log_rows (body, created_at) VALUES (?, ?)`,
		string(row), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("append row: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append row: %w", err)
	}
	metrics.UpdateLogRowsStored(s.Count(ctx))
	return seq, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, ErrClosed
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT body FROM log_rows ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	defer rows.Close()

	out := make([]json.RawMessage, 0)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Count returns -1 when the table cannot be read.
func (s *SQLiteStore) Count(ctx context.Context) int {
	if s == nil || s.sqlDB == nil {
		return -1
	}
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM log_rows`).Scan(&n); err != nil {
		return -1
	}
	return n
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
