package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/quocvuong92/zor/internal/logging"
)

// SQLiteFileName is the database inside the history directory
const SQLiteFileName = "history.db"

// SQLiteStore keeps exchanges in an append-only table
type SQLiteStore struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// OpenSQLite opens or creates the database in dir
func OpenSQLite(dir string, logger *logging.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	dbPath := filepath.Join(dir, SQLiteFileName)
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &SQLiteStore{conn: conn, logger: logger, dbPath: dbPath}
	if err := store.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	logger.Debug("Opened history database", logging.Fields{"path": dbPath})
	return store, nil
}

func (s *SQLiteStore) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS exchanges (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			timestamp TEXT NOT NULL,
			command TEXT NOT NULL,
			prompt TEXT NOT NULL,
			context_files INTEGER NOT NULL DEFAULT 0,
			context_bytes INTEGER NOT NULL DEFAULT 0,
			context_omitted INTEGER NOT NULL DEFAULT 0,
			response TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			attempts INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			error TEXT
		);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Path returns the database file location
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Append inserts e
func (s *SQLiteStore) Append(ctx context.Context, e *Exchange) error {
	prepare(e)

	query := `
		INSERT INTO exchanges (id, timestamp, command, prompt, context_files, context_bytes,
			context_omitted, response, model, attempts, failed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.conn.ExecContext(ctx, query,
		e.ID,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.Command,
		e.Prompt,
		e.Context.Files,
		e.Context.Bytes,
		e.Context.Omitted,
		e.Response,
		e.Model,
		e.Attempts,
		e.Failed,
		nullString(e.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// Recent returns the last n exchanges, newest first
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Exchange, error) {
	if n <= 0 {
		return []Exchange{}, nil
	}

	query := `
		SELECT id, timestamp, command, prompt, context_files, context_bytes, context_omitted,
			response, model, attempts, failed, error
		FROM exchanges
		ORDER BY seq DESC
		LIMIT ?
	`
	rows, err := s.conn.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Exchange{}
	for rows.Next() {
		var (
			e       Exchange
			ts      string
			errText sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &e.Command, &e.Prompt, &e.Context.Files, &e.Context.Bytes,
			&e.Context.Omitted, &e.Response, &e.Model, &e.Attempts, &e.Failed, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.Timestamp = t
		} else {
			s.logger.Warn("Invalid history timestamp", logging.Fields{"id": e.ID, "value": ts})
		}
		e.Error = errText.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return out, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
