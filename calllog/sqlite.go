package calllog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/lamina/core"
	_ "modernc.org/sqlite"
)

const createCallsTable = `
CREATE TABLE IF NOT EXISTS llm_calls (
	id          TEXT PRIMARY KEY,
	timestamp   TEXT NOT NULL,
	model       TEXT NOT NULL,
	prompt      TEXT NOT NULL,
	system      TEXT,
	response    TEXT NOT NULL,
	parsed      TEXT,
	schema_name TEXT NOT NULL,
	agent_name  TEXT,
	duration_ms INTEGER NOT NULL,
	tokens_used INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_llm_calls_timestamp ON llm_calls(timestamp);
`

// SQLiteStore persists records in a SQLite database using the pure Go
// modernc.org/sqlite driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens path (":memory:" is accepted) and ensures the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("call log path is required")
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create call log dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps ":memory:" databases alive and serializes writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createCallsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create llm_calls table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append inserts rec.
func (s *SQLiteStore) Append(ctx context.Context, rec core.CallRecord) error {
	if rec.ID == "" {
		rec.ID = core.NewID()
	}

	var parsed sql.NullString
	if len(rec.Parsed) > 0 {
		parsed = sql.NullString{String: string(rec.Parsed), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_calls (id, timestamp, model, prompt, system, response, parsed, schema_name, agent_name, duration_ms, tokens_used)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp.UTC().Format(time.RFC3339Nano), rec.Model, rec.Prompt, rec.System,
		rec.Response, parsed, rec.Schema, rec.AgentName, rec.DurationMS, rec.TokensUsed,
	)
	if err != nil {
		return fmt.Errorf("insert call record: %w", err)
	}

	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]core.CallRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, model, prompt, system, response, parsed, schema_name, agent_name, duration_ms, tokens_used
		FROM llm_calls ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query call records: %w", err)
	}
	defer rows.Close()

	var out []core.CallRecord

	for rows.Next() {
		var (
			rec               core.CallRecord
			ts                string
			system, agentName sql.NullString
			parsed            sql.NullString
		)

		if err := rows.Scan(&rec.ID, &ts, &rec.Model, &rec.Prompt, &system, &rec.Response,
			&parsed, &rec.Schema, &agentName, &rec.DurationMS, &rec.TokensUsed); err != nil {
			return nil, fmt.Errorf("scan call record: %w", err)
		}

		rec.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}

		rec.System = system.String
		rec.AgentName = agentName.String
		if parsed.Valid {
			rec.Parsed = []byte(parsed.String)
		}

		out = append(out, rec)
	}

	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
