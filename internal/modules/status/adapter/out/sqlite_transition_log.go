package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"statusrelay/internal/modules/status/domain"
	"statusrelay/internal/modules/status/port/out"

	_ "modernc.org/sqlite"
)

// SQLiteTransitionLog projects real state transitions into a queryable read
// model. Writes are best-effort; the transition path treats failures as
// log-and-continue.
type SQLiteTransitionLog struct {
	db *sql.DB
}

func NewSQLiteTransitionLog(dbPath string) (out.TransitionLog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	log := &SQLiteTransitionLog{db: db}
	if err := log.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return log, nil
}

func (l *SQLiteTransitionLog) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS transitions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  project TEXT NOT NULL,
  from_state TEXT NOT NULL,
  to_state TEXT NOT NULL,
  event TEXT NOT NULL,
  at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transitions_project_at ON transitions(project, at DESC);
`
	if _, err := l.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create transitions table: %w", err)
	}
	return nil
}

func (l *SQLiteTransitionLog) Append(ctx context.Context, record domain.TransitionRecord) error {
	const stmt = `INSERT INTO transitions (project, from_state, to_state, event, at) VALUES (?, ?, ?, ?, ?)`
	_, err := l.db.ExecContext(ctx, stmt,
		record.Project,
		string(record.From),
		string(record.To),
		string(record.Event),
		record.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append transition: %w", err)
	}
	return nil
}

func (l *SQLiteTransitionLog) Recent(ctx context.Context, project string, limit int) ([]domain.TransitionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT project, from_state, to_state, event, at FROM transitions`
	args := []any{}
	if project != "" {
		query += ` WHERE project = ?`
		args = append(args, project)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	records := []domain.TransitionRecord{}
	for rows.Next() {
		var record domain.TransitionRecord
		var from, to, event, at string
		if err := rows.Scan(&record.Project, &from, &to, &event, &at); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		record.From = domain.State(from)
		record.To = domain.State(to)
		record.Event = domain.EventKind(event)
		if parsed, err := time.Parse(time.RFC3339Nano, at); err == nil {
			record.At = parsed
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return records, nil
}
