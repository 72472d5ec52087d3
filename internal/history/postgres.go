package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/specialistvlad/polyglot/internal/model"
)

const schemaTimeout = 10 * time.Second

// PostgresStore keeps history in a Postgres table created on first use.
// Schema creation is retried on the next call until it succeeds.
type PostgresStore struct {
	db *sql.DB

	schemaMu    sync.Mutex
	schemaReady bool
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	return NewPostgresStore(db), nil
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("history store is nil")
	}
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), schemaTimeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS execution_history (
    id TEXT PRIMARY KEY,
    language TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    success BOOLEAN NOT NULL,
    exit_code INTEGER NOT NULL,
    kind TEXT NOT NULL DEFAULT '',
    duration_ms BIGINT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_execution_history_created_at ON execution_history(created_at DESC);
`); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	s.schemaReady = true
	return nil
}

// Record inserts e.
func (s *PostgresStore) Record(ctx context.Context, e Entry) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	e = normalize(e)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO execution_history (id, language, start_line, success, exit_code, kind, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, e.ID, e.Language, e.StartLine, e.Success, e.ExitCode, string(e.Kind), e.Duration.Milliseconds(), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("record history entry: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. A limit <= 0 uses DefaultCapacity.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultCapacity
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, language, start_line, success, exit_code, kind, duration_ms, created_at
FROM execution_history ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e    Entry
			kind string
			ms   int64
		)
		if err := rows.Scan(&e.ID, &e.Language, &e.StartLine, &e.Success, &e.ExitCode, &kind, &ms, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.Kind = model.FailureKind(kind)
		e.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}
