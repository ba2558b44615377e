package llmcall

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jackzampolin/txtshelf/internal/llmcall/migrations"
)

const timeLayout = time.RFC3339Nano

// Store provides access to LLM call records in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// QueryFilter specifies filters for listing LLM calls.
type QueryFilter struct {
	Source    string
	Stage     string
	PromptKey string
	Provider  string
	Model     string
	After     *time.Time
	Before    *time.Time
	Success   *bool
	Limit     int
	Offset    int
}

// OpenStore opens (creating if needed) the call log at path and applies
// pending migrations.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating call log directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening call log: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations in version order.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}
	return nil
}

// Insert writes one call.
func (s *Store) Insert(ctx context.Context, c *Call) error {
	var temp sql.NullFloat64
	if c.Temperature != nil {
		temp = sql.NullFloat64{Float64: *c.Temperature, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_calls (
			id, timestamp, latency_ms, source, stage, prompt_key, prompt_cid,
			provider, model, temperature, input_tokens, output_tokens,
			cost_usd, attempts, response, success, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Timestamp.UTC().Format(timeLayout), c.LatencyMs, c.Source, c.Stage, c.PromptKey, c.PromptCID,
		c.Provider, c.Model, temp, c.InputTokens, c.OutputTokens,
		c.CostUSD, c.Attempts, c.Response, c.Success, c.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting call %s: %w", c.ID, err)
	}
	return nil
}

const selectColumns = `id, timestamp, latency_ms, source, stage, prompt_key, prompt_cid,
	provider, model, temperature, input_tokens, output_tokens,
	cost_usd, attempts, response, success, error`

// Get retrieves a single LLM call by ID. It returns nil when no call matches.
func (s *Store) Get(ctx context.Context, id string) (*Call, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM llm_calls WHERE id = ?", id)
	c, err := scanCall(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List retrieves LLM calls matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter QueryFilter) ([]Call, error) {
	var (
		conditions []string
		args       []any
	)
	eq := func(col, v string) {
		if v != "" {
			conditions = append(conditions, col+" = ?")
			args = append(args, v)
		}
	}
	eq("source", filter.Source)
	eq("stage", filter.Stage)
	eq("prompt_key", filter.PromptKey)
	eq("provider", filter.Provider)
	eq("model", filter.Model)
	if filter.Success != nil {
		conditions = append(conditions, "success = ?")
		args = append(args, *filter.Success)
	}
	if filter.After != nil {
		conditions = append(conditions, "timestamp > ?")
		args = append(args, filter.After.UTC().Format(timeLayout))
	}
	if filter.Before != nil {
		conditions = append(conditions, "timestamp < ?")
		args = append(args, filter.Before.UTC().Format(timeLayout))
	}

	query := "SELECT " + selectColumns + " FROM llm_calls"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var calls []Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, *c)
	}
	return calls, rows.Err()
}

// CountByPromptKey returns call counts grouped by prompt key, optionally
// limited to one source.
func (s *Store) CountByPromptKey(ctx context.Context, source string) (map[string]int, error) {
	query := "SELECT prompt_key, COUNT(*) FROM llm_calls"
	var args []any
	if source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	query += " GROUP BY prompt_key"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCall(row scanner) (*Call, error) {
	var (
		c    Call
		ts   string
		temp sql.NullFloat64
	)
	err := row.Scan(&c.ID, &ts, &c.LatencyMs, &c.Source, &c.Stage, &c.PromptKey, &c.PromptCID,
		&c.Provider, &c.Model, &temp, &c.InputTokens, &c.OutputTokens,
		&c.CostUSD, &c.Attempts, &c.Response, &c.Success, &c.Error)
	if err != nil {
		return nil, err
	}
	if t, err := time.Parse(timeLayout, ts); err == nil {
		c.Timestamp = t
	}
	if temp.Valid {
		v := temp.Float64
		c.Temperature = &v
	}
	return &c, nil
}
