/*
Package sqlite provides SQLite-backed storage for versioned rule sets.

PURPOSE:
  Persists rule-set JSON documents so legislative revisions live next to
  each other and the engine can pick the active generation at startup.
  Submissions themselves are never stored - they are request-scoped.

KEY TABLE:
  rule_sets: one row per revision (id, name, version, config_json,
  active flag, created_at). config_json is the factory.RuleSetJSON
  document; parsing happens in the factory, not here.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't block
  the occasional revision write.

USAGE:
  store, err := sqlite.New("./data/obra.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - factory/ruleset.go: parses the stored documents
  - api/handlers.go: caches the active rule set
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// =============================================================================
// STORE
// =============================================================================

// RuleSetRecord is one stored rule-set revision.
type RuleSetRecord struct {
	ID         string
	Name       string
	Version    int
	ConfigJSON string
	Active     bool
	CreatedAt  time.Time
}

type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rule_sets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		config_json TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rule_sets_active
		ON rule_sets(active) WHERE active = 1;
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RULE SET PERSISTENCE
// =============================================================================

// SaveRuleSet inserts a revision, or bumps the version of an existing id.
// A record saved as active deactivates every other revision.
func (s *Store) SaveRuleSet(ctx context.Context, rec RuleSetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if rec.Active {
		if _, err := tx.ExecContext(ctx, `UPDATE rule_sets SET active = 0`); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rule_sets (id, name, version, config_json, active, created_at)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			version = rule_sets.version + 1,
			config_json = excluded.config_json,
			active = excluded.active`,
		rec.ID, rec.Name, rec.ConfigJSON, boolToInt(rec.Active),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetRuleSet returns one revision, or nil when the id is unknown.
func (s *Store) GetRuleSet(ctx context.Context, id string) (*RuleSetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, version, config_json, active, created_at
		FROM rule_sets WHERE id = ?`, id)
	return scanRuleSet(row)
}

// ActiveRuleSet returns the active revision, or nil when none is marked.
func (s *Store) ActiveRuleSet(ctx context.Context) (*RuleSetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, version, config_json, active, created_at
		FROM rule_sets WHERE active = 1 LIMIT 1`)
	return scanRuleSet(row)
}

// ListRuleSets returns every stored revision, newest first.
func (s *Store) ListRuleSets(ctx context.Context) ([]RuleSetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, version, config_json, active, created_at
		FROM rule_sets ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RuleSetRecord
	for rows.Next() {
		rec, err := scanRuleSetRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// SCANNING
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRuleSet(row *sql.Row) (*RuleSetRecord, error) {
	rec, err := scanRuleSetRows(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanRuleSetRows(scanner rowScanner) (RuleSetRecord, error) {
	var rec RuleSetRecord
	var active int
	var createdAt string
	if err := scanner.Scan(&rec.ID, &rec.Name, &rec.Version, &rec.ConfigJSON, &active, &createdAt); err != nil {
		return RuleSetRecord{}, err
	}
	rec.Active = active == 1
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		rec.CreatedAt = t
	}
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
