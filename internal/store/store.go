package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/rowlock/internal/workitem"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (tables only)
// 1 - Added row_version trigger on work_items_with_row_version
const currentSchemaVersion = 1

// Table names, one per strategy.
const (
	TableWorkItems       = "work_items"
	TableRowVersionItems = "work_items_with_row_version"
	TableTokenItems      = "work_items_with_concurrency_token"
)

const (
	DefaultBusyTimeout  = 5 * time.Second
	DefaultMaxOpenConns = 4

	memoryPath = ":memory:"
)

// TableFor returns the collection backing a strategy.
func TableFor(s workitem.Strategy) (string, error) {
	switch s {
	case workitem.Pessimistic:
		return TableWorkItems, nil
	case workitem.RowVersion:
		return TableRowVersionItems, nil
	case workitem.ConcurrencyToken:
		return TableTokenItems, nil
	}
	return "", fmt.Errorf("no table for strategy %q", s)
}

// Config controls how the database is opened.
type Config struct {
	// Path is the database file, or ":memory:".
	Path string

	// BusyTimeout is how long a writer waits for the SQLite write lock.
	BusyTimeout time.Duration

	// MaxOpenConns caps the pool. In-memory databases always use one
	// connection because each connection would see a different database.
	MaxOpenConns int

	// Preflight makes row-version compare-and-set read the current stamp
	// and reject a stale one before issuing the UPDATE.
	Preflight bool
}

// Stats counts how compare-and-set writes were decided.
type Stats struct {
	PreflightRejects int64 // stale stamp caught before the UPDATE
	CASRejects       int64 // precondition failed inside the UPDATE
	CASCommits       int64
	ScopeCommits     int64
	ScopeRollbacks   int64
}

// Store is the record store for the work item collections.
type Store struct {
	db        *sql.DB
	guards    *guardTable
	preflight bool

	preflightRejects atomic.Int64
	casRejects       atomic.Int64
	casCommits       atomic.Int64
	scopeCommits     atomic.Int64
	scopeRollbacks   atomic.Int64
}

// Open creates or opens a SQLite database at the given path with default
// settings.
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	return OpenConfig(Config{Path: path})
}

// OpenConfig opens the database described by cfg, applying defaults for
// zero fields, then applies the schema and migrations.
func OpenConfig(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("failed to open database: empty path")
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = DefaultBusyTimeout
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = DefaultMaxOpenConns
	}
	if cfg.Path == memoryPath {
		cfg.MaxOpenConns = 1
	}

	db, err := sql.Open("sqlite3", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{
		db:        db,
		guards:    newGuardTable(),
		preflight: cfg.Preflight,
	}, nil
}

// dsn builds the connection string. Parameters in the DSN apply to every
// connection the pool opens, unlike PRAGMA statements run once.
func dsn(cfg Config) string {
	q := url.Values{}
	q.Set("_busy_timeout", strconv.FormatInt(cfg.BusyTimeout.Milliseconds(), 10))
	q.Set("_synchronous", "NORMAL")
	q.Set("_foreign_keys", "on")
	q.Set("_txlock", "immediate")
	if cfg.Path != memoryPath {
		q.Set("_journal_mode", "WAL")
	}
	return cfg.Path + "?" + q.Encode()
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Writes issued here bypass every precondition the store enforces.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Preflight reports whether row-version writes check the stamp before the
// UPDATE.
func (s *Store) Preflight() bool {
	return s.preflight
}

// Stats returns a snapshot of the write counters.
func (s *Store) Stats() Stats {
	return Stats{
		PreflightRejects: s.preflightRejects.Load(),
		CASRejects:       s.casRejects.Load(),
		CASCommits:       s.casCommits.Load(),
		ScopeCommits:     s.scopeCommits.Load(),
		ScopeRollbacks:   s.scopeRollbacks.Load(),
	}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 installs the trigger that regenerates row_version on every
// update that leaves the stamp untouched. The WHEN clause also stops the
// trigger from re-firing on its own UPDATE.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TRIGGER IF NOT EXISTS trg_work_items_with_row_version_stamp
		AFTER UPDATE ON work_items_with_row_version
		FOR EACH ROW
		WHEN NEW.row_version = OLD.row_version
		BEGIN
			UPDATE work_items_with_row_version
			SET row_version = lower(hex(randomblob(8)))
			WHERE id = NEW.id;
		END
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
