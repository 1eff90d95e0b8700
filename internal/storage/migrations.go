package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// CurrentSchemaVersion tracks the database schema version
	CurrentSchemaVersion = "1.0.0"
)

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- One row per synthesis attempt
CREATE TABLE IF NOT EXISTS corpus (
    id TEXT PRIMARY KEY,
    timestamp TEXT NOT NULL,
    spec_id TEXT,
    spec_hash TEXT,
    func_name TEXT,
    func_signature TEXT,
    sig_key TEXT,
    passed INTEGER NOT NULL DEFAULT 0,
    total INTEGER NOT NULL DEFAULT 0,
    score REAL NOT NULL DEFAULT 0,
    failing_tests TEXT,
    snippet TEXT,
    complexity INTEGER,
    iteration INTEGER,
    duration_ms INTEGER,
    synthesis_method TEXT,
    calls_functions TEXT,
    post_bow TEXT
);

CREATE INDEX IF NOT EXISTS idx_corpus_func ON corpus(func_name);
CREATE INDEX IF NOT EXISTS idx_corpus_sig_key ON corpus(sig_key);
CREATE INDEX IF NOT EXISTS idx_corpus_timestamp ON corpus(timestamp);
CREATE INDEX IF NOT EXISTS idx_corpus_best ON corpus(func_name, score, passed, total);
`

const migrationV1Down = `
DROP INDEX IF EXISTS idx_corpus_best;
DROP INDEX IF EXISTS idx_corpus_timestamp;
DROP INDEX IF EXISTS idx_corpus_sig_key;
DROP INDEX IF EXISTS idx_corpus_func;
DROP TABLE IF EXISTS corpus;
DROP TABLE IF EXISTS schema_version;
`

// currentVersion reads the most recently applied schema version, or 0.0.0
// when nothing has been applied yet
func currentVersion(ctx context.Context, db *sql.DB) (*semver.Version, error) {
	var tableName string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)
	if err == sql.ErrNoRows {
		return semver.MustParse("0.0.0"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check schema_version table: %w", err)
	}

	var versionStr string
	err = db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC, version DESC LIMIT 1").Scan(&versionStr)
	if err == sql.ErrNoRows || (err == nil && versionStr == "") {
		return semver.MustParse("0.0.0"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_version: %w", err)
	}

	v, err := semver.NewVersion(versionStr)
	if err != nil {
		return nil, fmt.Errorf("invalid current schema version %s: %w", versionStr, err)
	}
	return v, nil
}

// ApplyMigrations runs all pending migrations
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	current, err := currentVersion(ctx, db)
	if err != nil {
		return err
	}

	// Indexes below name columns an older corpus table may lack
	if tableExists(ctx, db, "corpus") {
		if err := reconcileCorpusColumns(ctx, db); err != nil {
			return err
		}
	}

	for _, migration := range AllMigrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}

		if !current.LessThan(migrationVersion) {
			continue // Already applied
		}

		if _, err := db.ExecContext(ctx, migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}

		if _, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}

		current = migrationVersion
	}

	return reconcileCorpusColumns(ctx, db)
}

// corpusColumns lists the columns migrations may need to add to a corpus
// table created by an older writer. All of them are nullable or defaulted.
var corpusColumns = []struct {
	name string
	def  string
}{
	{"timestamp", "TEXT NOT NULL DEFAULT ''"},
	{"spec_id", "TEXT"},
	{"spec_hash", "TEXT"},
	{"func_name", "TEXT"},
	{"func_signature", "TEXT"},
	{"sig_key", "TEXT"},
	{"passed", "INTEGER NOT NULL DEFAULT 0"},
	{"total", "INTEGER NOT NULL DEFAULT 0"},
	{"score", "REAL NOT NULL DEFAULT 0"},
	{"failing_tests", "TEXT"},
	{"snippet", "TEXT"},
	{"complexity", "INTEGER"},
	{"iteration", "INTEGER"},
	{"duration_ms", "INTEGER"},
	{"synthesis_method", "TEXT"},
	{"calls_functions", "TEXT"},
	{"post_bow", "TEXT"},
}

// reconcileCorpusColumns adds any column missing from an existing corpus
// table. A table without an id column cannot be adopted and is an error.
func reconcileCorpusColumns(ctx context.Context, db *sql.DB) error {
	existing, err := tableColumns(ctx, db, "corpus")
	if err != nil {
		return err
	}
	if !existing["id"] {
		return fmt.Errorf("corpus table has no id column")
	}

	for _, col := range corpusColumns {
		if existing[col.name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE corpus ADD COLUMN %s %s", col.name, col.def)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to add corpus column %s: %w", col.name, err)
		}
	}
	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// RollbackMigration rolls back the most recent migration
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	var version string
	err := db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC, version DESC LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("no migrations to rollback: %w", err)
	}

	var migration *Migration
	for i := range AllMigrations {
		if AllMigrations[i].Version == version {
			migration = &AllMigrations[i]
			break
		}
	}
	if migration == nil {
		return fmt.Errorf("migration %s not found", version)
	}

	if _, err := db.ExecContext(ctx, migration.Down); err != nil {
		return fmt.Errorf("failed to rollback migration %s: %w", version, err)
	}

	// The v1 down script drops schema_version itself
	if _, err := db.ExecContext(ctx, "DELETE FROM schema_version WHERE version = ?", version); err != nil {
		if tableExists(ctx, db, "schema_version") {
			return fmt.Errorf("failed to remove migration record %s: %w", version, err)
		}
	}

	return nil
}

// SchemaVersion reports the applied schema version
func SchemaVersion(ctx context.Context, db *sql.DB) (string, error) {
	v, err := currentVersion(ctx, db)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func tableExists(ctx context.Context, db *sql.DB, name string) bool {
	var found string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&found)
	return err == nil
}
