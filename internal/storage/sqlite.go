package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/synthcorpus/pkg/types"
)

var (
	// ErrClosed is returned by operations on a closed store
	ErrClosed = errors.New("storage is closed")
)

const (
	// MemoryPath opens a private in-memory database
	MemoryPath = ":memory:"

	// maxReaders bounds the connection pool for file databases. WAL lets
	// readers proceed while the single writer holds the write lock.
	maxReaders = 8
)

// entryColumns is the column list shared by every entry query; scanEntry
// expects exactly this order.
const entryColumns = `id, timestamp, spec_id, spec_hash, func_name, func_signature, sig_key,
	passed, total, score, failing_tests, snippet, complexity, iteration, duration_ms,
	synthesis_method, calls_functions, post_bow`

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db     *sql.DB
	path   string
	wal    bool
	logger *zap.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Option configures a SQLiteStorage
type Option func(*SQLiteStorage)

// WithLogger sets the logger used for lifecycle events
func WithLogger(logger *zap.Logger) Option {
	return func(s *SQLiteStorage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, bool, error) {
	memory := dbPath == MemoryPath
	dsn := dbPath
	if !memory {
		if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, false, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = fileDSN(dbPath)
	}

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, false, err
	}

	// Each connection to :memory: is a separate database
	if memory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(maxReaders)
		db.SetMaxIdleConns(maxReaders)
	}
	db.SetConnMaxLifetime(0)

	// Enable WAL mode: one writer alongside many readers
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode=WAL").Scan(&mode); err != nil {
		_ = db.Close()
		return nil, false, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return db, strings.EqualFold(mode, "wal"), nil
}

// NewSQLiteStorage opens (creating if needed) the corpus database at dbPath
// and brings its schema up to date. There is no retry: callers treat an
// error here as fatal.
func NewSQLiteStorage(dbPath string, opts ...Option) (*SQLiteStorage, error) {
	db, wal, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	s := &SQLiteStorage{
		db:     db,
		path:   dbPath,
		wal:    wal,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger.Info("corpus store opened",
		zap.String("path", dbPath),
		zap.String("driver", DriverName),
		zap.String("build_mode", BuildMode),
		zap.Bool("wal", wal))
	return s, nil
}

// Close releases the database. It is safe to call more than once.
func (s *SQLiteStorage) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.db.Close()
		s.logger.Info("corpus store closed", zap.String("path", s.path))
	})
	return s.closeErr
}

func (s *SQLiteStorage) checkOpen() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Entry operations

// InsertEntry writes entry unless an entry with the same id already exists,
// in which case the stored row is left untouched and no error is returned.
func (s *SQLiteStorage) InsertEntry(ctx context.Context, entry *types.Entry) error {
	_, err := s.TryInsertEntry(ctx, entry)
	return err
}

// TryInsertEntry is InsertEntry that also reports whether a row was written.
// It returns false with a nil error when the id already exists.
func (s *SQLiteStorage) TryInsertEntry(ctx context.Context, entry *types.Entry) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	if entry == nil || entry.ID == "" {
		return false, types.ErrMissingID
	}

	query := `
		INSERT OR IGNORE INTO corpus (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.Timestamp, entry.SpecID, entry.SpecHash,
		entry.FuncName, entry.FuncSignature, entry.SigKey,
		entry.Passed, entry.Total, entry.Score,
		encodeList(entry.FailingTests), entry.Snippet,
		nullInt(entry.Complexity), nullInt(entry.Iteration), nullInt64(entry.DurationMS),
		nullString(entry.SynthesisMethod),
		encodeList(entry.CallsFunctions), encodeList(entry.PostBow),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert entry: %w", err)
	}
	return n > 0, nil
}

// GetEntries lists entries matching filter, newest first
func (s *SQLiteStorage) GetEntries(ctx context.Context, filter types.EntryFilter) (*types.EntryPage, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var where []string
	var args []any

	if filter.FuncName != "" {
		where = append(where, "func_name = ?")
		args = append(args, filter.FuncName)
	}
	if filter.PerfectOnly {
		where = append(where, "passed = total")
	}
	if filter.MinScore != nil {
		where = append(where, "score >= ?")
		args = append(args, *filter.MinScore)
	}
	if filter.MaxScore != nil {
		where = append(where, "score <= ?")
		args = append(args, *filter.MaxScore)
	}
	if filter.StartDate != "" {
		where = append(where, "timestamp >= ?")
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		where = append(where, "timestamp <= ?")
		args = append(args, filter.EndDate)
	}

	query := "SELECT " + entryColumns + " FROM corpus"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, rowid DESC LIMIT ? OFFSET ?"

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, sqlLimit(filter.Limit), offset)

	entries, err := s.queryEntries(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}

	return &types.EntryPage{
		Entries: entries,
		HasMore: filter.Limit > 0 && len(entries) == filter.Limit,
	}, nil
}

// GetTopByFunc returns the best attempts for a function: perfect solutions
// first, then lowest score, then newest.
func (s *SQLiteStorage) GetTopByFunc(ctx context.Context, funcName string, limit int) ([]types.Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + entryColumns + `
		FROM corpus
		WHERE func_name = ?
		ORDER BY (passed = total) DESC, score ASC, timestamp DESC, rowid DESC
		LIMIT ?
	`
	entries, err := s.queryEntries(ctx, query, funcName, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get top entries: %w", err)
	}
	return entries, nil
}

// GetRecent returns the newest entries
func (s *SQLiteStorage) GetRecent(ctx context.Context, limit int) ([]types.Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + entryColumns + `
		FROM corpus
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?
	`
	entries, err := s.queryEntries(ctx, query, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get recent entries: %w", err)
	}
	return entries, nil
}

// GetBySigKey returns entries with exactly this signature key, ranked like
// GetTopByFunc
func (s *SQLiteStorage) GetBySigKey(ctx context.Context, sigKey string, limit int) ([]types.Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + entryColumns + `
		FROM corpus
		WHERE sig_key = ?
		ORDER BY (passed = total) DESC, score ASC, timestamp DESC, rowid DESC
		LIMIT ?
	`
	entries, err := s.queryEntries(ctx, query, sigKey, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get entries by signature: %w", err)
	}
	return entries, nil
}

// GetStatus summarizes the corpus
func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	status := &Status{
		Health: HealthStatus{WALEnabled: s.wal},
	}

	if err := s.db.PingContext(ctx); err != nil {
		return status, nil
	}
	status.Health.DatabaseAccessible = true

	version, err := SchemaVersion(ctx, s.db)
	if err != nil {
		return nil, err
	}
	status.SchemaVersion = version

	var latest sql.NullString
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN passed = total THEN 1 ELSE 0 END), 0),
		       COUNT(DISTINCT func_name),
		       MAX(timestamp)
		FROM corpus
	`).Scan(&status.TotalEntries, &status.PerfectEntries, &status.DistinctFuncs, &latest)
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	status.LatestTimestamp = latest.String

	return status, nil
}

// queryEntries runs a query selecting entryColumns and decodes every row
func (s *SQLiteStorage) queryEntries(ctx context.Context, query string, args ...any) ([]types.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := make([]types.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry decodes one row in entryColumns order
func scanEntry(r rowScanner) (types.Entry, error) {
	var e types.Entry
	var timestamp, specID, specHash, funcName, funcSig, sigKey sql.NullString
	var failing, snippet, method, calls, bow sql.NullString
	var passed, total, complexity, iteration, duration sql.NullInt64
	var score sql.NullFloat64

	// Tables created by older writers allow NULL in every column
	err := r.Scan(
		&e.ID, &timestamp, &specID, &specHash, &funcName, &funcSig, &sigKey,
		&passed, &total, &score, &failing, &snippet,
		&complexity, &iteration, &duration, &method, &calls, &bow,
	)
	if err != nil {
		return e, err
	}

	e.Timestamp = timestamp.String
	e.Passed = int(passed.Int64)
	e.Total = int(total.Int64)
	e.Score = score.Float64
	e.SpecID = specID.String
	e.SpecHash = specHash.String
	e.FuncName = funcName.String
	e.FuncSignature = funcSig.String
	e.SigKey = sigKey.String
	e.Snippet = snippet.String
	e.FailingTests = decodeList(failing)
	e.CallsFunctions = decodeList(calls)
	e.PostBow = decodeList(bow)
	e.Complexity = intPtr(complexity)
	e.Iteration = intPtr(iteration)
	e.DurationMS = int64Ptr(duration)
	e.SynthesisMethod = stringPtr(method)

	return e, nil
}

// sqlLimit maps a non-positive limit to SQLite's "no limit"
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
