// Package storage provides SQLite-based persistence for the synthesis corpus.
//
// The store owns a single table, corpus, with one row per synthesis attempt,
// and four indexes:
//   - idx_corpus_func: lookup by function name
//   - idx_corpus_sig_key: lookup by signature key
//   - idx_corpus_timestamp: newest-first ordering
//   - idx_corpus_best: function + score + passed + total for best-of ranking
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("./corpus.db")
//	if err != nil {
//	    log.Fatal(err) // no retry: nothing works without the store
//	}
//	defer store.Close()
//
//	err = store.InsertEntry(ctx, &types.Entry{ID: "a1", FuncName: "parse_int", ...})
//
//	page, err := store.GetEntries(ctx, types.EntryFilter{
//	    FuncName:    "parse_int",
//	    PerfectOnly: true,
//	    Limit:       10,
//	})
//
// # Write Semantics
//
// InsertEntry is insert-or-ignore: writing an id that already exists leaves
// the stored row unchanged and returns nil. Entries cannot be updated by
// re-submitting them.
//
// # List Columns
//
// failing_tests, calls_functions and post_bow are stored as JSON arrays.
// NULL or malformed values decode to empty slices rather than errors.
//
// # Concurrency
//
// The database runs in WAL mode, allowing one writer alongside many readers.
// Every operation is a single statement; there are no multi-statement
// transactions. Close is idempotent.
//
// # Build Modes
//
// The default build uses the pure Go driver modernc.org/sqlite. Building with
// -tags sqlite_cgo switches to github.com/mattn/go-sqlite3.
package storage
