package recorder

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/synthcorpus/internal/storage"
	"github.com/dshills/synthcorpus/pkg/types"
)

func setupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func fixedClock() time.Time {
	return time.Date(2026, 4, 2, 15, 4, 5, 0, time.FixedZone("EST", -5*3600))
}

func TestRecord_FillsDerivedFields(t *testing.T) {
	store := setupTestDB(t)
	rec := New(store, WithClock(fixedClock))

	entry, err := rec.Record(context.Background(), types.Attempt{
		Entry: types.Entry{
			FuncName:      "parse_int",
			FuncSignature: "parse_int(s: str) -> int",
			Passed:        2,
			Total:         3,
			Score:         0.4,
			Snippet:       "def parse_int(s): return int(s)",
		},
		SpecText:       "  parse an integer  ",
		PostConditions: []string{"result is an Integer", "not None and result >= 0"},
	})
	require.NoError(t, err)

	_, err = uuid.Parse(entry.ID)
	assert.NoError(t, err, "default id is a uuid")
	assert.Equal(t, "2026-04-02T20:04:05Z", entry.Timestamp)
	assert.Equal(t, "parse_int|str|int", entry.SigKey)
	assert.Equal(t, []string{"result", "is", "an", "integer"}, entry.PostBow)

	hash, id := SpecDigest("parse an integer")
	assert.Equal(t, hash, entry.SpecHash)
	assert.Equal(t, id, entry.SpecID)
	assert.Equal(t, []string{}, entry.FailingTests)
	assert.Equal(t, []string{}, entry.CallsFunctions)

	stored, err := store.GetRecent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, *entry, stored[0])
}

func TestRecord_KeepsProvidedFields(t *testing.T) {
	store := setupTestDB(t)
	rec := New(store)

	in := types.Attempt{
		Entry: types.Entry{
			ID:            "given",
			Timestamp:     "2025-12-31T23:59:59Z",
			SpecID:        "spec-1",
			SpecHash:      "abc",
			FuncSignature: "f(x) -> int",
			SigKey:        "custom|key|here",
			PostBow:       []string{"kept"},
			Passed:        1,
			Total:         1,
		},
		SpecText:       "ignored for existing hash",
		PostConditions: []string{"ignored"},
	}

	entry, err := rec.Record(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "given", entry.ID)
	assert.Equal(t, "2025-12-31T23:59:59Z", entry.Timestamp)
	assert.Equal(t, "spec-1", entry.SpecID)
	assert.Equal(t, "abc", entry.SpecHash)
	assert.Equal(t, "custom|key|here", entry.SigKey)
	assert.Equal(t, []string{"kept"}, entry.PostBow)
}

func TestRecord_ValidatesCounts(t *testing.T) {
	store := setupTestDB(t)
	rec := New(store)
	ctx := context.Background()

	_, err := rec.Record(ctx, types.Attempt{Entry: types.Entry{Passed: 4, Total: 3}})
	assert.ErrorIs(t, err, types.ErrPassedExceedsTotal)

	_, err = rec.Record(ctx, types.Attempt{Entry: types.Entry{Passed: -1, Total: 3}})
	assert.ErrorIs(t, err, types.ErrNegativeCount)

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.TotalEntries, "rejected attempts are not written")
}

func TestRecord_DuplicateIDKeepsFirst(t *testing.T) {
	store := setupTestDB(t)
	rec := New(store)
	ctx := context.Background()

	_, err := rec.Record(ctx, types.Attempt{Entry: types.Entry{ID: "same", Score: 0.1, Snippet: "first"}})
	require.NoError(t, err)
	_, err = rec.Record(ctx, types.Attempt{Entry: types.Entry{ID: "same", Score: 0.9, Snippet: "second"}})
	require.NoError(t, err)

	stored, err := store.GetRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 0.1, stored[0].Score)
	assert.Equal(t, "first", stored[0].Snippet)
}

func TestRecord_WritesJournal(t *testing.T) {
	store := setupTestDB(t)
	path := filepath.Join(t.TempDir(), "corpus", "corpus.jsonl")
	journal, err := OpenJournal(path)
	require.NoError(t, err)

	rec := New(store, WithJournal(journal))
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		_, err := rec.Record(ctx, types.Attempt{Entry: types.Entry{ID: id, FuncName: "f", Passed: 1, Total: 1}})
		require.NoError(t, err)
	}
	require.NoError(t, journal.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 2)

	var first types.Entry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "a", first.ID)
	assert.Equal(t, "f", first.FuncName)
}

func TestRecord_JournalFailureDoesNotFailRecord(t *testing.T) {
	store := setupTestDB(t)
	journal, err := OpenJournal(filepath.Join(t.TempDir(), "j.jsonl"))
	require.NoError(t, err)
	require.NoError(t, journal.Close())

	rec := New(store, WithJournal(journal))
	_, err = rec.Record(context.Background(), types.Attempt{Entry: types.Entry{ID: "x"}})
	assert.NoError(t, err)
}

func TestRecord_StoreError(t *testing.T) {
	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = New(store).Record(context.Background(), types.Attempt{Entry: types.Entry{ID: "x"}})
	assert.ErrorIs(t, err, storage.ErrClosed)
}

func TestSpecDigest(t *testing.T) {
	hash, id := SpecDigest("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hash)
	assert.Equal(t, "ba7816bf8f01", id)
	assert.Len(t, id, SpecIDLength)

	trimmed, _ := SpecDigest("\n abc \t")
	assert.Equal(t, hash, trimmed)
}

func TestJournal_AppendAfterClose(t *testing.T) {
	journal, err := OpenJournal(filepath.Join(t.TempDir(), "j.jsonl"))
	require.NoError(t, err)
	require.NoError(t, journal.Close())
	assert.NoError(t, journal.Close(), "close is idempotent")
	assert.ErrorIs(t, journal.Append(&types.Entry{ID: "x"}), os.ErrClosed)
}

func TestJournal_AppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "j.jsonl")
	for _, id := range []string{"one", "two"} {
		journal, err := OpenJournal(path)
		require.NoError(t, err)
		require.NoError(t, journal.Append(&types.Entry{ID: id}))
		require.NoError(t, journal.Close())
	}
	assert.Len(t, readLines(t, path), 2)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}
