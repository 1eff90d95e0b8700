package recorder

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/synthcorpus/internal/storage"
	"github.com/dshills/synthcorpus/pkg/types"
)

// maxLineSize bounds a single JSONL record; snippets can be large
const maxLineSize = 16 * 1024 * 1024

// ImportStats summarizes an import run
type ImportStats struct {
	Read       int `json:"read"`       // Non-blank lines read
	Inserted   int `json:"inserted"`   // Entries actually written
	Duplicates int `json:"duplicates"` // Entries whose id was already stored, left untouched
	Skipped    int `json:"skipped"`    // Malformed lines or entries without an id
}

// Importer loads JSONL entries, such as a journal, into a store
type Importer struct {
	store   storage.Storage
	workers int
	logger  *zap.Logger
}

// NewImporter creates an Importer. workers <= 0 uses runtime.NumCPU().
func NewImporter(store storage.Storage, workers int, logger *zap.Logger) *Importer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{store: store, workers: workers, logger: logger}
}

// Import reads one entry per line from r and inserts them concurrently.
// Malformed lines are counted and skipped. A store error stops the import
// and is returned together with the stats gathered so far. Importing the
// same data twice is harmless.
func (im *Importer) Import(ctx context.Context, r io.Reader) (ImportStats, error) {
	var (
		read       int64
		inserted   int64
		duplicates int64
		skipped    int64
	)

	lines := make(chan []byte, im.workers*2)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(lines)

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			raw := scanner.Bytes()
			if len(bytes.TrimSpace(raw)) == 0 {
				continue
			}
			atomic.AddInt64(&read, 1)

			line := make([]byte, len(raw))
			copy(line, raw)
			select {
			case lines <- line:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		return nil
	})

	for i := 0; i < im.workers; i++ {
		g.Go(func() error {
			for line := range lines {
				var entry types.Entry
				if err := json.Unmarshal(line, &entry); err != nil || entry.ID == "" {
					atomic.AddInt64(&skipped, 1)
					continue
				}
				written, err := im.store.TryInsertEntry(gctx, &entry)
				if err != nil {
					return fmt.Errorf("failed to import entry %q: %w", entry.ID, err)
				}
				if written {
					atomic.AddInt64(&inserted, 1)
				} else {
					atomic.AddInt64(&duplicates, 1)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	stats := ImportStats{
		Read:       int(read),
		Inserted:   int(inserted),
		Duplicates: int(duplicates),
		Skipped:    int(skipped),
	}

	im.logger.Info("import finished",
		zap.Int("read", stats.Read),
		zap.Int("inserted", stats.Inserted),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("skipped", stats.Skipped),
		zap.Int("workers", im.workers),
		zap.Error(err))

	return stats, err
}
