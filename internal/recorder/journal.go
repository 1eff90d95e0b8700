package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dshills/synthcorpus/pkg/types"
)

// Journal is an append-only JSONL mirror of recorded entries. Each line is
// one entry in the same encoding the importer reads.
type Journal struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// OpenJournal opens path for appending, creating it and its parent
// directories if needed
func OpenJournal(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return &Journal{file: f, path: path}, nil
}

// Path returns the journal file path
func (j *Journal) Path() string {
	return j.path
}

// Append writes entry as a single line
func (j *Journal) Append(entry *types.Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return os.ErrClosed
	}
	if _, err := j.file.Write(line); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}
	return nil
}

// Close closes the journal. Further appends return os.ErrClosed.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}
