package recorder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/synthcorpus/internal/sigkey"
	"github.com/dshills/synthcorpus/internal/storage"
	"github.com/dshills/synthcorpus/internal/tokenizer"
	"github.com/dshills/synthcorpus/pkg/types"
)

// SpecIDLength is the number of hex characters of the spec hash used as the
// short spec id
const SpecIDLength = 12

// Recorder turns raw synthesis attempts into corpus entries and persists them
type Recorder struct {
	store   storage.Storage
	journal *Journal
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Recorder
type Option func(*Recorder)

// WithJournal mirrors every recorded entry to j
func WithJournal(j *Journal) Option {
	return func(r *Recorder) {
		r.journal = j
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source for default timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a Recorder writing to store
func New(store storage.Storage, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record fills in the derived fields of attempt, validates its counts and
// writes it. Recording an id that already exists leaves the stored entry
// unchanged and is not an error.
func (r *Recorder) Record(ctx context.Context, attempt types.Attempt) (*types.Entry, error) {
	entry := r.Prepare(attempt)

	if err := entry.ValidateCounts(); err != nil {
		return nil, fmt.Errorf("invalid attempt %q: %w", entry.ID, err)
	}

	if err := r.store.InsertEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	if r.journal != nil {
		if err := r.journal.Append(entry); err != nil {
			// The store is authoritative; the journal is a best-effort mirror
			r.logger.Warn("journal append failed",
				zap.String("id", entry.ID),
				zap.Error(err))
		}
	}

	r.logger.Debug("attempt recorded",
		zap.String("id", entry.ID),
		zap.String("func", entry.FuncName),
		zap.Int("passed", entry.Passed),
		zap.Int("total", entry.Total),
		zap.Float64("score", entry.Score))

	return entry, nil
}

// Prepare derives the fields Record fills in without writing anything
func (r *Recorder) Prepare(attempt types.Attempt) *types.Entry {
	entry := attempt.Entry

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = r.now().UTC().Format(time.RFC3339)
	}
	if entry.SigKey == "" && entry.FuncSignature != "" {
		entry.SigKey = sigkey.FromSignature(entry.FuncSignature).String()
	}
	if len(entry.PostBow) == 0 && len(attempt.PostConditions) > 0 {
		entry.PostBow = tokenizer.TokenizeAll(attempt.PostConditions)
	}
	if attempt.SpecText != "" {
		hash, id := SpecDigest(attempt.SpecText)
		if entry.SpecHash == "" {
			entry.SpecHash = hash
		}
		if entry.SpecID == "" {
			entry.SpecID = id
		}
	}
	if entry.FailingTests == nil {
		entry.FailingTests = []string{}
	}
	if entry.CallsFunctions == nil {
		entry.CallsFunctions = []string{}
	}
	if entry.PostBow == nil {
		entry.PostBow = []string{}
	}

	return &entry
}

// SpecDigest returns the SHA-256 hex digest of a specification text and the
// short id derived from it. Surrounding whitespace is not significant.
func SpecDigest(text string) (hash, id string) {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	hash = hex.EncodeToString(sum[:])
	return hash, hash[:SpecIDLength]
}
