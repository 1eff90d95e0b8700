package similarity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/synthcorpus/internal/sigkey"
	"github.com/dshills/synthcorpus/internal/storage"
	"github.com/dshills/synthcorpus/internal/tokenizer"
	"github.com/dshills/synthcorpus/pkg/types"
)

// DefaultWindow is how many of the most recent entries are scored per request
const DefaultWindow = 2000

// Scoring weights. These are fixed; changing them changes every ranking.
const (
	ReturnWeight    = 0.3
	ArgWeight       = 0.3
	SignatureWeight = 0.6
	LexicalWeight   = 0.4
	PerfectBonus    = 0.1
)

// Target is what candidates are scored against
type Target struct {
	Key sigkey.Key
	Bow []string
}

// Engine ranks stored entries by structural and lexical resemblance to a
// target. An Engine holds no per-request state; concurrent calls share only
// the underlying store.
type Engine struct {
	store  storage.Storage
	window int
	logger *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithWindow sets the candidate pool size. Non-positive values are ignored.
func WithWindow(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.window = n
		}
	}
}

// WithLogger sets the logger for scan diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Engine reading candidates from store
func New(store storage.Storage, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		window: DefaultWindow,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Window returns the configured candidate pool size
func (e *Engine) Window() int {
	return e.window
}

// GetSimilar returns up to limit entries most similar to the target
// signature key and token bag, best first, with no two results sharing a
// snippet. Only the most recent Window() entries are considered.
func (e *Engine) GetSimilar(ctx context.Context, targetSigKey string, targetBow []string, limit int) ([]types.SimilarResult, error) {
	start := time.Now()

	pool, err := e.store.GetRecent(ctx, e.window)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	target := Target{Key: sigkey.Parse(targetSigKey), Bow: targetBow}
	scored := make([]types.SimilarResult, 0, len(pool))
	for i := range pool {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sim, breakdown := Score(&pool[i], target)
		scored = append(scored, types.SimilarResult{
			Entry:      pool[i],
			Similarity: sim,
			Breakdown:  breakdown,
		})
	}

	// Ties keep pool order (newest first)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	results := dedupeSnippets(scored, limit)

	e.logger.Debug("similarity scan",
		zap.Int("window", e.window),
		zap.Int("candidates", len(pool)),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)))

	return results, nil
}

// GetSimilarText is GetSimilar for a human-readable signature and free-text
// description. The description goes through the same tokenizer that
// produces stored post-condition bags.
func (e *Engine) GetSimilarText(ctx context.Context, signature, description string, limit int) ([]types.SimilarResult, error) {
	key := sigkey.FromSignature(signature)
	return e.GetSimilar(ctx, key.String(), tokenizer.Tokenize(description), limit)
}

// Score computes the similarity of candidate to target and its breakdown
func Score(candidate *types.Entry, target Target) (float64, types.Breakdown) {
	key := sigkey.Parse(candidate.SigKey)

	var b types.Breakdown
	b.ReturnMatch = segmentMatch(key.Return, target.Key.Return)
	b.ArgMatch = segmentMatch(key.Args, target.Key.Args)
	b.JaccardScore = Jaccard(candidate.PostBow, target.Bow)
	if candidate.Perfect() {
		b.PerfectBonus = PerfectBonus
	}

	signature := ReturnWeight*b.ReturnMatch + ArgWeight*b.ArgMatch
	sim := SignatureWeight*signature + LexicalWeight*b.JaccardScore + b.PerfectBonus
	return sim, b
}

// segmentMatch is 1 when both segments are equal and non-empty
func segmentMatch(a, b string) float64 {
	if a != "" && a == b {
		return 1
	}
	return 0
}

// Jaccard returns |A∩B| / |A∪B| over the distinct tokens of a and b.
// Two empty bags have similarity 0.
func Jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, tok := range a {
		setA[tok] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, tok := range b {
		setB[tok] = struct{}{}
	}

	union := len(setA)
	intersection := 0
	for tok := range setB {
		if _, ok := setA[tok]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// dedupeSnippets keeps the first result for each distinct snippet, stopping
// once limit results are collected. limit <= 0 keeps every distinct snippet.
func dedupeSnippets(ranked []types.SimilarResult, limit int) []types.SimilarResult {
	seen := make(map[string]struct{}, len(ranked))
	out := make([]types.SimilarResult, 0)
	for _, r := range ranked {
		if limit > 0 && len(out) >= limit {
			break
		}
		if _, dup := seen[r.Entry.Snippet]; dup {
			continue
		}
		seen[r.Entry.Snippet] = struct{}{}
		out = append(out, r)
	}
	return out
}
