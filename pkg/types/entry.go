package types

// Entry is one recorded synthesis attempt. Entries are immutable once written.
type Entry struct {
	// Identification
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"` // ISO-8601, compared lexicographically

	// Target specification
	SpecID   string `json:"spec_id"`
	SpecHash string `json:"spec_hash"`

	// Target function
	FuncName      string `json:"func_name"`
	FuncSignature string `json:"func_signature"`
	SigKey        string `json:"sig_key"` // name|args|return

	// Outcome
	Passed       int      `json:"passed"`
	Total        int      `json:"total"`
	Score        float64  `json:"score"` // Lower is better
	FailingTests []string `json:"failing_tests"`
	Snippet      string   `json:"snippet"`

	// Optional descriptive attributes (nullable columns)
	Complexity      *int    `json:"complexity,omitempty"`
	Iteration       *int    `json:"iteration,omitempty"`
	DurationMS      *int64  `json:"duration_ms,omitempty"`
	SynthesisMethod *string `json:"synthesis_method,omitempty"`

	// Structure
	CallsFunctions []string `json:"calls_functions"`
	PostBow        []string `json:"post_bow"`
}

// Perfect reports whether every check passed.
func (e *Entry) Perfect() bool {
	return e.Passed == e.Total
}

// ValidateCounts checks the pass/fail counters. The store itself accepts any
// values; callers that want the invariant enforced call this before writing.
func (e *Entry) ValidateCounts() error {
	if e.Passed < 0 || e.Total < 0 {
		return ErrNegativeCount
	}
	if e.Passed > e.Total {
		return ErrPassedExceedsTotal
	}
	return nil
}

// Attempt is the raw outcome of a synthesis run as reported by the pipeline.
// Derived Entry fields left empty here are filled in by the recorder.
type Attempt struct {
	Entry

	// SpecText is hashed into SpecHash/SpecID when those are empty.
	SpecText string `json:"spec_text,omitempty"`
	// PostConditions are tokenized into PostBow when PostBow is empty.
	PostConditions []string `json:"post_conditions,omitempty"`
}
