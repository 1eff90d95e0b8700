package types

// EntryFilter holds the optional predicates for listing entries.
// All set predicates are combined with AND.
type EntryFilter struct {
	FuncName    string   // Exact function name match
	PerfectOnly bool     // Only entries with passed == total
	MinScore    *float64 // Inclusive lower bound on score
	MaxScore    *float64 // Inclusive upper bound on score
	StartDate   string   // Inclusive lower bound on timestamp (string compare)
	EndDate     string   // Inclusive upper bound on timestamp (string compare)
	Limit       int      // <= 0 means no limit
	Offset      int
}

// EntryPage is one page of entries, newest first.
type EntryPage struct {
	Entries []Entry `json:"entries"`
	// HasMore is true when the page came back full. A full final page also
	// reports true; callers must tolerate one empty trailing page.
	HasMore bool `json:"has_more"`
}

// Breakdown exposes the components of a similarity score.
type Breakdown struct {
	ReturnMatch  float64 `json:"return_match"`
	ArgMatch     float64 `json:"arg_match"`
	JaccardScore float64 `json:"jaccard_score"`
	PerfectBonus float64 `json:"perfect_bonus"`
}

// SimilarResult is a stored entry ranked against a similarity target
type SimilarResult struct {
	Entry      Entry     `json:"entry"`
	Similarity float64   `json:"similarity"`
	Breakdown  Breakdown `json:"breakdown"`
}
