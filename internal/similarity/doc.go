// Package similarity ranks stored synthesis attempts by how closely they
// resemble a new request.
//
// A candidate is compared with the target on two axes. The structural axis
// looks at the signature key (name|args|return): each of the return and
// argument segments contributes when it is non-empty and identical on both
// sides. The lexical axis is the Jaccard overlap between the candidate's
// stored post-condition tokens and the target's tokens.
//
//	signature  = 0.3*returnMatch + 0.3*argMatch
//	similarity = 0.6*signature + 0.4*jaccard + 0.1 (if passed == total)
//
// The name segment is not scored.
//
// # Basic Usage
//
//	engine := similarity.New(store, similarity.WithWindow(5000))
//
//	results, err := engine.GetSimilar(ctx, "parse_int|str|int",
//	    []string{"parse", "integer"}, 5)
//
//	for _, r := range results {
//	    fmt.Printf("%.2f %s\n", r.Similarity, r.Entry.Snippet)
//	}
//
// GetSimilarText accepts a signature such as "parse_int(s: str) -> int" and
// a free-text description instead of a prepared key and token bag.
//
// # Candidate Window
//
// Only the most recent Window() entries are scored (DefaultWindow unless
// WithWindow overrides it). Older entries are never returned, however
// similar they are.
//
// # Ordering
//
// Results are sorted by similarity, highest first. Equal scores keep the
// store's recency order. Results with a snippet identical to a higher
// ranked result are dropped before the limit is applied.
package similarity
