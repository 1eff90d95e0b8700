// Package types provides shared type definitions for the synthesis corpus.
//
// # Core Types
//
// Entry is one recorded synthesis attempt: the target function, the outcome
// of its checks, the generated snippet, and the structural metadata used for
// similarity retrieval:
//
//	entry := &types.Entry{
//	    ID:       "b7f1c2",
//	    FuncName: "parse_int",
//	    SigKey:   "parse_int|str|int",
//	    Passed:   3,
//	    Total:    3,
//	    Score:    0.12,
//	    Snippet:  "def parse_int(s): return int(s)",
//	    PostBow:  []string{"parse", "integer", "string"},
//	}
//
// Attempt wraps an Entry with the raw inputs (specification text and
// postconditions) that the recorder turns into SpecHash, SpecID and PostBow.
//
// # Perfect Solutions
//
// An entry is perfect when Passed == Total. Perfect entries rank ahead of
// imperfect ones in best-of retrieval and receive a bonus in similarity
// scoring.
//
// # Validation
//
// The store accepts any counts. ValidateCounts enforces non-negative counts
// and Passed <= Total for callers that want it:
//
//	if err := entry.ValidateCounts(); err != nil {
//	    return err
//	}
//
// # Similarity Results
//
// SimilarResult pairs an entry with its composite similarity and the
// Breakdown of that score into return-type match, argument match, Jaccard
// token overlap and the perfect-solution bonus.
package types
