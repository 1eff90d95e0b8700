// Package tokenizer extracts the normalized bag-of-words used for lexical
// similarity between synthesis attempts.
//
// The same Tokenize function must be applied when an entry's post_bow is
// computed at write time and when a query target is built at read time.
package tokenizer

import (
	"regexp"
	"strings"
)

// word matches identifier-like runs. A digit-led run such as "2x" yields the
// identifier that follows its leading digits ("x").
var word = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// stopwords are dropped after lowercasing
var stopwords = map[string]struct{}{
	"and":   {},
	"or":    {},
	"not":   {},
	"ret":   {},
	"true":  {},
	"false": {},
	"none":  {},
}

// Tokenize returns the lowercased identifier tokens of text with stopwords
// removed. Each token appears once, in order of first occurrence.
func Tokenize(text string) []string {
	return TokenizeAll([]string{text})
}

// TokenizeAll tokenizes several texts into a single ordered token set.
func TokenizeAll(texts []string) []string {
	tokens := make([]string, 0)
	seen := make(map[string]struct{})

	for _, text := range texts {
		for _, match := range word.FindAllString(text, -1) {
			tok := strings.ToLower(match)
			if IsStopword(tok) {
				continue
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// IsStopword reports whether a lowercased token is ignored
func IsStopword(tok string) bool {
	_, ok := stopwords[tok]
	return ok
}
