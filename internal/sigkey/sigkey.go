// Package sigkey builds and decomposes signature keys, the pipe-delimited
// name|args|return triple that identifies a function's shape.
package sigkey

import (
	"regexp"
	"strings"
)

// Separator joins the three segments of a key
const Separator = "|"

// Key is a decomposed signature key. Any segment may be empty.
type Key struct {
	Name   string
	Args   string
	Return string
}

// Parse splits s into its three segments. Missing segments are empty and
// segments beyond the third are ignored; Parse never fails.
func Parse(s string) Key {
	parts := strings.Split(s, Separator)
	var k Key
	if len(parts) > 0 {
		k.Name = parts[0]
	}
	if len(parts) > 1 {
		k.Args = parts[1]
	}
	if len(parts) > 2 {
		k.Return = parts[2]
	}
	return k
}

// String joins the segments back into a key
func (k Key) String() string {
	return k.Name + Separator + k.Args + Separator + k.Return
}

// typeAliases maps alternate spellings of a type to the one used in keys
var typeAliases = map[string]string{
	"string": "str",
	"Any":    "any",
}

var typeName = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// canonicalType rewrites every type name in an annotation to its canonical
// spelling, so "list[string]" becomes "list[str]".
func canonicalType(typ string) string {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return typ
	}
	return typeName.ReplaceAllStringFunc(typ, func(name string) string {
		if canon, ok := typeAliases[name]; ok {
			return canon
		}
		return name
	})
}

// FromSignature derives a key from a declaration such as
// "parse_int(s: str) -> int", giving "parse_int|str|int". Parameters without
// an annotation are typed "any". Type spellings are canonicalized, so
// "string" and "str" give the same key. Input without a parameter list
// becomes a key holding only the trimmed name.
func FromSignature(sig string) Key {
	sig = strings.TrimSpace(sig)
	open := strings.Index(sig, "(")
	if open < 0 {
		return Key{Name: sig}
	}
	end := matchingParen(sig, open)
	if end < 0 {
		return Key{Name: sig}
	}

	k := Key{Name: strings.TrimSpace(sig[:open])}

	params := splitTopLevel(sig[open+1 : end])
	types := make([]string, 0, len(params))
	for _, p := range params {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		_, typ, _ := strings.Cut(p, ":")
		// Drop default values: "n: int = 3"
		typ, _, _ = strings.Cut(typ, "=")
		typ = canonicalType(typ)
		if typ == "" {
			typ = "any"
		}
		types = append(types, typ)
	}
	k.Args = strings.Join(types, ",")

	rest := strings.TrimSpace(sig[end+1:])
	if after, ok := strings.CutPrefix(rest, "->"); ok {
		k.Return = canonicalType(strings.TrimSuffix(strings.TrimSpace(after), ":"))
	}
	return k
}

// matchingParen returns the index of the parenthesis closing the one at open
func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits on commas that are not nested inside brackets
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
