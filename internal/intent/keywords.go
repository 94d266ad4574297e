// Package intent turns free-form user text into search tokens for the
// directory retriever. Extraction is deterministic and purely lexical; no
// model call is involved.
package intent

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenLen is exclusive: tokens must be longer than this to survive.
const minTokenLen = 2

// stopWords are filler terms that carry no search value for the directory.
var stopWords = map[string]struct{}{
	"what": {}, "is": {}, "are": {}, "tell": {}, "me": {}, "about": {},
	"who": {}, "which": {}, "show": {}, "list": {}, "of": {}, "the": {},
	"a": {}, "an": {}, "find": {},
}

// Keywords splits text into lowercase alphanumeric tokens, drops stop words
// and tokens of two characters or fewer, and returns the remainder in
// first-seen order without duplicates. Degenerate input yields an empty set.
func Keywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, f := range fields {
		if utf8.RuneCountInString(f) <= minTokenLen {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
