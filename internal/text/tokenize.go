package text

import (
	"regexp"
	"strings"
)

// A token is a run of two or more letters, digits or underscores. Combining
// marks are not word characters, so decomposed accents split a word.
var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize lowercases s and returns its tokens in order of appearance.
func Tokenize(s string) []string {
	return tokenRe.FindAllString(strings.ToLower(s), -1)
}
