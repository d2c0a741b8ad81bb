// Package normalizer cleans raw page text extracted from a document before
// it is chunked. All functions are pure and never fail.
package normalizer

import (
	"regexp"
	"strings"

	"pdfchat/internal/models"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize applies the cleanup rules in a fixed order. Later rules assume
// the earlier ones already ran:
//  1. "-\n" is deleted, joining words hyphenated across a line break
//  2. remaining newlines become single spaces
//  3. Private-Use-Area code points are deleted
//  4. every whitespace run collapses to exactly one space
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "-\n", "")
	text = strings.ReplaceAll(text, "\n", " ")
	text = RemovePUA(text)
	return whitespaceRun.ReplaceAllString(text, " ")
}

// RemovePUA deletes all Unicode Private-Use-Area characters: U+E000-U+F8FF,
// U+F0000-U+FFFFD and U+100000-U+10FFFD. PDF extractors leak these for
// glyphs without a Unicode mapping.
func RemovePUA(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 0xE000 && r <= 0xF8FF:
			return -1
		case r >= 0xF0000 && r <= 0xFFFFD:
			return -1
		case r >= 0x100000 && r <= 0x10FFFD:
			return -1
		}
		return r
	}, text)
}

// NormalizePassages rewrites the content of every passage in place and
// returns the same slice for chaining.
func NormalizePassages(passages []models.Passage) []models.Passage {
	for i := range passages {
		passages[i].Content = Normalize(passages[i].Content)
	}
	return passages
}
