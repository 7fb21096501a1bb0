package search

import (
	"regexp"
	"strings"
)

// DefaultStopwords covers filler words common in retail product labels that
// carry no discriminating power between products.
var DefaultStopwords = []string{
	"the", "a", "an", "and", "of", "for", "with", "new", "original",
	"pack", "ml", "g", "kg", "l",
}

// ProductText joins the searchable fields of a product into one document
// body. Empty fields are skipped; comma-separated keyword lists are
// flattened into plain words.
func ProductText(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(strings.ReplaceAll(f, ",", " "))
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*|\p{N}+`)

// tokenize lowercases s and returns its unique word set, dropping any
// stop words. Words are letter runs with optional trailing digits, or bare
// digit runs (so "spf 50" yields both tokens).
func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

// normalizeWhitespace collapses runs of spaces, tabs, and carriage returns
// into single spaces.
func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
