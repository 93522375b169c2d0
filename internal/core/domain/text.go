package domain

import (
	"strings"
	"unicode"
)

const (
	titleBoost    = 2.0
	filenameBoost = 1.5
	relevanceK1   = 1.2
)

// Tokenize lower-cases s and splits it on anything that is not a letter or a
// digit. It mirrors the 'simple' text search configuration used by postgres.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// TextMatch reports whether every query token occurs in the document's
// title, description, filename or tags, in any order.
func TextMatch(doc *Document, query string) bool {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return false
	}
	terms := documentTermFreq(doc)
	for _, token := range queryTokens {
		if terms[token] == 0 {
			return false
		}
	}
	return true
}

// Relevance scores doc against query with saturated, field-weighted term
// frequencies. Higher is better; zero means no query token matched.
func Relevance(doc *Document, query string) float64 {
	terms := documentTermFreq(doc)
	score := 0.0
	seen := make(map[string]struct{})
	for _, token := range Tokenize(query) {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tf := terms[token]
		if tf == 0 {
			continue
		}
		score += (tf * (relevanceK1 + 1.0)) / (tf + relevanceK1)
	}
	return score
}

func documentTermFreq(doc *Document) map[string]float64 {
	tf := make(map[string]float64, 32)
	add := func(text string, weight float64) {
		for _, token := range Tokenize(text) {
			tf[token] += weight
		}
	}
	add(doc.Title, titleBoost)
	add(doc.Description, 1.0)
	add(doc.OriginalFilename, filenameBoost)
	for _, tag := range doc.Tags {
		add(tag, 1.0)
	}
	return tf
}
