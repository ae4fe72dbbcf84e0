package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// LengthClass buckets queries by character length for threshold selection.
type LengthClass int

const (
	// LengthShort covers queries shorter than 6 characters.
	LengthShort LengthClass = iota
	// LengthNormal covers everything else.
	LengthNormal
)

const (
	// MinQueryLength is the shortest trimmed query accepted.
	MinQueryLength = 2
	// shortQueryLimit is the boundary between LengthShort and LengthNormal.
	shortQueryLimit = 6
)

// phrasePattern matches a query fully wrapped in double quotes.
var phrasePattern = regexp.MustCompile(`^"(.+)"$`)

// QueryDescriptor is the canonical form of a raw search query.
// It is derived once per request and never mutated afterwards.
type QueryDescriptor struct {
	RawText     string
	IsPhrase    bool
	PhraseBody  string
	LengthClass LengthClass
}

// ParseQuery trims, validates and classifies raw caller input.
// Queries shorter than MinQueryLength after trimming, or containing
// invalid UTF-8, are rejected with ErrInvalidQuery.
func ParseQuery(raw string) (QueryDescriptor, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return QueryDescriptor{}, fmt.Errorf("%w: empty query", ErrInvalidQuery)
	}
	if !utf8.ValidString(trimmed) {
		return QueryDescriptor{}, fmt.Errorf("%w: query is not valid UTF-8", ErrInvalidQuery)
	}
	// Length limits count characters, not bytes.
	runes := utf8.RuneCountInString(trimmed)
	if runes < MinQueryLength {
		return QueryDescriptor{}, fmt.Errorf("%w: query %q is too short", ErrInvalidQuery, trimmed)
	}

	q := QueryDescriptor{RawText: trimmed, LengthClass: LengthNormal}
	if runes < shortQueryLimit {
		q.LengthClass = LengthShort
	}

	if m := phrasePattern.FindStringSubmatch(trimmed); m != nil {
		q.IsPhrase = true
		q.PhraseBody = m[1]
	}

	return q, nil
}

// SearchText returns the text to match against catalog fields:
// the phrase body for phrase queries, the raw text otherwise.
func (q QueryDescriptor) SearchText() string {
	if q.IsPhrase {
		return q.PhraseBody
	}
	return q.RawText
}

// Tokens splits the search text into non-empty whitespace-separated tokens.
func (q QueryDescriptor) Tokens() []string {
	return strings.Fields(q.SearchText())
}
