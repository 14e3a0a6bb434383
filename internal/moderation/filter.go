// Package moderation provides the static keyword filter applied to relayed
// chat messages. Matching is case-insensitive substring matching; every
// occurrence of a listed term is replaced with a fixed mask. The filter is
// pure and safe for concurrent use once constructed.
package moderation

import (
	"regexp"
	"strings"
)

// Mask replaces each matched term in redacted output.
const Mask = "***"

// defaultTerms is the built-in keyword list. Terms are distinct and
// non-overlapping, so the traversal order does not affect the final output.
var defaultTerms = []string{
	"badword1", "badword2", "badword3",
	"fuck", "shit", "damn", "asshole",
}

// FilterResult describes the outcome of checking a message.
type FilterResult struct {
	Blocked bool   // true if the text contains a listed term
	Reason  string // "blocked_keyword" when Blocked
	Term    string // the first term that matched
}

// Filter screens text against a fixed keyword list.
type Filter struct {
	terms    []string         // lowercase terms, for Contains/Check
	patterns []*regexp.Regexp // case-insensitive literal patterns, for Redact
}

// NewFilter creates a Filter with the built-in term list.
func NewFilter() *Filter {
	return NewFilterWithTerms(defaultTerms)
}

// NewFilterWithTerms creates a Filter with a custom term list. Useful for
// tests and for deployments that extend the built-in list.
func NewFilterWithTerms(terms []string) *Filter {
	f := &Filter{
		terms:    make([]string, 0, len(terms)),
		patterns: make([]*regexp.Regexp, 0, len(terms)),
	}
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" {
			continue
		}
		f.terms = append(f.terms, t)
		f.patterns = append(f.patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(t)))
	}
	return f
}

// Redact replaces every case-insensitive occurrence of each listed term with
// Mask, leaving the surrounding text untouched.
func (f *Filter) Redact(text string) string {
	out := text
	for _, p := range f.patterns {
		out = p.ReplaceAllLiteralString(out, Mask)
	}
	return out
}

// Contains reports whether the text contains any listed term.
func (f *Filter) Contains(text string) bool {
	lower := strings.ToLower(text)
	for _, t := range f.terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// Check returns a FilterResult identifying the first matching term. It exists
// as a hook for moderation flows that need to know what matched, not just
// whether something did.
func (f *Filter) Check(text string) FilterResult {
	lower := strings.ToLower(text)
	for _, t := range f.terms {
		if strings.Contains(lower, t) {
			return FilterResult{Blocked: true, Reason: "blocked_keyword", Term: t}
		}
	}
	return FilterResult{}
}
