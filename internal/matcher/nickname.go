// Package matcher decides whether a search query names the same customer as a stored nickname.
//
// Policy: symbols, emoji, whitespace, case and character width are cosmetic. A query that
// still carries CJK text after stripping them matches any nickname whose stripped form
// contains it, so "黎黎" finds "黎黎:)". A Latin/digit query must equal the stripped nickname
// exactly, so "v" does not find "victon". A query made only of symbols (":)") is compared
// verbatim apart from whitespace and case.
//
// Earlier policies that were dropped:
//   - exact raw equality: "Kaguya :)" missed "Kaguya ❤️" and full-width input never matched.
//   - two-way substring on lowered text: "v" matched every nickname containing a v, and short
//     nicknames matched long queries.
//   - strict core equality for every script: customers typing only the meaningful part of a
//     decorated CJK nickname got nothing back.
//   - fuzzy subsequence scoring: ranked results are no use when orders from the wrong
//     customer must never be shown.
//
// Whether the product wants more recall than this is still open; see DESIGN.md.
package matcher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Normalize folds character width, strips all whitespace and lower-cases s.
func Normalize(s string) string {
	if !utf8.ValidString(s) {
		return ""
	}
	folded := width.Fold.String(s)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Core returns the normalized form of s with everything except CJK text, letters and
// digits removed.
func Core(s string) string {
	n := Normalize(s)

	var b strings.Builder
	b.Grow(len(n))
	for _, r := range n {
		if isCoreRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsBlank reports whether s has nothing left to match on after normalization.
func IsBlank(s string) bool {
	return Normalize(s) == ""
}

// Matches reports whether query identifies the customer with the given nickname.
func Matches(query, candidate string) bool {
	return New(query).Match(candidate)
}

// Matcher is a query prepared once and checked against many nicknames.
type Matcher struct {
	basic string
	core  string
	cjk   bool
}

// New prepares query for repeated matching.
func New(query string) Matcher {
	if !utf8.ValidString(query) {
		return Matcher{}
	}
	core := Core(query)
	return Matcher{
		basic: Normalize(query),
		core:  core,
		cjk:   containsCJK(core),
	}
}

// Empty reports whether the prepared query can match anything at all.
func (m Matcher) Empty() bool {
	return m.basic == ""
}

// Match reports whether the prepared query identifies candidate.
func (m Matcher) Match(candidate string) bool {
	if m.basic == "" || !utf8.ValidString(candidate) {
		return false
	}
	if m.core == "" {
		return Normalize(candidate) == m.basic
	}
	coreCandidate := Core(candidate)
	if coreCandidate == "" {
		return false
	}
	if m.cjk {
		return strings.Contains(coreCandidate, m.core)
	}
	return coreCandidate == m.core
}

func isCoreRune(r rune) bool {
	if isCJK(r) {
		return true
	}
	if r < utf8.RuneSelf {
		return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
	}
	return unicode.Is(unicode.Latin, r) && unicode.IsLetter(r)
}

// isCJK keeps the whole kana blocks, including the prolonged sound mark and the
// voicing marks that unicode files under Common.
func isCJK(r rune) bool {
	if (r >= 0x3040 && r <= 0x309f) || (r >= 0x30a0 && r <= 0x30ff) {
		return true
	}
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}

func containsCJK(s string) bool {
	for _, r := range s {
		if isCJK(r) {
			return true
		}
	}
	return false
}
