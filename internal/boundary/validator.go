package boundary

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/txtshelf/internal/patterns"
	"github.com/jackzampolin/txtshelf/internal/types"
)

// DefaultMaxTitleLength is the longest plausible heading, in runes.
const DefaultMaxTitleLength = 100

// Reason explains why a candidate was rejected.
type Reason string

const (
	Accepted            Reason = ""
	ReasonTooLong       Reason = "title_too_long"
	ReasonIgnored       Reason = "ignored"
	ReasonReference     Reason = "reference"
	ReasonListSeparator Reason = "list_separator"
	ReasonContinuation  Reason = "continuation"
	ReasonNotLineStart  Reason = "not_line_start"
)

// Validator rejects candidates that look like prose rather than headings.
type Validator struct {
	set            *patterns.Set
	maxTitleLength int
}

// NewValidator creates a validator. maxTitleLength <= 0 selects the default.
func NewValidator(set *patterns.Set, maxTitleLength int) *Validator {
	if maxTitleLength <= 0 {
		maxTitleLength = DefaultMaxTitleLength
	}
	return &Validator{set: set, maxTitleLength: maxTitleLength}
}

// Validate checks a candidate against its surrounding text. The candidate is
// accepted only if every check passes. Matcher candidates always span a
// whole line, so the reference, list separator and line start checks only
// fire for matches built elsewhere.
func (v *Validator) Validate(text string, m types.BoundaryMatch) (bool, Reason) {
	if m.Start < 0 || m.End > len(text) || m.Start > m.End {
		return false, ReasonNotLineStart
	}
	title := strings.TrimSpace(m.Title)
	if title == "" {
		title = strings.TrimSpace(text[m.Start:m.End])
	}

	if utf8.RuneCountInString(title) > v.maxTitleLength {
		return false, ReasonTooLong
	}
	if v.set.Ignored(title) {
		return false, ReasonIgnored
	}

	before := text[:m.Start]
	matched := text[m.Start:m.End]

	if adjacent(v.set.Reference, lastRunes(before, v.set.ReferenceBefore), firstRunes(matched, v.set.ReferenceWithin)) {
		return false, ReasonReference
	}
	if adjacent(v.set.ListSeparator, lastRunes(before, v.set.ListBefore), firstRunes(matched, v.set.ListWithin)) {
		return false, ReasonListSeparator
	}

	if v.continues(text[m.End:], title, m.Kind) {
		return false, ReasonContinuation
	}

	lineStart := strings.LastIndexByte(before, '\n') + 1
	if strings.TrimSpace(before[lineStart:]) != "" {
		return false, ReasonNotLineStart
	}

	return true, Accepted
}

// ValidateLine checks a standalone line that matched a rule. Only the
// checks that do not need surrounding context apply.
func (v *Validator) ValidateLine(title string) (bool, Reason) {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) > v.maxTitleLength {
		return false, ReasonTooLong
	}
	if v.set.Ignored(title) {
		return false, ReasonIgnored
	}
	return true, Accepted
}

// adjacent reports whether re matches the joined window in a way that spans
// the join, i.e. the construction starts before the marker and reaches into it.
func adjacent(re *regexp.Regexp, before, within string) bool {
	split := len(before)
	for _, loc := range re.FindAllStringIndex(before+within, -1) {
		if loc[0] < split && loc[1] > split {
			return true
		}
	}
	return false
}

// continues reports whether the marker sits inside a running sentence:
// either the rest of its line continues the clause, or (English) the words
// after the number read as a predicate rather than a title.
func (v *Validator) continues(after, title string, kind types.BoundaryKind) bool {
	if i := strings.IndexByte(after, '\n'); i >= 0 {
		after = after[:i]
	}
	if strings.TrimSpace(after) != "" && v.set.Continuation.MatchString(after) {
		return true
	}
	if v.set.Language != types.English {
		return false
	}
	marker, rest, ok := v.set.SplitHeading(kind, title)
	if !ok || rest == "" || len(title) <= len(marker) {
		return false
	}
	if c := title[len(marker)]; c != ' ' && c != '\t' {
		return false
	}
	return v.set.Continuation.MatchString(rest)
}
