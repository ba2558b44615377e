// Package boundary finds heading candidates in text and decides which of
// them are real structural boundaries.
//
// Matching casts a wide net over every line; validation is a strict gate
// that rejects a candidate if any single check fails.
package boundary

import (
	"github.com/jackzampolin/txtshelf/internal/patterns"
	"github.com/jackzampolin/txtshelf/internal/types"
)

// Matcher finds every line that matches a level's rules.
type Matcher struct {
	set *patterns.Set
}

// NewMatcher creates a matcher for a pattern set.
func NewMatcher(set *patterns.Set) *Matcher {
	return &Matcher{set: set}
}

// FindAll returns all candidate boundaries of one level in document order.
// Fallback rules are used only when the primary rules find nothing.
func (m *Matcher) FindAll(text string, kind types.BoundaryKind) []types.BoundaryMatch {
	lines := SplitLines(text)
	matches := m.scan(lines, kind, false)
	if len(matches) == 0 && m.set.HasFallback(kind) {
		matches = m.scan(lines, kind, true)
	}
	return matches
}

func (m *Matcher) scan(lines []Line, kind types.BoundaryKind, withFallback bool) []types.BoundaryMatch {
	var out []types.BoundaryMatch
	for _, line := range lines {
		lm, rule, ok := m.set.MatchLine(kind, line.Text, withFallback)
		if !ok {
			continue
		}
		out = append(out, types.BoundaryMatch{
			Kind:  kind,
			Title: lm.Heading,
			Start: line.Start + lm.Start,
			End:   line.Start + lm.End,
			Line:  line.Number,
			Rule:  rule.Name,
		})
	}
	return out
}

// IsHeadingLine reports whether a single line is a chapter or volume heading.
func (m *Matcher) IsHeadingLine(line string) (types.BoundaryMatch, bool) {
	for _, kind := range []types.BoundaryKind{types.KindChapter, types.KindVolume} {
		if lm, rule, ok := m.set.MatchLine(kind, line, false); ok {
			return types.BoundaryMatch{
				Kind:  kind,
				Title: lm.Heading,
				Start: lm.Start,
				End:   lm.End,
				Line:  1,
				Rule:  rule.Name,
			}, true
		}
	}
	return types.BoundaryMatch{}, false
}
