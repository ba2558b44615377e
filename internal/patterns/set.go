// Package patterns holds the language-specific heading rules used to find
// volume, chapter and section boundaries in plain text.
//
// Every rule is line-anchored: it is matched against one physical line and
// must cover the whole line apart from surrounding horizontal whitespace.
// This is what keeps structural words inside prose from being taken as
// headings, so the boundary scanner never needs look-around.
package patterns

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/txtshelf/internal/types"
)

// Rule is a single heading pattern for one level.
type Rule struct {
	Name string
	Kind types.BoundaryKind

	// Fallback rules are only consulted when no primary rule of the same
	// level matched anywhere in the scanned span.
	Fallback bool

	re *regexp.Regexp
}

// LineMatch is a successful match of a rule against one line.
type LineMatch struct {
	Heading string // trimmed heading text, marker and title
	Marker  string // the numbered marker, e.g. 第三章 or Chapter 3
	Start   int    // byte offset of the heading within the line
	End     int    // byte offset just past the heading
}

// Match matches the rule against a single line.
func (r Rule) Match(line string) (LineMatch, bool) {
	loc := r.re.FindStringSubmatchIndex(line)
	if loc == nil {
		return LineMatch{}, false
	}
	hi := r.re.SubexpIndex("heading")
	mi := r.re.SubexpIndex("marker")
	m := LineMatch{Start: loc[0], End: loc[1]}
	if hi > 0 && loc[2*hi] >= 0 {
		m.Start, m.End = loc[2*hi], loc[2*hi+1]
	}
	raw := line[m.Start:m.End]
	m.Heading = strings.TrimSpace(raw)
	// keep Start/End on the trimmed heading
	m.Start += strings.Index(raw, m.Heading)
	m.End = m.Start + len(m.Heading)
	if mi > 0 && loc[2*mi] >= 0 {
		m.Marker = strings.TrimSpace(line[loc[2*mi]:loc[2*mi+1]])
	} else {
		m.Marker = m.Heading
	}
	return m, true
}

// Labels are the titles given to nodes that have no heading in the text.
type Labels struct {
	DocumentPreface string `json:"document_preface"`
	VolumePreface   string `json:"volume_preface"`
	ChapterPreface  string `json:"chapter_preface"`
	FallbackChapter string `json:"fallback_chapter"`
	EmptyDocument   string `json:"empty_document"`
}

// Set is the complete vocabulary for one language. Both variants expose
// the same surface; callers select one with ForLanguage.
type Set struct {
	Language types.Language

	volume  []Rule
	chapter []Rule
	section []Rule

	TOCKeywords     []string
	PrefaceKeywords []string
	Labels          Labels

	// Reference matches a cross-reference such as 见第三章 or "see Chapter 3"
	// in the window of ReferenceBefore runes before a match plus
	// ReferenceWithin runes of the match itself.
	Reference       *regexp.Regexp
	ReferenceBefore int
	ReferenceWithin int

	// ListSeparator matches an enumeration such as 、第三章 in the window of
	// ListBefore runes before plus ListWithin runes of the match.
	ListSeparator *regexp.Regexp
	ListBefore    int
	ListWithin    int

	// Continuation matches text that continues a sentence after a marker.
	Continuation *regexp.Regexp

	// Canonical matches the conventional chapter heading form.
	Canonical *regexp.Regexp

	// WeakReference marks a title that is read as part of a preceding
	// phrase such as 在第 or "in Chapter". See WeaklyReferenced.
	WeakReference *regexp.Regexp

	simpleTitles []*regexp.Regexp
	ignore       []*regexp.Regexp
}

// ForLanguage returns the built-in set for a language.
func ForLanguage(lang types.Language) *Set {
	if lang == types.English {
		return English()
	}
	return Chinese()
}

// Rules returns the rules for a level in priority order.
func (s *Set) Rules(kind types.BoundaryKind) []Rule {
	switch kind {
	case types.KindVolume:
		return s.volume
	case types.KindChapter:
		return s.chapter
	case types.KindSection:
		return s.section
	default:
		return nil
	}
}

// MatchLine reports whether a line is a heading of the given level.
// Fallback rules are tried only when withFallback is set.
func (s *Set) MatchLine(kind types.BoundaryKind, line string, withFallback bool) (LineMatch, Rule, bool) {
	for _, r := range s.Rules(kind) {
		if r.Fallback && !withFallback {
			continue
		}
		if m, ok := r.Match(line); ok {
			return m, r, true
		}
	}
	return LineMatch{}, Rule{}, false
}

// HasFallback reports whether the level has fallback rules.
func (s *Set) HasFallback(kind types.BoundaryKind) bool {
	for _, r := range s.Rules(kind) {
		if r.Fallback {
			return true
		}
	}
	return false
}

// SplitHeading separates a chapter heading into its marker and the rest.
// ok is false when the heading does not match any chapter rule.
func (s *Set) SplitHeading(kind types.BoundaryKind, heading string) (marker, rest string, ok bool) {
	m, _, ok := s.MatchLine(kind, heading, true)
	if !ok {
		return "", "", false
	}
	rest = strings.TrimSpace(m.Heading[len(m.Marker):])
	rest = strings.TrimLeft(rest, ":：.-–— \t　")
	return m.Marker, rest, true
}

// IsTOCKeyword reports whether a trimmed line is a table-of-contents label.
func (s *Set) IsTOCKeyword(line string) bool {
	return equalsAny(line, s.TOCKeywords)
}

// IsPrefaceKeyword reports whether a trimmed line is a preface heading.
func (s *Set) IsPrefaceKeyword(line string) bool {
	return equalsAny(line, s.PrefaceKeywords)
}

// IsSimpleTitle reports whether a chapter title carries only its number.
func (s *Set) IsSimpleTitle(title string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}
	for _, re := range s.simpleTitles {
		if re.MatchString(title) {
			return true
		}
	}
	if s.Language == types.Chinese && utf8.RuneCountInString(title) <= 5 &&
		strings.Contains(title, "第") && strings.Contains(title, "章") {
		return true
	}
	return false
}

// Ignored reports whether a heading matches a configured ignore pattern.
func (s *Set) Ignored(heading string) bool {
	for _, re := range s.ignore {
		if re.MatchString(heading) {
			return true
		}
	}
	return false
}

func (s *Set) clone() *Set {
	cp := *s
	cp.volume = append([]Rule(nil), s.volume...)
	cp.chapter = append([]Rule(nil), s.chapter...)
	cp.section = append([]Rule(nil), s.section...)
	cp.ignore = append([]*regexp.Regexp(nil), s.ignore...)
	return &cp
}

func equalsAny(line string, keywords []string) bool {
	line = strings.TrimSpace(line)
	for _, kw := range keywords {
		if strings.EqualFold(line, kw) {
			return true
		}
	}
	return false
}

// heading wraps a marker and optional title expression into a whole-line rule.
func heading(marker, title string) *regexp.Regexp {
	expr := `^[ \t\x{3000}]*(?P<heading>(?P<marker>` + marker + `)`
	if title != "" {
		expr += `(?:` + title + `)?`
	}
	expr += `)[ \t\x{3000}\r]*$`
	return regexp.MustCompile(expr)
}

// WeaklyReferenced reports whether the text just before a title and the
// title itself form a WeakReference construction across the join.
func (s *Set) WeaklyReferenced(before, title string) bool {
	if before == "" || s.WeakReference == nil {
		return false
	}
	split := len(before)
	for _, loc := range s.WeakReference.FindAllStringIndex(before+title, -1) {
		if loc[0] < split && loc[1] > split {
			return true
		}
	}
	return false
}
