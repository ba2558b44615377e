// Package confidence scores how plausible each inferred chapter is.
package confidence

import (
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/txtshelf/internal/patterns"
	"github.com/jackzampolin/txtshelf/internal/types"
)

// DefaultThreshold is the per-chapter score below which a chapter is
// uncertain.
const DefaultThreshold = 0.7

const (
	base = 0.6

	titleBonus   = 0.15
	titlePenalty = 0.1
	bodyBonus    = 0.15
	bodyPenalty  = 0.2
	canonical    = 0.1
	reference    = 0.3

	referenceWindow = 20
)

// ChapterScore is the estimate for one chapter.
type ChapterScore struct {
	Ref       types.ChapterRef `json:"-"`
	Index     int              `json:"index"`
	Title     string           `json:"title"`
	Score     float64          `json:"score"`
	Length    int              `json:"length"`
	Position  int              `json:"position"` // byte offset of the title in the text, -1 if not found
	Line      int              `json:"line,omitempty"`
	Synthetic bool             `json:"synthetic,omitempty"`
	Uncertain bool             `json:"uncertain,omitempty"`
}

// Report is the estimate for a whole tree.
type Report struct {
	Chapters  []ChapterScore `json:"chapters"`
	Overall   float64        `json:"overall"`
	Uncertain []int          `json:"uncertain,omitempty"` // indexes into Chapters
}

// UncertainChapters returns the uncertain chapter scores in document order.
func (r Report) UncertainChapters() []ChapterScore {
	out := make([]ChapterScore, 0, len(r.Uncertain))
	for _, i := range r.Uncertain {
		out = append(out, r.Chapters[i])
	}
	return out
}

// Estimator scores chapters against the text they were cut from.
type Estimator struct {
	set       *patterns.Set
	threshold float64
}

// New creates an estimator. A threshold <= 0 uses DefaultThreshold.
func New(set *patterns.Set, threshold float64) *Estimator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Estimator{set: set, threshold: threshold}
}

// Estimate scores every chapter of volumes. A chapter located by the
// segmenter is scored at its matched heading. Otherwise its title is
// searched forward from the previous chapter's title, accepting only
// occurrences that start a line.
func (e *Estimator) Estimate(text string, volumes []types.Volume) Report {
	refs := types.ChapterRefs(volumes)
	report := Report{Chapters: make([]ChapterScore, 0, len(refs))}

	cursor, sum := 0, 0.0
	for _, ref := range refs {
		ch := volumes[ref.Volume].Chapters[ref.Chapter]
		cs := ChapterScore{
			Ref:       ref,
			Index:     ref.Index,
			Title:     ch.Title,
			Length:    length(ch),
			Position:  -1,
			Synthetic: ch.Synthetic,
		}

		before := ""
		if !ch.Synthetic && ch.Title != "" {
			pos, line := -1, 0
			if ch.Located() && ch.Offset <= len(text) {
				pos, line = ch.Offset, ch.Line
			} else if pos = headingIndex(text, cursor, ch.Title); pos >= 0 {
				line = strings.Count(text[:pos], "\n") + 1
			}
			if pos >= 0 {
				cs.Position, cs.Line = pos, line
				before = lastRunes(text[:pos], referenceWindow)
				cursor = max(cursor, min(len(text), pos+len(ch.Title)))
			}
		}

		cs.Score = e.Score(ch.Title, cs.Length, before)
		if cs.Score < e.threshold {
			cs.Uncertain = true
			report.Uncertain = append(report.Uncertain, len(report.Chapters))
		}
		sum += cs.Score
		report.Chapters = append(report.Chapters, cs)
	}
	if n := len(report.Chapters); n > 0 {
		report.Overall = sum / float64(n)
	}
	return report
}

// Score combines the signals for one chapter. before is the text just
// ahead of the title in the source.
func (e *Estimator) Score(title string, length int, before string) float64 {
	score := base

	switch n := utf8.RuneCountInString(title); {
	case n >= 5 && n <= 30:
		score += titleBonus
	case n < 5 || n > 50:
		score -= titlePenalty
	}

	switch {
	case length >= 500 && length <= 50000:
		score += bodyBonus
	case length < 100:
		score -= bodyPenalty
	}

	if e.set.Canonical != nil && e.set.Canonical.MatchString(title) {
		score += canonical
	}
	if e.set.WeaklyReferenced(before, title) {
		score -= reference
	}
	return min(1, max(0, score))
}

// Threshold returns the per-chapter uncertainty threshold.
func (e *Estimator) Threshold() float64 {
	return e.threshold
}

// headingIndex returns the offset of the first occurrence of title at or
// after from that has only whitespace before it on its line, or -1.
func headingIndex(text string, from int, title string) int {
	for from <= len(text) {
		i := strings.Index(text[from:], title)
		if i < 0 {
			return -1
		}
		pos := from + i
		lineStart := strings.LastIndexByte(text[:pos], '\n') + 1
		if strings.TrimSpace(text[lineStart:pos]) == "" {
			return pos
		}
		from = pos + len(title)
	}
	return -1
}

func length(ch types.Chapter) int {
	n := utf8.RuneCountInString(ch.Content)
	for _, s := range ch.Sections {
		n += utf8.RuneCountInString(s.Content)
	}
	return n
}

func lastRunes(s string, n int) string {
	i := len(s)
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}
