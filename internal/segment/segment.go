// Package segment builds the volume → chapter → section tree from text with
// its table of contents already removed.
package segment

import (
	"log/slog"
	"strings"

	"github.com/jackzampolin/txtshelf/internal/boundary"
	"github.com/jackzampolin/txtshelf/internal/types"
)

// Defaults for the length merge.
const (
	DefaultMinChapterLength = 100
	DefaultMinSectionLength = 50
)

// Options configures a Segmenter.
type Options struct {
	// EnableLengthValidation merges chapters and sections shorter than the
	// minimums into their predecessor.
	EnableLengthValidation bool
	MinChapterLength       int
	MinSectionLength       int
	Logger                 *slog.Logger
}

// Segmenter splits documents using a boundary scanner.
type Segmenter struct {
	scanner *boundary.Scanner
	opts    Options
	logger  *slog.Logger
}

// New creates a segmenter. The scanner's pattern set decides the language
// of the synthetic node titles.
func New(scanner *boundary.Scanner, opts Options) *Segmenter {
	if opts.MinChapterLength <= 0 {
		opts.MinChapterLength = DefaultMinChapterLength
	}
	if opts.MinSectionLength <= 0 {
		opts.MinSectionLength = DefaultMinSectionLength
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{scanner: scanner, opts: opts, logger: logger}
}

// Segment returns the volume tree for text. The result is never empty.
func (s *Segmenter) Segment(text string) []types.Volume {
	labels := s.scanner.Set().Labels
	if strings.TrimSpace(text) == "" {
		return []types.Volume{{Chapters: []types.Chapter{{Title: labels.EmptyDocument, Synthetic: true}}}}
	}

	matches := unique(s.scanner.Find(text, types.KindVolume))
	var volumes []types.Volume
	if len(matches) == 0 {
		volumes = []types.Volume{{Chapters: s.chapters(text, 0, len(text), labels.DocumentPreface, labels.FallbackChapter)}}
	} else {
		// preamble before the first volume heading
		if pre := text[:matches[0].Start]; strings.TrimSpace(pre) != "" {
			volumes = append(volumes, types.Volume{
				Chapters: s.chapters(text, 0, matches[0].Start, labels.DocumentPreface, labels.DocumentPreface),
			})
		}
		for i, m := range matches {
			lo, hi := spanBounds(text, matches, i)
			volumes = append(volumes, types.Volume{
				Title:    m.Title,
				Chapters: s.chapters(text, lo, hi, labels.VolumePreface, labels.FallbackChapter),
			})
		}
	}

	if s.opts.EnableLengthValidation {
		for i := range volumes {
			volumes[i].Chapters = s.mergeChapters(volumes[i].Chapters)
		}
	}
	return volumes
}

// chapters splits text[lo:hi] on chapter headings. Text before the first
// heading becomes a chapter titled preface; a span without headings becomes
// a single chapter titled fallback. Heading offsets and lines are recorded
// relative to text.
func (s *Segmenter) chapters(text string, lo, hi int, preface, fallback string) []types.Chapter {
	span := text[lo:hi]
	matches := unique(s.scanner.Find(span, types.KindChapter))
	if len(matches) == 0 {
		ch := types.Chapter{Title: fallback, Synthetic: true}
		s.fill(&ch, span)
		return []types.Chapter{ch}
	}

	out := make([]types.Chapter, 0, len(matches)+1)
	if pre := span[:matches[0].Start]; strings.TrimSpace(pre) != "" {
		ch := types.Chapter{Title: preface, Synthetic: true}
		s.fill(&ch, pre)
		out = append(out, ch)
	}
	line := strings.Count(text[:lo], "\n")
	for i, m := range matches {
		ch := types.Chapter{Title: m.Title, Offset: lo + m.Start, Line: line + m.Line}
		s.fill(&ch, spanAfter(span, matches, i))
		out = append(out, ch)
	}
	return out
}

// fill distributes a chapter span into content or sections.
func (s *Segmenter) fill(ch *types.Chapter, span string) {
	matches := unique(s.scanner.Find(span, types.KindSection))
	if len(matches) == 0 {
		ch.Content = clean(span)
		return
	}
	if pre := span[:matches[0].Start]; strings.TrimSpace(pre) != "" {
		ch.Sections = append(ch.Sections, types.Section{
			Title:     s.scanner.Set().Labels.ChapterPreface,
			Content:   clean(pre),
			Synthetic: true,
		})
	}
	for i, m := range matches {
		ch.Sections = append(ch.Sections, types.Section{
			Title:   m.Title,
			Content: clean(spanAfter(span, matches, i)),
		})
	}
	if s.opts.EnableLengthValidation {
		ch.Sections = s.mergeSections(ch.Title, ch.Sections)
	}
}

// spanAfter returns the text between the end of matches[i] and the start of
// the next match.
func spanAfter(text string, matches []types.BoundaryMatch, i int) string {
	lo, hi := spanBounds(text, matches, i)
	return text[lo:hi]
}

func spanBounds(text string, matches []types.BoundaryMatch, i int) (int, int) {
	end := len(text)
	if i+1 < len(matches) {
		end = matches[i+1].Start
	}
	return matches[i].End, end
}

// unique drops repeated headings with the same title. The text of a
// dropped heading stays in the preceding node.
func unique(matches []types.BoundaryMatch) []types.BoundaryMatch {
	seen := make(map[string]bool, len(matches))
	out := matches[:0:0]
	for _, m := range matches {
		if seen[m.Title] {
			continue
		}
		seen[m.Title] = true
		out = append(out, m)
	}
	return out
}

// clean trims the whitespace around a node body, first-line indentation
// included.
func clean(s string) string {
	return strings.TrimSpace(s)
}
