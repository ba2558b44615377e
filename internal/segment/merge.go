package segment

import (
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/txtshelf/internal/types"
)

// mergeChapters folds chapters shorter than MinChapterLength into the
// preceding chapter. The first chapter of a volume has no predecessor and
// stays; synthetic chapters never receive text.
func (s *Segmenter) mergeChapters(chapters []types.Chapter) []types.Chapter {
	out := make([]types.Chapter, 0, len(chapters))
	for _, ch := range chapters {
		n := ch.Length()
		if len(out) == 0 || n >= s.opts.MinChapterLength || out[len(out)-1].Synthetic {
			out = append(out, ch)
			continue
		}
		prev := &out[len(out)-1]
		s.logger.Info("merged short chapter",
			"chapter", ch.Title, "into", prev.Title, "length", n, "min", s.opts.MinChapterLength)

		if len(prev.Sections) > 0 {
			// keep content and sections mutually exclusive
			prev.Sections = append(prev.Sections, types.Section{
				Title:     ch.Title,
				Content:   ch.Body(),
				Synthetic: ch.Synthetic,
			})
			continue
		}
		parts := []string{prev.Content}
		if !ch.Synthetic {
			parts = append(parts, ch.Title)
		}
		prev.Content = joinNonEmpty(append(parts, ch.Body()))
	}
	return out
}

// mergeSections folds sections shorter than MinSectionLength into the
// preceding section.
func (s *Segmenter) mergeSections(chapter string, sections []types.Section) []types.Section {
	out := make([]types.Section, 0, len(sections))
	for _, sec := range sections {
		n := utf8.RuneCountInString(strings.TrimSpace(sec.Content))
		if len(out) == 0 || n >= s.opts.MinSectionLength || out[len(out)-1].Synthetic {
			out = append(out, sec)
			continue
		}
		prev := &out[len(out)-1]
		s.logger.Info("merged short section",
			"chapter", chapter, "section", sec.Title, "into", prev.Title, "length", n, "min", s.opts.MinSectionLength)
		parts := []string{prev.Content}
		if !sec.Synthetic {
			parts = append(parts, sec.Title)
		}
		prev.Content = joinNonEmpty(append(parts, sec.Content))
	}
	return out
}

func joinNonEmpty(parts []string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
