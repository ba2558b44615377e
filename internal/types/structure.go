package types

import (
	"strings"
	"unicode/utf8"
)

// Section is a leaf node owned by a Chapter.
type Section struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Synthetic bool   `json:"synthetic,omitempty"` // title was generated, not found in the text
}

// Chapter holds either direct content or sections, never both.
type Chapter struct {
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	Sections  []Section `json:"sections,omitempty"`
	Synthetic bool      `json:"synthetic,omitempty"`

	// Offset is the byte offset of the heading in the segmented text and
	// Line its 1-based line. Line is 0 when the heading was not matched there.
	Offset int `json:"-"`
	Line   int `json:"line,omitempty"`
}

// Located reports whether the chapter's heading position is known.
func (c Chapter) Located() bool {
	return c.Line > 0 && !c.Synthetic
}

// Volume groups chapters. An empty Title marks an implicit volume.
type Volume struct {
	Title    string    `json:"title,omitempty"`
	Chapters []Chapter `json:"chapters"`
}

// Implicit reports whether the volume has no heading of its own.
func (v Volume) Implicit() bool {
	return v.Title == ""
}

// Body returns the chapter text including section titles.
func (c Chapter) Body() string {
	if len(c.Sections) == 0 {
		return c.Content
	}
	parts := make([]string, 0, len(c.Sections)*2)
	for _, s := range c.Sections {
		parts = append(parts, s.Title, s.Content)
	}
	return strings.Join(parts, "\n")
}

// Length returns the rune count of the chapter's trimmed text, sections included.
func (c Chapter) Length() int {
	if len(c.Sections) == 0 {
		return utf8.RuneCountInString(strings.TrimSpace(c.Content))
	}
	n := 0
	for _, s := range c.Sections {
		n += utf8.RuneCountInString(strings.TrimSpace(s.Content))
	}
	return n
}

// CountChapters returns the number of chapters across all volumes.
func CountChapters(volumes []Volume) int {
	n := 0
	for _, v := range volumes {
		n += len(v.Chapters)
	}
	return n
}

// ChapterRef addresses a chapter by its volume and chapter index.
// Index is the global position of the chapter in document order.
type ChapterRef struct {
	Volume  int
	Chapter int
	Index   int
}

// ChapterRefs lists every chapter in document order.
func ChapterRefs(volumes []Volume) []ChapterRef {
	refs := make([]ChapterRef, 0, CountChapters(volumes))
	idx := 0
	for vi, v := range volumes {
		for ci := range v.Chapters {
			refs = append(refs, ChapterRef{Volume: vi, Chapter: ci, Index: idx})
			idx++
		}
	}
	return refs
}

// Clone returns a deep copy of the volume tree.
func Clone(volumes []Volume) []Volume {
	out := make([]Volume, len(volumes))
	for i, v := range volumes {
		out[i] = Volume{Title: v.Title, Chapters: make([]Chapter, len(v.Chapters))}
		for j, ch := range v.Chapters {
			cp := ch
			if ch.Sections != nil {
				cp.Sections = append([]Section(nil), ch.Sections...)
			}
			out[i].Chapters[j] = cp
		}
	}
	return out
}

// Text concatenates every non-synthetic title and body in reading order.
// Comparing it with the source document (whitespace removed) checks that
// segmentation lost no text.
func Text(volumes []Volume) string {
	var sb strings.Builder
	for _, v := range volumes {
		if v.Title != "" {
			sb.WriteString(v.Title)
			sb.WriteByte('\n')
		}
		for _, ch := range v.Chapters {
			if !ch.Synthetic {
				sb.WriteString(ch.Title)
				sb.WriteByte('\n')
			}
			sb.WriteString(ch.Content)
			sb.WriteByte('\n')
			for _, s := range ch.Sections {
				if !s.Synthetic {
					sb.WriteString(s.Title)
					sb.WriteByte('\n')
				}
				sb.WriteString(s.Content)
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}
